// Package soc models the SoC interface region of §3: a small
// register file surfacing hardware identification and security-state
// bits (vendor/owner public-key hashes, hardware revision, streaming
// boot mode) that guest firmware and the root-of-trust CPU read during
// boot.
package soc

import (
	"encoding/binary"

	"github.com/user-none/go-chip-rv32/bus"
	"github.com/user-none/go-chip-rv32/peripherals/regfile"
)

const (
	regHWRevision    = 0x00 // RO: packed semver (major<<16 | minor<<8 | patch)
	regVendorPKHash0 = 0x04 // RO: first word of the vendor PK hash
	regOwnerPKHash0  = 0x24 // RO: first word of the owner PK hash
	regFlags         = 0x44 // RO: bit0 = streaming boot, bit1 = manufacturing mode
	hashWords        = 8    // 32 bytes / 4

	flagStreamingBoot     = 1 << 0
	flagManufacturingMode = 1 << 1
)

// SoC is the peripheral model for the SoC interface region.
type SoC struct {
	regs *regfile.File
}

// Config captures the construction-time values the region reports.
type Config struct {
	HWRevisionMajor, HWRevisionMinor, HWRevisionPatch uint8
	VendorPKHash, OwnerPKHash                         []byte
	StreamingBoot, ManufacturingMode                  bool
}

// New constructs a SoC peripheral reporting cfg's values.
func New(cfg Config) *SoC {
	s := &SoC{}
	regs := []regfile.Reg{
		{Offset: regHWRevision, Access: regfile.ReadOnly, OnRead: func() uint32 {
			return uint32(cfg.HWRevisionMajor)<<16 | uint32(cfg.HWRevisionMinor)<<8 | uint32(cfg.HWRevisionPatch)
		}},
		{Offset: regFlags, Access: regfile.ReadOnly, OnRead: func() uint32 {
			var v uint32
			if cfg.StreamingBoot {
				v |= flagStreamingBoot
			}
			if cfg.ManufacturingMode {
				v |= flagManufacturingMode
			}
			return v
		}},
	}
	regs = append(regs, hashRegs(regVendorPKHash0, cfg.VendorPKHash)...)
	regs = append(regs, hashRegs(regOwnerPKHash0, cfg.OwnerPKHash)...)
	s.regs = regfile.New(regs)
	return s
}

func hashRegs(base uint32, hash []byte) []regfile.Reg {
	padded := make([]byte, hashWords*4)
	copy(padded, hash)
	out := make([]regfile.Reg, 0, hashWords)
	for i := 0; i < hashWords; i++ {
		off := base + uint32(i*4)
		word := binary.LittleEndian.Uint32(padded[i*4:])
		out = append(out, regfile.Reg{Offset: off, Access: regfile.ReadOnly, OnRead: func() uint32 { return word }})
	}
	return out
}

func (s *SoC) Read(size bus.Size, addr uint32) (uint32, error) {
	if size != bus.Word || addr%4 != 0 {
		return 0, bus.ErrLoadAddrMisaligned
	}
	return s.regs.Read(addr)
}

func (s *SoC) Write(size bus.Size, addr uint32, val uint32) error {
	if size != bus.Word || addr%4 != 0 {
		return bus.ErrStoreAddrMisaligned
	}
	return bus.ErrStoreAccessFault // entirely read-only from the guest's side
}

func (s *SoC) Poll() {}

func (s *SoC) WarmReset()   {}
func (s *SoC) UpdateReset() {}
