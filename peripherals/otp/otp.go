// Package otp models the one-time-programmable fuse region of §3/§6:
// a byte array read from a file on start and written back verbatim on
// clean exit. The format is opaque to the core (§6 "opaque to the
// core").
package otp

import (
	"os"

	"github.com/user-none/go-chip-rv32/bus"
)

// OTP is a flat byte-addressable region backed by an in-memory array
// that mirrors an optional on-disk fuse file.
type OTP struct {
	data []byte
}

// New constructs an OTP region of size bytes, optionally pre-loaded
// from path if it exists. A missing path is not an error: the region
// starts zeroed (virgin fuses).
func New(size uint32, path string) (*OTP, error) {
	data := make([]byte, size)
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		copy(data, raw)
	}
	return &OTP{data: data}, nil
}

// Save writes the region verbatim to path, per §6 "written on clean
// exit".
func (o *OTP) Save(path string) error {
	if path == "" {
		return nil
	}
	return os.WriteFile(path, o.data, 0o644)
}

func (o *OTP) Read(size bus.Size, addr uint32) (uint32, error) {
	if size != bus.Word || addr%4 != 0 {
		return 0, bus.ErrLoadAddrMisaligned
	}
	if int(addr)+4 > len(o.data) {
		return 0, bus.ErrLoadAccessFault
	}
	return uint32(o.data[addr]) | uint32(o.data[addr+1])<<8 |
		uint32(o.data[addr+2])<<16 | uint32(o.data[addr+3])<<24, nil
}

func (o *OTP) Write(size bus.Size, addr uint32, val uint32) error {
	if size != bus.Word || addr%4 != 0 {
		return bus.ErrStoreAddrMisaligned
	}
	if int(addr)+4 > len(o.data) {
		return bus.ErrStoreAccessFault
	}
	o.data[addr] = byte(val)
	o.data[addr+1] = byte(val >> 8)
	o.data[addr+2] = byte(val >> 16)
	o.data[addr+3] = byte(val >> 24)
	return nil
}

func (o *OTP) Poll() {}

// WarmReset leaves fuse contents untouched: OTP survives resets by
// definition (one-time programmable).
func (o *OTP) WarmReset() {}

func (o *OTP) UpdateReset() {}
