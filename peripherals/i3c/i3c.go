// Package i3c models the I3C region of §3 as an opaque target-mode
// controller: command/response FIFO registers sufficient to exercise
// the bus contract, without modeling the I3C wire protocol itself
// (out of scope, per spec.md's "specific register bit layouts of each
// peripheral" exclusion).
package i3c

import (
	"github.com/user-none/go-chip-rv32/bus"
	"github.com/user-none/go-chip-rv32/peripherals/regfile"
)

const (
	regCommand  = 0x00 // WO: command word
	regResponse = 0x04 // RO: response word from the last command
	regStatus   = 0x08 // RO: bit0 = response ready
)

// I3C is a minimal command/response peripheral model.
type I3C struct {
	regs         *regfile.File
	responseReady bool
}

// New constructs an I3C peripheral.
func New() *I3C {
	c := &I3C{}
	c.regs = regfile.New([]regfile.Reg{
		{Offset: regCommand, Mask: 0xffffffff, Access: regfile.WriteOnly, OnWrite: c.onCommand},
		{Offset: regResponse, Access: regfile.ReadOnly, OnRead: c.onResponse},
		{Offset: regStatus, Access: regfile.ReadOnly, OnRead: c.onStatus},
	})
	return c
}

func (c *I3C) onCommand(val uint32) {
	// Loopback model: echo the command as the response, since no real
	// I3C target/controller device is modeled here.
	c.regs.Set(regResponse, val)
	c.responseReady = true
}

func (c *I3C) onResponse() uint32 {
	c.responseReady = false
	return c.regs.Get(regResponse)
}

func (c *I3C) onStatus() uint32 {
	if c.responseReady {
		return 1
	}
	return 0
}

func (c *I3C) Read(size bus.Size, addr uint32) (uint32, error) {
	if size != bus.Word || addr%4 != 0 {
		return 0, bus.ErrLoadAddrMisaligned
	}
	return c.regs.Read(addr)
}

func (c *I3C) Write(size bus.Size, addr uint32, val uint32) error {
	if size != bus.Word || addr%4 != 0 {
		return bus.ErrStoreAddrMisaligned
	}
	return c.regs.Write(addr, val)
}

func (c *I3C) Poll() {}

func (c *I3C) WarmReset()   { c.regs.Reset(); c.responseReady = false }
func (c *I3C) UpdateReset() { c.WarmReset() }
