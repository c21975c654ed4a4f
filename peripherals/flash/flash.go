// Package flash models a flash controller (primary or secondary flash
// region of §3). It holds its own backing image and, per §12's
// supplemented "flash controller DMA-into-SRAM" feature, a bus-master
// dma.Handle onto the SRAM region so a read command can copy flash
// contents directly into SRAM without re-entering the bus dispatcher.
package flash

import (
	"github.com/user-none/go-chip-rv32/bus"
	"github.com/user-none/go-chip-rv32/peripherals/dma"
	"github.com/user-none/go-chip-rv32/peripherals/regfile"
)

const (
	regSrcOffset = 0x00 // RW: byte offset into the flash image to read from
	regDstOffset = 0x04 // RW: byte offset into SRAM to copy into
	regLength    = 0x08 // RW: byte count
	regControl   = 0x0c // WO: bit0 = start a read-into-SRAM transfer
	regStatus    = 0x10 // RO: bit0 = busy (always 0; transfers are synchronous)

	ctrlStart = 1 << 0
)

// Controller is a flash peripheral with a synchronous DMA-into-SRAM
// read path.
type Controller struct {
	image []byte
	sram  dma.Handle
	regs  *regfile.File
}

// New constructs a flash controller over image, able to copy into the
// SRAM region through sram.
func New(image []byte, sram dma.Handle) *Controller {
	c := &Controller{image: image, sram: sram}
	c.regs = regfile.New([]regfile.Reg{
		{Offset: regSrcOffset, Mask: 0xffffffff, Access: regfile.ReadWrite},
		{Offset: regDstOffset, Mask: 0xffffffff, Access: regfile.ReadWrite},
		{Offset: regLength, Mask: 0xffffffff, Access: regfile.ReadWrite},
		{Offset: regControl, Mask: ctrlStart, Access: regfile.WriteOnly, OnWrite: c.onControl},
		{Offset: regStatus, Access: regfile.ReadOnly, OnRead: func() uint32 { return 0 }},
	})
	return c
}

func (c *Controller) onControl(val uint32) {
	if val&ctrlStart == 0 {
		return
	}
	src := c.regs.Get(regSrcOffset)
	length := c.regs.Get(regLength)
	dst := c.regs.Get(regDstOffset)

	if int(src)+int(length) > len(c.image) {
		return
	}
	c.sram.CopyIn(dst, c.image[src:src+length])
}

// Image exposes the flash backing bytes, e.g. for the MMIO-mapped
// read-only view some flash regions also provide.
func (c *Controller) Image() []byte { return c.image }

func (c *Controller) Read(size bus.Size, addr uint32) (uint32, error) {
	if size != bus.Word || addr%4 != 0 {
		return 0, bus.ErrLoadAddrMisaligned
	}
	return c.regs.Read(addr)
}

func (c *Controller) Write(size bus.Size, addr uint32, val uint32) error {
	if size != bus.Word || addr%4 != 0 {
		return bus.ErrStoreAddrMisaligned
	}
	return c.regs.Write(addr, val)
}

func (c *Controller) Poll() {}

func (c *Controller) WarmReset()   { c.regs.Reset() }
func (c *Controller) UpdateReset() { c.regs.Reset() }
