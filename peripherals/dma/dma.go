// Package dma implements the shared DMA-access handle of §4.C(b): a
// handle that lets bus-master peripherals (flash controllers) reach
// into SRAM without re-entering the bus dispatcher, plus a small MMIO
// front-end register file for software-triggered transfers.
package dma

import (
	"github.com/rs/zerolog"

	"github.com/user-none/go-chip-rv32/bus"
	"github.com/user-none/go-chip-rv32/peripherals/regfile"
)

// Handle grants direct byte-slice access to a memory region's backing
// array, bypassing RootBus.Read/Write. Per §9's "arena storage" design
// note, this is the systems-language "exclusive borrow for the
// duration of one access" collapsed to Go's ordinary slice aliasing:
// the handle's owner (the DMA peripheral, or a flash controller with
// its own handle) must not retain it across a call that could
// re-enter the same memory, since nothing here enforces exclusivity at
// runtime.
type Handle struct {
	mem *bus.MemoryPeripheral
}

// NewHandle wraps mem for bus-master access.
func NewHandle(mem *bus.MemoryPeripheral) Handle { return Handle{mem: mem} }

// CopyIn copies src into the backing array starting at byte offset off.
func (h Handle) CopyIn(off uint32, src []byte) {
	dst := h.mem.Bytes()
	copy(dst[off:], src)
}

// CopyOut copies length bytes starting at off out of the backing array.
func (h Handle) CopyOut(off uint32, length uint32) []byte {
	src := h.mem.Bytes()
	out := make([]byte, length)
	copy(out, src[off:off+length])
	return out
}

// Register offsets for the software-triggered DMA front-end.
const (
	regSrcAddr = 0x00
	regDstAddr = 0x04
	regLength  = 0x08
	regControl = 0x0c // bit0: start (write 1 runs the transfer within the write); bit1 (busy) always reads 0

	ctrlStart = 1 << 0
	ctrlBusy  = 1 << 1
)

// Controller is the MMIO-visible DMA engine: software programs
// src/dst/length then writes Start, and the controller performs a
// synchronous copy between two memory-backed Handles (it has no notion
// of in-flight latency; Poll is a no-op since the transfer already
// completed by the time Start's write returns).
type Controller struct {
	log  zerolog.Logger
	regs *regfile.File
	src  Handle
	dst  Handle
}

// New constructs a DMA controller moving bytes between src and dst.
func New(log zerolog.Logger, src, dst Handle) *Controller {
	c := &Controller{log: log, src: src, dst: dst}
	c.regs = regfile.New([]regfile.Reg{
		{Offset: regSrcAddr, Mask: 0xffffffff, Access: regfile.ReadWrite},
		{Offset: regDstAddr, Mask: 0xffffffff, Access: regfile.ReadWrite},
		{Offset: regLength, Mask: 0xffffffff, Access: regfile.ReadWrite},
		{Offset: regControl, Mask: ctrlStart, Access: regfile.ReadWrite, OnWrite: c.onControl},
	})
	return c
}

func (c *Controller) onControl(val uint32) {
	if val&ctrlStart == 0 {
		return
	}
	src := c.regs.Get(regSrcAddr)
	dst := c.regs.Get(regDstAddr)
	length := c.regs.Get(regLength)
	data := c.src.CopyOut(src, length)
	c.dst.CopyIn(dst, data)
	c.log.Debug().Uint32("src", src).Uint32("dst", dst).Uint32("len", length).Msg("dma transfer complete")
}

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
