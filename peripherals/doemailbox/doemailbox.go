// Package doemailbox is the MMIO front-end over §4.G's DOE/SPDM
// Transport: the DOE mailbox region guest firmware programs to send and
// receive data objects. Like peripherals/mailbox's generic doorbell
// window, this models the control-plane register set (header, length,
// go bit, status) plus a fixed-capacity word window for the payload,
// not a full hardware FIFO.
package doemailbox

import (
	"github.com/user-none/go-chip-rv32/bus"
	"github.com/user-none/go-chip-rv32/doe"
	"github.com/user-none/go-chip-rv32/peripherals/regfile"
)

// payloadWords bounds the data object payload this MMIO window can
// stage in either direction; larger SPDM exchanges are expected to be
// chunked by the capsule consumer above this peripheral, which is out
// of scope per §1.
const payloadWords = 32

const (
	regControl    = 0x00 // WO: write 1 to transmit the staged header+payload
	regVendorType = 0x04 // RW: vendor id (low 16 bits) | data-object-type (high 16 bits)
	regLengthDW   = 0x08 // RW: staged length in double-words, header included
	regStatus     = 0x0c // RO: bit0 = busy (always 0; transmit completes within the write), bit1 = last transmit errored
	regRxLengthDW = 0x10 // RO: length in double-words of the most recently received object
	regPayloadBase = 0x40 // payloadWords consecutive RW registers, the staged/received payload
)

// DOEMailbox is the peripheral model wrapping a doe.Transport.
type DOEMailbox struct {
	transport *doe.Transport
	regs      *regfile.File

	txPayload []uint32
	rxPayload []uint32
	lastErr   bool
}

// New constructs a DOEMailbox peripheral around a fresh doe.Transport.
func New() *DOEMailbox {
	d := &DOEMailbox{txPayload: make([]uint32, payloadWords)}
	d.transport = doe.New()
	d.transport.SetOnReceive(d.onReceive)
	d.transport.SetOnSendDone(d.onSendDone)

	regs := []regfile.Reg{
		{Offset: regControl, Mask: 0x1, Access: regfile.WriteOnly, OnWrite: d.onControl},
		{Offset: regVendorType, Mask: 0xffffffff, Access: regfile.ReadWrite},
		{Offset: regLengthDW, Mask: 0xffffffff, Access: regfile.ReadWrite},
		{Offset: regStatus, Access: regfile.ReadOnly, OnRead: d.onStatus},
		{Offset: regRxLengthDW, Access: regfile.ReadOnly, OnRead: d.onRxLength},
	}
	for i := 0; i < payloadWords; i++ {
		off := uint32(regPayloadBase + 4*i)
		idx := i
		regs = append(regs, regfile.Reg{
			Offset:  off,
			Mask:    0xffffffff,
			Access:  regfile.ReadWrite,
			OnWrite: func(val uint32) { d.txPayload[idx] = val },
			OnRead:  func() uint32 { return d.rxWord(idx) },
		})
	}
	d.regs = regfile.New(regs)
	return d
}

func (d *DOEMailbox) rxWord(idx int) uint32 {
	if idx >= len(d.rxPayload) {
		return 0
	}
	return d.rxPayload[idx]
}

// onControl transmits the currently staged header and payload, per
// §4.G's single-in-flight-sender contract.
func (d *DOEMailbox) onControl(val uint32) {
	if val&1 == 0 {
		return
	}
	vendorType := d.regs.Get(regVendorType)
	lengthDW := d.regs.Get(regLengthDW)
	hdr := doe.Header{
		VendorID: uint16(vendorType & 0xffff),
		Type:     doe.DataObjectType(vendorType >> 16),
		LengthDW: lengthDW,
	}
	n := lengthDW
	if n > 2 {
		n -= 2
	} else {
		n = 0
	}
	if int(n) > len(d.txPayload) {
		n = uint32(len(d.txPayload))
	}
	d.lastErr = d.transport.Transmit(hdr, d.txPayload[:n]) != nil
}

// onReceive stages an inbound (or in-transport-answered discovery)
// object for the guest to read back via the payload window.
func (d *DOEMailbox) onReceive(buf []uint32, lengthDW uint32) {
	d.rxPayload = append([]uint32(nil), buf...)
	d.regs.Set(regRxLengthDW, lengthDW)
}

func (d *DOEMailbox) onSendDone(err error) {
	d.lastErr = err != nil
}

func (d *DOEMailbox) onStatus() uint32 {
	var s uint32
	if d.lastErr {
		s |= 1 << 1
	}
	return s
}

func (d *DOEMailbox) onRxLength() uint32 {
	return d.regs.Get(regRxLengthDW)
}

// SetRxBuffer forwards to the underlying transport (§4.G
// "set_rx_buffer(buffer)"), for a capsule consumer that wants to hand
// back its own reassembly buffer rather than use the register window.
func (d *DOEMailbox) SetRxBuffer(buf []uint32) { d.transport.SetRxBuffer(buf) }

// SetOnReceive lets a higher-layer SPDM capsule consumer observe
// inbound objects directly, bypassing the register window.
func (d *DOEMailbox) SetOnReceive(cb doe.OnReceive) { d.transport.SetOnReceive(cb) }

func (d *DOEMailbox) Read(size bus.Size, addr uint32) (uint32, error) {
	if size != bus.Word || addr%4 != 0 {
		return 0, bus.ErrLoadAddrMisaligned
	}
	return d.regs.Read(addr)
}

func (d *DOEMailbox) Write(size bus.Size, addr uint32, val uint32) error {
	if size != bus.Word || addr%4 != 0 {
		return bus.ErrStoreAddrMisaligned
	}
	return d.regs.Write(addr, val)
}

func (d *DOEMailbox) Poll() {}

func (d *DOEMailbox) WarmReset() {
	d.regs.Reset()
	d.rxPayload = nil
	d.lastErr = false
}

func (d *DOEMailbox) UpdateReset() { d.WarmReset() }
