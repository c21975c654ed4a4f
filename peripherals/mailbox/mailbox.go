// Package mailbox implements the generic inter-CPU mailbox region of
// §3: a command/data register pair plus a doorbell bit, used by the
// recovery protocol and by general MailboxDoorbell signaling between
// the two CPUs' peripheral sets.
package mailbox

import (
	"github.com/user-none/go-chip-rv32/bus"
	"github.com/user-none/go-chip-rv32/events"
	"github.com/user-none/go-chip-rv32/peripherals/regfile"
)

const (
	regCommand  = 0x00 // RW: command code written by the guest
	regData     = 0x04 // RW: single data word (real mailboxes are larger; this core
	                    // models the control-plane doorbell, not a full data FIFO)
	regDoorbell = 0x08 // WO: write 1 to ring the doorbell to the peer
	regStatus   = 0x0c // RO: bit0 = event pending from peer
	regImageLen = 0x10 // RO: length of the most recently received image, if any
)

// Mailbox is the MMIO front-end over an events.Pair connecting this
// CPU's mailbox to its peer's.
type Mailbox struct {
	regs *regfile.File

	tx events.Tx
	rx events.Rx

	pendingImage []byte
}

// New constructs a Mailbox. Event channels are attached later via
// RegisterEventChannels (§3 Peripheral model), since the recovery
// controller's channel pairing is only known once both CPUs'
// peripherals exist (§9's Open Question).
func New() *Mailbox {
	m := &Mailbox{}
	m.regs = regfile.New([]regfile.Reg{
		{Offset: regCommand, Mask: 0xffffffff, Access: regfile.ReadWrite},
		{Offset: regData, Mask: 0xffffffff, Access: regfile.ReadWrite},
		{Offset: regDoorbell, Mask: 0x1, Access: regfile.WriteOnly, OnWrite: m.onDoorbell},
		{Offset: regStatus, Access: regfile.ReadOnly, OnRead: m.onStatus},
		{Offset: regImageLen, Access: regfile.ReadOnly, OnRead: m.onImageLen},
	})
	return m
}

// RegisterEventChannels implements bus.EventChannelPeer.
func (m *Mailbox) RegisterEventChannels(txToPeer events.Tx, rxFromPeer events.Rx, _ events.Tx, _ events.Rx) {
	m.tx = txToPeer
	m.rx = rxFromPeer
}

func (m *Mailbox) onDoorbell(val uint32) {
	if val&1 == 0 || m.tx == nil {
		return
	}
	_ = m.tx.Send(events.Event{Kind: events.MailboxDoorbell})
}

func (m *Mailbox) onStatus() uint32 {
	if m.rx == nil {
		return 0
	}
	if ev, ok := m.rx.TryRecv(); ok {
		switch ev.Kind {
		case events.RecoveryImageAvailable:
			m.pendingImage = ev.Image
		}
		return 1
	}
	return 0
}

func (m *Mailbox) onImageLen() uint32 {
	return uint32(len(m.pendingImage))
}

// TakeImage returns and clears the most recently received recovery
// image payload, for a firmware-delivery consumer above the register
// file.
func (m *Mailbox) TakeImage() []byte {
	img := m.pendingImage
	m.pendingImage = nil
	return img
}

func (m *Mailbox) Read(size bus.Size, addr uint32) (uint32, error) {
	if size != bus.Word || addr%4 != 0 {
		return 0, bus.ErrLoadAddrMisaligned
	}
	return m.regs.Read(addr)
}

func (m *Mailbox) Write(size bus.Size, addr uint32, val uint32) error {
	if size != bus.Word || addr%4 != 0 {
		return bus.ErrStoreAddrMisaligned
	}
	return m.regs.Write(addr, val)
}

func (m *Mailbox) Poll() {}

func (m *Mailbox) WarmReset()   { m.regs.Reset() }
func (m *Mailbox) UpdateReset() { m.regs.Reset() }
