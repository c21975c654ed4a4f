// Package uart is the MMIO-visible UART peripheral of §3/§4.K: a TX
// register forwarding to uartio.Output and an RX register draining a
// uartio.Mailbox, plus a status register reporting RX-data-available.
package uart

import (
	"github.com/user-none/go-chip-rv32/bus"
	"github.com/user-none/go-chip-rv32/peripherals/regfile"
	"github.com/user-none/go-chip-rv32/uartio"
)

const (
	regTX     = 0x00 // WO: byte to transmit (low 8 bits)
	regRX     = 0x04 // RO: next received byte, or 0 with status bit 0 if none
	regStatus = 0x08 // RO: bit0 = RX data available

	statusRXReady = 1 << 0
)

// UART is the peripheral model. It owns no goroutines; Output/Mailbox
// are shared with the uartio package's background stdin reader.
type UART struct {
	out *uartio.Output
	in  *uartio.Mailbox

	regs *regfile.File
}

// New constructs a UART peripheral forwarding TX to out and draining RX
// from in.
func New(out *uartio.Output, in *uartio.Mailbox) *UART {
	u := &UART{out: out, in: in}
	u.regs = regfile.New([]regfile.Reg{
		{Offset: regTX, Mask: 0xff, Access: regfile.WriteOnly, OnWrite: u.onTX},
		{Offset: regRX, Mask: 0, Access: regfile.ReadOnly, OnRead: u.onRX},
		{Offset: regStatus, Mask: 0, Access: regfile.ReadOnly, OnRead: u.onStatus},
	})
	return u
}

func (u *UART) onTX(val uint32) {
	_ = u.out.WriteByte(byte(val))
}

func (u *UART) onRX() uint32 {
	b, ok := u.in.Take()
	if !ok {
		return 0
	}
	return uint32(b)
}

func (u *UART) onStatus() uint32 {
	if u.in.Peek() {
		return statusRXReady
	}
	return 0
}

func (u *UART) Read(size bus.Size, addr uint32) (uint32, error) {
	if size != bus.Word || addr%4 != 0 {
		return 0, bus.ErrLoadAddrMisaligned
	}
	return u.regs.Read(addr)
}

func (u *UART) Write(size bus.Size, addr uint32, val uint32) error {
	if size != bus.Word || addr%4 != 0 {
		return bus.ErrStoreAddrMisaligned
	}
	return u.regs.Write(addr, val)
}

func (u *UART) Poll() {}

func (u *UART) WarmReset()   { u.regs.Reset() }
func (u *UART) UpdateReset() { u.regs.Reset() }
