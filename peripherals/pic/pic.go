// Package pic is the MMIO front-end for the interrupt controller of
// §4.B/§3 ("PIC (interrupt controller)" region): per-line enable and
// pending/claim registers over the shared irq.Controller model.
package pic

import (
	"github.com/user-none/go-chip-rv32/bus"
	"github.com/user-none/go-chip-rv32/irq"
)

const (
	regEnableBase  = 0x000 // one word per line, bit0 = enabled
	regPendingBase = 0x100 // one word per line, RO, bit0 = pending
	regClaimBase   = 0x200 // one word per line, write-1-to-clear
	linesPerBank   = 64
	bankStride     = 4
)

// PIC wraps an irq.Controller with the MMIO register layout above.
type PIC struct {
	ctrl *irq.Controller
}

// New constructs a PIC front-ending ctrl.
func New(ctrl *irq.Controller) *PIC {
	return &PIC{ctrl: ctrl}
}

func (p *PIC) Read(size bus.Size, addr uint32) (uint32, error) {
	if size != bus.Word || addr%4 != 0 {
		return 0, bus.ErrLoadAddrMisaligned
	}
	switch {
	case addr >= regEnableBase && addr < regEnableBase+linesPerBank*bankStride:
		line := irq.Line((addr - regEnableBase) / bankStride)
		return b2u(p.ctrl.Enabled(line)), nil
	case addr >= regPendingBase && addr < regPendingBase+linesPerBank*bankStride:
		line := irq.Line((addr - regPendingBase) / bankStride)
		return b2u(p.ctrl.Pending(line)), nil
	default:
		return 0, bus.ErrLoadAccessFault
	}
}

func (p *PIC) Write(size bus.Size, addr uint32, val uint32) error {
	if size != bus.Word || addr%4 != 0 {
		return bus.ErrStoreAddrMisaligned
	}
	switch {
	case addr >= regEnableBase && addr < regEnableBase+linesPerBank*bankStride:
		line := irq.Line((addr - regEnableBase) / bankStride)
		p.ctrl.SetEnabled(line, val&1 != 0)
		return nil
	case addr >= regClaimBase && addr < regClaimBase+linesPerBank*bankStride:
		line := irq.Line((addr - regClaimBase) / bankStride)
		if val&1 != 0 {
			p.ctrl.Clear(line)
		}
		return nil
	default:
		return bus.ErrStoreAccessFault
	}
}

func (p *PIC) Poll() {}

func (p *PIC) WarmReset()   { p.ctrl.WarmReset() }
func (p *PIC) UpdateReset() { p.ctrl.UpdateReset() }

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
