// Package mci models the management control interface region of §3,
// plus the §12 supplemented features grounded on original_source's
// romtime/src/mci.rs and emulator/periph/src/reset_reason.rs: a
// reset-reason capture register and two chained watchdog timers.
package mci

import (
	"github.com/user-none/go-chip-rv32/bus"
	"github.com/user-none/go-chip-rv32/clock"
	"github.com/user-none/go-chip-rv32/peripherals/regfile"
)

// ResetReason distinguishes why the subsystem last came out of reset.
type ResetReason uint32

const (
	ColdBoot ResetReason = iota
	WarmReset
	FirmwareBootUpdate
	FirmwareHitlessUpdate
)

const (
	regResetReason = 0x00 // RO
	regFlagsSet    = 0x04 // WO: set firmware-ready and other status flags
	regFlags       = 0x08 // RO: current flag bits
	regWDT1Period  = 0x0c // RW: ticks until WDT1 expiry (0 disables)
	regWDT2Period  = 0x10 // RW: ticks until WDT2 expiry after WDT1 fires (0 disables)
	regWDTStatus   = 0x14 // RO: bit0 = WDT1 expired, bit1 = WDT2 expired

	flagFirmwareReady = 1 << 0

	wdtSourceName = "mci-wdt"
)

// MCI is the management control interface peripheral.
type MCI struct {
	regs *regfile.File
	clk  *clock.Clock

	reason      ResetReason
	steppedOnce bool // whether step() has run at least once, per §9's open question resolution

	wdt1Period uint32
	wdt2Period uint32
	wdt1Armed  bool
	wdt2Armed  bool
	wdt1Fired  bool
	wdt2Fired  bool
}

// New constructs an MCI peripheral. clk is shared with the rest of the
// system for watchdog scheduling.
func New(clk *clock.Clock) *MCI {
	m := &MCI{clk: clk, reason: ColdBoot}
	m.regs = regfile.New([]regfile.Reg{
		{Offset: regResetReason, Access: regfile.ReadOnly, OnRead: func() uint32 { return uint32(m.reason) }},
		{Offset: regFlagsSet, Mask: 0xffffffff, Access: regfile.WriteOnly, OnWrite: m.onFlagsSet},
		{Offset: regFlags, Access: regfile.ReadOnly, OnRead: func() uint32 { return m.regs.Get(regFlags) }},
		{Offset: regWDT1Period, Mask: 0xffffffff, Access: regfile.ReadWrite, OnWrite: m.onWDT1Period},
		{Offset: regWDT2Period, Mask: 0xffffffff, Access: regfile.ReadWrite, OnWrite: m.onWDT2Period},
		{Offset: regWDTStatus, Access: regfile.ReadOnly, OnRead: m.onWDTStatus},
	})
	return m
}

func (m *MCI) onFlagsSet(val uint32) {
	cur := m.regs.Get(regFlags)
	m.regs.Set(regFlags, cur|val)
}

// FirmwareReady reports whether the firmware-ready flag is set, the
// condition S1 of §8 steps until.
func (m *MCI) FirmwareReady() bool {
	return m.regs.Get(regFlags)&flagFirmwareReady != 0
}

func (m *MCI) onWDT1Period(val uint32) {
	m.wdt1Period = val
	if val == 0 {
		m.wdt1Armed = false
		m.clk.CancelWakeup(wdtSourceName)
		return
	}
	m.wdt1Armed = true
	m.wdt1Fired = false
	m.clk.SleepTicks(wdtSourceName, uint64(val))
}

func (m *MCI) onWDT2Period(val uint32) {
	m.wdt2Period = val
}

func (m *MCI) onWDTStatus() uint32 {
	var v uint32
	if m.wdt1Fired {
		v |= 1 << 0
	}
	if m.wdt2Fired {
		v |= 1 << 1
	}
	return v
}

// Poll checks watchdog expiry. WDT1 firing, if WDT2 is configured,
// chains into arming WDT2 (§12 "WDT1 -> WDT2 on expiry").
func (m *MCI) Poll() {
	if m.wdt1Armed && m.clk.Due(wdtSourceName) {
		m.wdt1Armed = false
		m.wdt1Fired = true
		m.clk.CancelWakeup(wdtSourceName)
		if m.wdt2Period != 0 {
			m.wdt2Armed = true
			m.clk.SleepTicks(wdtSourceName, uint64(m.wdt2Period))
		}
		return
	}
	if m.wdt2Armed && m.clk.Due(wdtSourceName) {
		m.wdt2Armed = false
		m.wdt2Fired = true
		m.clk.CancelWakeup(wdtSourceName)
	}
}

// MarkStepped records that the system has taken at least one step, used
// to gate WarmReset's reset-reason latching per §9's resolved open
// question.
func (m *MCI) MarkStepped() { m.steppedOnce = true }

func (m *MCI) Read(size bus.Size, addr uint32) (uint32, error) {
	if size != bus.Word || addr%4 != 0 {
		return 0, bus.ErrLoadAddrMisaligned
	}
	return m.regs.Read(addr)
}

func (m *MCI) Write(size bus.Size, addr uint32, val uint32) error {
	if size != bus.Word || addr%4 != 0 {
		return bus.ErrStoreAddrMisaligned
	}
	return m.regs.Write(addr, val)
}

// WarmReset resets register state and, per §9's resolved open question,
// only latches ResetReason = WarmReset when a step() has already
// occurred; a warm reset issued during initialization (before any step)
// leaves the reason at ColdBoot.
func (m *MCI) WarmReset() {
	m.regs.Reset()
	m.wdt1Armed = false
	m.wdt2Armed = false
	m.wdt1Fired = false
	m.wdt2Fired = false
	m.clk.CancelWakeup(wdtSourceName)
	if m.steppedOnce {
		m.reason = WarmReset
	}
}

func (m *MCI) UpdateReset() {
	m.WarmReset()
	m.reason = FirmwareHitlessUpdate
}
