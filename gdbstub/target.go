// Package gdbstub implements the debugger adapter of §4.I: a front-end
// to the standard GDB remote serial protocol for 32-bit RISC-V, owning
// the MCU stepper (not the root-of-trust CPU). Grounded on
// original_source's emulator/app/src/gdb/gdb_target.rs GdbTarget,
// translating its ExecMode Step/Continue split and bounded continue
// loop from the Rust gdbstub crate's callback model into a plain
// request/response server over net.Conn.
package gdbstub

import (
	"github.com/rs/zerolog"

	"github.com/user-none/go-chip-rv32/bus"
	"github.com/user-none/go-chip-rv32/stepper"
)

// ExecMode mirrors gdb_target.rs's ExecMode: whether the next `run`
// takes a single step or runs free until a stop condition.
type ExecMode int

const (
	ModeStep ExecMode = iota
	ModeContinue
)

// StopReason mirrors gdbstub's SingleThreadStopReason, restricted to
// the variants §4.I names: DoneStep, SwBreak, Watch, Signal, Exited.
type StopReason int

const (
	DoneStep StopReason = iota
	SwBreak
	Watch
	SignalStop
	Exited
)

func (r StopReason) String() string {
	switch r {
	case DoneStep:
		return "DoneStep"
	case SwBreak:
		return "SwBreak"
	case Watch:
		return "Watch"
	case SignalStop:
		return "Signal"
	case Exited:
		return "Exited"
	default:
		return "Unknown"
	}
}

// continueStepLimit bounds a single continue call, per §4.I: "a bounded
// loop (<=N step calls, e.g. 1000) that periodically yields a synthetic
// SIGALRM-class stop".
const continueStepLimit = 1000

// Target wraps an MCU stepper.Stepper with the exec-mode/breakpoint
// bookkeeping the RSP server needs. It does not own the root-of-trust
// CPU (§4.I).
type Target struct {
	log zerolog.Logger

	mcu     *stepper.Stepper
	mode    ExecMode
	interruptRequested bool
}

// New constructs a Target over mcu.
func New(log zerolog.Logger, mcu *stepper.Stepper) *Target {
	return &Target{log: log, mcu: mcu, mode: ModeContinue}
}

// SetMode switches between single-step and continue execution modes.
func (t *Target) SetMode(m ExecMode) { t.mode = m }

// RequestInterrupt records a user-issued break (Ctrl+C over RSP),
// honored at the top of the next step/continue cycle.
func (t *Target) RequestInterrupt() { t.interruptRequested = true }

// Run executes according to the current exec mode and returns the stop
// reason, mirroring gdb_target.rs's `run`.
func (t *Target) Run() StopReason {
	if t.mode == ModeStep {
		t.mcu.Step()
		return DoneStep
	}
	return t.condRun()
}

// condRun is the bounded continue loop of §4.I / gdb_target.rs's
// cond_run: step up to continueStepLimit times, stopping early on a
// breakpoint, watchpoint, or pending interrupt. If the bound is reached
// without a real stop condition it returns SignalStop, the same reason a
// user interrupt produces; the server reports both as S02 (SIGINT) and
// does not resume on its own.
func (t *Target) condRun() StopReason {
	for i := 0; i < continueStepLimit; i++ {
		if t.interruptRequested {
			t.interruptRequested = false
			return SignalStop
		}

		reason := t.mcu.Step()
		switch reason {
		case stepper.BreakSW:
			t.log.Debug().Uint32("pc", t.mcu.PC()).Msg("gdb: hit breakpoint")
			return SwBreak
		case stepper.BreakWatch:
			return Watch
		case stepper.Exit:
			return Exited
		}
	}
	// Bound reached with no stop condition: hand control back to the
	// server (§9 "Debugger responsiveness").
	return SignalStop
}

// AddBreakpoint installs a software breakpoint.
func (t *Target) AddBreakpoint(addr uint32) { t.mcu.AddBreakpoint(addr) }

// RemoveBreakpoint removes a software breakpoint.
func (t *Target) RemoveBreakpoint(addr uint32) { t.mcu.RemoveBreakpoint(addr) }

// AddWatchpoint installs a hardware watchpoint.
func (t *Target) AddWatchpoint(addr, length uint32, dir stepper.WatchDirection) {
	t.mcu.AddWatchpoint(addr, length, dir)
}

// RemoveWatchpoint removes a hardware watchpoint.
func (t *Target) RemoveWatchpoint(addr, length uint32, dir stepper.WatchDirection) {
	t.mcu.RemoveWatchpoint(addr, length, dir)
}

// ReadRegisters returns PC followed by x0..x31, the layout the RSP `g`
// packet reports for 32-bit RISC-V (§4.I).
func (t *Target) ReadRegisters() [33]uint32 {
	var regs [33]uint32
	regs[0] = t.mcu.PC()
	for i := 0; i < 32; i++ {
		regs[i+1] = t.mcu.Register(i)
	}
	return regs
}

// WriteRegisters applies a `G` packet's register set in the same layout
// ReadRegisters reports.
func (t *Target) WriteRegisters(regs [33]uint32) {
	t.mcu.SetPC(regs[0])
	for i := 0; i < 32; i++ {
		t.mcu.SetRegister(i, regs[i+1])
	}
}

// ReadMemory performs a byte-widened bus read for the RSP `m` packet:
// individual bytes are read one at a time through the word-granularity
// bus, per §4.I "memory read/write via word-granularity bus accesses
// (byte-widened)".
func (t *Target) ReadMemory(addr uint32, length int) ([]byte, error) {
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		v, err := t.mcu.ReadBus(bus.Byte, addr+uint32(i))
		if err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}
	return out, nil
}

// WriteMemory performs a byte-widened bus write for the RSP `M` packet.
func (t *Target) WriteMemory(addr uint32, data []byte) error {
	for i, b := range data {
		if err := t.mcu.WriteBus(bus.Byte, addr+uint32(i), uint32(b)); err != nil {
			return err
		}
	}
	return nil
}
