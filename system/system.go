// Package system implements the System Step Loop of §4.H: each outer
// tick advances the MCU CPU, the root-of-trust CPU, the recovery
// controller, and the clock, in that fixed order, and surfaces the
// strongest stop reason across both CPUs.
package system

import (
	"github.com/rs/zerolog"

	"github.com/user-none/go-chip-rv32/clock"
	"github.com/user-none/go-chip-rv32/recovery"
	"github.com/user-none/go-chip-rv32/stepper"
)

// StepResult is the outer-tick result the debugger adapter and CLI
// loop observe. Precedence when combining the two CPUs' individual
// stop reasons is Exit > Break > Continue (§4.H).
type StepResult int

const (
	ResultContinue StepResult = iota
	ResultBreak
	ResultExit
)

func (r StepResult) String() string {
	switch r {
	case ResultContinue:
		return "Continue"
	case ResultBreak:
		return "Break"
	case ResultExit:
		return "Exit"
	default:
		return "Unknown"
	}
}

// System wires the two CPU steppers, the recovery controller, and the
// clock into the ordered tick of §4.H and §5 ("for a single tick,
// peripheral effects become visible in this order: MCU CPU, then
// root-of-trust CPU, then recovery controller, then timer advance").
type System struct {
	log zerolog.Logger

	mcu *stepper.Stepper
	rot *stepper.Stepper
	rec *recovery.Controller
	clk *clock.Clock

	uartByteQueued bool // rescheduling hint for stdin polling, §4.H
}

// New constructs a System. rec may be nil if the recovery controller
// hasn't been wired yet (e.g. unit tests exercising only the CPUs).
func New(log zerolog.Logger, mcu, rot *stepper.Stepper, rec *recovery.Controller, clk *clock.Clock) *System {
	return &System{log: log, mcu: mcu, rot: rot, rec: rec, clk: clk}
}

// NotifyUARTByte marks that a byte was queued on the UART input
// channel, causing stdin polling to be rescheduled on the next tick
// (§4.H).
func (s *System) NotifyUARTByte() { s.uartByteQueued = true }

// Tick advances one system step and returns the combined result.
func (s *System) Tick() StepResult {
	mcuReason := s.mcu.Step()

	var rotReason stepper.StopReason = stepper.Continue
	if s.rot != nil {
		rotReason = s.rot.Step()
		if rotReason == stepper.Exit {
			// §4.H: "the root-of-trust CPU halting does not exit the
			// system; it is logged and demoted to Continue."
			s.log.Warn().Msg("root-of-trust cpu halted; demoting to continue")
			rotReason = stepper.Continue
		}
	}

	if s.rec != nil {
		s.rec.Step()
	}

	s.clk.Advance()

	if s.uartByteQueued {
		s.clk.CancelWakeup("stdin")
		s.uartByteQueued = false
	}

	return combine(mcuReason, rotReason)
}

func combine(mcu, rot stepper.StopReason) StepResult {
	strongest := strongerOf(toResult(mcu), toResult(rot))
	return strongest
}

func toResult(r stepper.StopReason) StepResult {
	switch r {
	case stepper.Exit:
		return ResultExit
	case stepper.BreakSW, stepper.BreakWatch:
		return ResultBreak
	default:
		return ResultContinue
	}
}

func strongerOf(a, b StepResult) StepResult {
	if a > b {
		return a
	}
	return b
}

// MCU exposes the MCU stepper, e.g. for the debugger adapter which owns
// the MCU specifically, not the root-of-trust CPU (§4.I).
func (s *System) MCU() *stepper.Stepper { return s.mcu }

// RoT exposes the root-of-trust CPU stepper.
func (s *System) RoT() *stepper.Stepper { return s.rot }

// Clock exposes the shared clock.
func (s *System) Clock() *clock.Clock { return s.clk }
