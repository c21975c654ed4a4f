package rv32

import "errors"

// TrapKind enumerates the RISC-V machine-mode exception causes this core
// can raise. Interrupts (external, timer) are delivered by the same
// mechanism but are not represented here; they don't retire an
// instruction, they redirect before one is fetched (see checkInterrupt).
type TrapKind uint8

const (
	TrapNone TrapKind = iota
	TrapInstrAddrMisaligned
	TrapInstrAccessFault
	TrapIllegalInstr
	TrapBreakpoint
	TrapLoadAddrMisaligned
	TrapLoadAccessFault
	TrapStoreAddrMisaligned
	TrapStoreAccessFault
	TrapEcall
	// TrapWatchpoint is not a RISC-V exception: it signals that a bus
	// access matched an installed hardware watchpoint (§4.E(a)). It never
	// reaches takeTrap -- the stepper intercepts it and reports
	// BreakWatch without redirecting the PC or touching CSR state, so the
	// instruction is left not-executed rather than trapped.
	TrapWatchpoint
)

func (t TrapKind) mcause() uint32 {
	switch t {
	case TrapInstrAddrMisaligned:
		return 0
	case TrapInstrAccessFault:
		return 1
	case TrapIllegalInstr:
		return 2
	case TrapBreakpoint:
		return 3
	case TrapLoadAddrMisaligned:
		return 4
	case TrapLoadAccessFault:
		return 5
	case TrapStoreAddrMisaligned:
		return 6
	case TrapStoreAccessFault:
		return 7
	case TrapEcall:
		return 11
	default:
		return 0xff
	}
}

// Bus-facing sentinel errors. A Bus implementation returns one of these
// from Read/Write so the core can classify the fault; anything else is
// treated as TrapLoadAccessFault/TrapStoreAccessFault.
var (
	ErrLoadAccessFault    = errors.New("rv32: load access fault")
	ErrLoadAddrMisaligned = errors.New("rv32: load address misaligned")

	ErrStoreAccessFault    = errors.New("rv32: store access fault")
	ErrStoreAddrMisaligned = errors.New("rv32: store address misaligned")

	// ErrWatchpoint is returned by a Bus when the access address matched
	// an installed watchpoint; the core treats it as an abort rather
	// than classifying it through classifyLoadErr/classifyStoreErr.
	ErrWatchpoint = errors.New("rv32: watchpoint hit")
)

func classifyLoadErr(err error) TrapKind {
	switch {
	case errors.Is(err, ErrLoadAddrMisaligned):
		return TrapLoadAddrMisaligned
	default:
		return TrapLoadAccessFault
	}
}

func classifyStoreErr(err error) TrapKind {
	switch {
	case errors.Is(err, ErrStoreAddrMisaligned):
		return TrapStoreAddrMisaligned
	default:
		return TrapStoreAccessFault
	}
}
