// Package stepper implements the CPU Stepper of §4.E: a thin wrapper
// around core.CPU that adds breakpoint and watchpoint bookkeeping and
// reports a single StopReason per instruction advance, in the
// precedence order the system step loop and debugger adapter expect.
package stepper

import (
	"github.com/user-none/go-chip-rv32/bus"
	core "github.com/user-none/go-chip-rv32/core"
)

// StopReason classifies why Step returned.
type StopReason int

const (
	// Continue means the instruction retired normally; the caller should
	// keep stepping.
	Continue StopReason = iota
	// BreakSW means the new PC landed on an installed software breakpoint.
	BreakSW
	// BreakWatch means a pending load/store matched an installed
	// watchpoint; the instruction was NOT executed.
	BreakWatch
	// Exit means the instruction raised an illegal-instruction trap (a
	// fatal decode error). Other traps are taken into the guest's trap
	// vector and report Continue.
	Exit
)

func (r StopReason) String() string {
	switch r {
	case Continue:
		return "Continue"
	case BreakSW:
		return "BreakSW"
	case BreakWatch:
		return "BreakWatch"
	case Exit:
		return "Exit"
	default:
		return "Unknown"
	}
}

// WatchDirection is the access kind a watchpoint triggers on.
type WatchDirection int

const (
	WatchRead WatchDirection = iota
	WatchWrite
	WatchAccess // either read or write
)

type watchpoint struct {
	addr   uint32
	length uint32
	dir    WatchDirection
}

// Stepper wraps a core.CPU with the breakpoint/watchpoint sets and stop
// reporting described in §4.E. It owns no bus of its own; the bus is
// supplied at construction and shared with whatever else addresses the
// same region table.
type Stepper struct {
	cpu          *core.CPU
	bus          *bus.RootBus
	breakpoints  map[uint32]struct{}
	watchpoints  []watchpoint
	lastTrap     core.TrapKind
}

// New wraps cpu, which must already be bound to b via core.New(b). New
// installs a watch hook on b so a load/store matching an installed
// watchpoint aborts the instruction before it reaches any peripheral
// (§4.E(a)); only one stepper may own a given bus this way.
func New(cpu *core.CPU, b *bus.RootBus) *Stepper {
	s := &Stepper{
		cpu:         cpu,
		bus:         b,
		breakpoints: make(map[uint32]struct{}),
	}
	b.SetWatchHook(s.checkWatch)
	return s
}

// checkWatch is the bus.WatchHook installed by New: it reports whether
// the pending access matches any installed watchpoint.
func (s *Stepper) checkWatch(size bus.Size, addr uint32, write bool) bool {
	dir := WatchRead
	if write {
		dir = WatchWrite
	}
	return s.PeekWatch(addr, uint32(size), dir)
}

// AddBreakpoint installs a software breakpoint at a word address.
func (s *Stepper) AddBreakpoint(addr uint32) { s.breakpoints[addr] = struct{}{} }

// RemoveBreakpoint removes a previously installed breakpoint; removing
// one that was never set is a no-op (invariant 5 of §8: insert-then-
// remove is indistinguishable from never inserting).
func (s *Stepper) RemoveBreakpoint(addr uint32) { delete(s.breakpoints, addr) }

// HasBreakpoint reports whether addr currently carries a breakpoint.
func (s *Stepper) HasBreakpoint(addr uint32) bool {
	_, ok := s.breakpoints[addr]
	return ok
}

// AddWatchpoint installs a hardware watchpoint over [addr, addr+length).
func (s *Stepper) AddWatchpoint(addr, length uint32, dir WatchDirection) {
	s.watchpoints = append(s.watchpoints, watchpoint{addr: addr, length: length, dir: dir})
}

// RemoveWatchpoint drops the first watchpoint matching the triple
// exactly; a non-matching removal is a no-op.
func (s *Stepper) RemoveWatchpoint(addr, length uint32, dir WatchDirection) {
	for i, w := range s.watchpoints {
		if w.addr == addr && w.length == length && w.dir == dir {
			s.watchpoints = append(s.watchpoints[:i], s.watchpoints[i+1:]...)
			return
		}
	}
}

func (w watchpoint) matches(addr uint32, size uint32, dir WatchDirection) bool {
	if w.dir != WatchAccess && w.dir != dir {
		return false
	}
	wEnd := w.addr + w.length
	aEnd := addr + size
	return addr < wEnd && w.addr < aEnd
}

// PeekWatch reports whether any installed watchpoint matches [addr,
// addr+size) in direction dir. It backs the bus.WatchHook installed by
// New, which the root bus consults on every load/store before routing to
// a peripheral (§4.E(a)); it's also exported directly for callers that
// want to probe a watchpoint set without driving a step.
func (s *Stepper) PeekWatch(addr uint32, size uint32, dir WatchDirection) bool {
	for _, w := range s.watchpoints {
		if w.matches(addr, size, dir) {
			return true
		}
	}
	return false
}

// Step advances the CPU by exactly one instruction and reports the
// strongest applicable stop reason, per §4.E: BreakWatch if the pending
// load/store matched an installed watchpoint (the instruction is left
// not-executed), Exit on an illegal-instruction trap, BreakSW if the new PC lands on an
// installed breakpoint, Continue otherwise.
func (s *Stepper) Step() StopReason {
	_, trap := s.cpu.Step()
	s.lastTrap = trap

	if trap == core.TrapWatchpoint {
		return BreakWatch
	}

	if trap == core.TrapIllegalInstr {
		return Exit
	}

	if s.breakpoints != nil {
		if _, hit := s.breakpoints[s.cpu.PC()]; hit {
			return BreakSW
		}
	}

	return Continue
}

// PC returns the stepper's current program counter.
func (s *Stepper) PC() uint32 { return s.cpu.PC() }

// SetPC overrides the program counter, e.g. for a debugger register write.
func (s *Stepper) SetPC(pc uint32) { s.cpu.SetPC(pc) }

// Register reads general-purpose register i (x0..x31).
func (s *Stepper) Register(i int) uint32 { return s.cpu.Register(i) }

// SetRegister writes general-purpose register i.
func (s *Stepper) SetRegister(i int, v uint32) { s.cpu.SetRegister(i, v) }

// ReadBus performs a debugger-initiated memory read through the shared
// bus, byte-widened as needed (§4.I). It bypasses installed watchpoints,
// which fire on the guest's own pending loads/stores, not on the
// debugger's memory inspection.
func (s *Stepper) ReadBus(size bus.Size, addr uint32) (uint32, error) {
	return s.bus.DebugRead(size, addr)
}

// WriteBus performs a debugger-initiated memory write through the
// shared bus, bypassing installed watchpoints for the same reason as
// ReadBus.
func (s *Stepper) WriteBus(size bus.Size, addr uint32, val uint32) error {
	return s.bus.DebugWrite(size, addr, val)
}

// Halted reports whether the CPU executed WFI and is waiting for an
// interrupt.
func (s *Stepper) Halted() bool { return s.cpu.Halted() }

// CPU exposes the underlying core for callers that need direct access
// (e.g. the system loop wiring interrupt assertion).
func (s *Stepper) CPU() *core.CPU { return s.cpu }

// LastTrap returns the trap kind from the most recent Step call.
func (s *Stepper) LastTrap() core.TrapKind { return s.lastTrap }
