package rv32

// Bus provides word/half/byte-granular memory access for the core.
// Implementations report misaligned or out-of-range accesses as a
// TrapKind via the returned error (see trap.go); a nil error means the
// access succeeded and data/ignore the rest.
type Bus interface {
	Read(size Size, addr uint32) (uint32, error)
	Write(size Size, addr uint32, val uint32) error
}

// CycleBus is optionally implemented by a Bus that wants the current
// instruction-retire count alongside each access, e.g. for DMA timing
// models in peripherals.
type CycleBus interface {
	Bus
	ReadCycle(cycle uint64, size Size, addr uint32) (uint32, error)
	WriteCycle(cycle uint64, size Size, addr uint32, val uint32) error
}

// Registers holds the programmer-visible state of the core: 32 integer
// registers (x0 is hardwired to zero and never written back), the program
// counter, and the machine-mode CSR file.
type Registers struct {
	X   [32]uint32
	PC  uint32
	CSR CSRFile
}

// CPU is a single RV32IC hart, running entirely in machine mode (the
// subsystem this core models has no supervisor/user split).
type CPU struct {
	reg      Registers
	bus      Bus
	cycleBus CycleBus

	cycles uint64
	prevPC uint32

	halted bool // WFI with no pending enabled interrupt and no way to wake

	extIRQ bool // level-triggered external interrupt line, set by the caller each tick
}

// New creates a core wired to bus. The caller must call SetPC to establish
// the reset vector before the first Step.
func New(bus Bus) *CPU {
	c := &CPU{bus: bus}
	c.cycleBus, _ = bus.(CycleBus)
	return c
}

// Reset clears register and CSR state. PC is left at 0; callers set the
// real reset vector (ROM offset) with SetPC immediately after.
func (c *CPU) Reset() {
	c.reg = Registers{}
	c.cycles = 0
	c.prevPC = 0
	c.halted = false
	c.extIRQ = false
}

func (c *CPU) PC() uint32     { return c.reg.PC }
func (c *CPU) SetPC(pc uint32) { c.reg.PC = pc }

func (c *CPU) Register(i int) uint32 {
	if i == 0 {
		return 0
	}
	return c.reg.X[i&31]
}

func (c *CPU) SetRegister(i int, v uint32) {
	if i == 0 {
		return
	}
	c.reg.X[i&31] = v
}

func (c *CPU) Cycles() uint64 { return c.cycles }
func (c *CPU) Halted() bool   { return c.halted }

// SetExternalInterrupt latches the level of the external interrupt line
// (MEIP in mip). The Interrupt Controller (package irq) drives this once
// per tick based on its own enabled/pending computation.
func (c *CPU) SetExternalInterrupt(pending bool) {
	c.extIRQ = pending
	if pending {
		c.reg.CSR.mip |= mipMEIP
	} else {
		c.reg.CSR.mip &^= mipMEIP
	}
}

func (c *CPU) readBus(size Size, addr uint32) (uint32, error) {
	if c.cycleBus != nil {
		return c.cycleBus.ReadCycle(c.cycles, size, addr)
	}
	return c.bus.Read(size, addr)
}

func (c *CPU) writeBus(size Size, addr uint32, val uint32) error {
	if c.cycleBus != nil {
		return c.cycleBus.WriteCycle(c.cycles, size, addr, val)
	}
	return c.bus.Write(size, addr, val)
}

// Step decodes and executes exactly one instruction (2 or 4 bytes),
// servicing a pending interrupt first if one is enabled. It returns the
// length of the instruction retired (0 if a trap redirected the PC before
// any instruction bytes were consumed, e.g. WFI did not wake) and the trap
// that occurred, if any (TrapNone for a clean retire).
func (c *CPU) Step() (instrLen int, trap TrapKind) {
	if c.checkInterrupt() {
		return 0, TrapNone
	}
	if c.halted {
		c.cycles++
		return 0, TrapNone
	}

	c.prevPC = c.reg.PC

	raw, ok := c.fetch16(c.reg.PC)
	if !ok {
		c.takeTrap(TrapInstrAccessFault, c.reg.PC)
		return 0, TrapInstrAccessFault
	}

	if raw&3 == 3 {
		hi, ok := c.fetch16(c.reg.PC + 2)
		if !ok {
			c.takeTrap(TrapInstrAccessFault, c.reg.PC)
			return 0, TrapInstrAccessFault
		}
		word := uint32(raw) | uint32(hi)<<16
		trap := c.executeRV32(word)
		c.cycles++
		if trap != TrapNone {
			return 4, trap
		}
		return 4, TrapNone
	}

	trap = c.executeCompressed(raw)
	c.cycles++
	if trap != TrapNone {
		return 2, trap
	}
	return 2, TrapNone
}

// fetch16 reads one 16-bit instruction halfword. Instruction fetch faults
// are reported as a bool rather than threading the bus error type through,
// since the core always converts them to TrapInstrAccessFault.
func (c *CPU) fetch16(addr uint32) (uint16, bool) {
	v, err := c.readBus(Half, addr)
	if err != nil {
		return 0, false
	}
	return uint16(v), true
}
