package rv32

// execSystem handles the SYSTEM major opcode: ECALL, EBREAK, MRET, and the
// CSR read-modify-write family. This is the RV32 analog of the m68k core's
// ops_ctrl.go (TRAP/RTE/privileged control instructions).
func (c *CPU) execSystem(w uint32) TrapKind {
	f3 := funct3(w)
	if f3 == 0 {
		switch w >> 20 {
		case 0x0: // ECALL
			c.takeTrap(TrapEcall, 0)
			return TrapEcall
		case 0x1: // EBREAK
			c.takeTrap(TrapBreakpoint, 0)
			return TrapBreakpoint
		case 0x302: // MRET
			c.mret()
			return TrapNone
		case 0x105: // WFI
			c.halted = true
			c.reg.PC += 4
			return TrapNone
		default:
			c.takeTrap(TrapIllegalInstr, w)
			return TrapIllegalInstr
		}
	}

	// CSR instructions (funct3 1-3 register form, 5-7 immediate form).
	addr := w >> 20
	r1 := rs1(w)
	var operand uint32
	if f3 >= 5 {
		operand = uint32(r1) // zimm field reuses the rs1 bit position
	} else {
		operand = c.Register(r1)
	}

	old, known := c.readCSR(addr)
	if !known {
		old = 0
	}

	var write uint32
	switch f3 {
	case 1, 5: // CSRRW / CSRRWI
		write = operand
	case 2, 6: // CSRRS / CSRRSI
		write = old | operand
	case 3, 7: // CSRRC / CSRRCI
		write = old &^ operand
	default:
		c.takeTrap(TrapIllegalInstr, w)
		return TrapIllegalInstr
	}

	if rd(w) != 0 {
		c.SetRegister(rd(w), old)
	}

	// CSRRW/CSRRWI always write. CSRRS/CSRRC (and their immediate forms)
	// skip the write when the operand source is x0/zimm==0, since that
	// means "read only" in the RISC-V spec.
	isWriteVariant := f3 == 1 || f3 == 5
	if isWriteVariant || r1 != 0 {
		c.writeCSR(addr, write)
	}
	c.reg.PC += 4
	return TrapNone
}
