package rv32

func (c *CPU) execJal(w uint32) TrapKind {
	target := c.reg.PC + immJ(w)
	if target&1 != 0 {
		c.takeTrap(TrapInstrAddrMisaligned, target)
		return TrapInstrAddrMisaligned
	}
	c.SetRegister(rd(w), c.reg.PC+4)
	c.reg.PC = target
	return TrapNone
}

func (c *CPU) execJalr(w uint32) TrapKind {
	target := (c.Register(rs1(w)) + immI(w)) &^ 1
	link := c.reg.PC + 4
	if target&1 != 0 {
		c.takeTrap(TrapInstrAddrMisaligned, target)
		return TrapInstrAddrMisaligned
	}
	c.SetRegister(rd(w), link)
	c.reg.PC = target
	return TrapNone
}

func (c *CPU) execBranch(w uint32) TrapKind {
	a, b := c.Register(rs1(w)), c.Register(rs2(w))
	var taken bool
	switch funct3(w) {
	case 0x0: // BEQ
		taken = a == b
	case 0x1: // BNE
		taken = a != b
	case 0x4: // BLT
		taken = int32(a) < int32(b)
	case 0x5: // BGE
		taken = int32(a) >= int32(b)
	case 0x6: // BLTU
		taken = a < b
	case 0x7: // BGEU
		taken = a >= b
	default:
		c.takeTrap(TrapIllegalInstr, w)
		return TrapIllegalInstr
	}
	if taken {
		target := c.reg.PC + immB(w)
		if target&1 != 0 {
			c.takeTrap(TrapInstrAddrMisaligned, target)
			return TrapInstrAddrMisaligned
		}
		c.reg.PC = target
	} else {
		c.reg.PC += 4
	}
	return TrapNone
}
