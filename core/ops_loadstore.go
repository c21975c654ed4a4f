package rv32

import "errors"

func (c *CPU) execLoad(w uint32) TrapKind {
	addr := c.Register(rs1(w)) + immI(w)
	f3 := funct3(w)

	var size Size
	signed := false
	switch f3 {
	case 0x0:
		size, signed = Byte, true
	case 0x1:
		size, signed = Half, true
	case 0x2:
		size = Word
	case 0x4:
		size = Byte
	case 0x5:
		size = Half
	default:
		c.takeTrap(TrapIllegalInstr, w)
		return TrapIllegalInstr
	}

	v, err := c.readBus(size, addr)
	if err != nil {
		if errors.Is(err, ErrWatchpoint) {
			return TrapWatchpoint
		}
		trap := classifyLoadErr(err)
		c.takeTrap(trap, addr)
		return trap
	}

	if signed {
		bits := uint(size) * 8
		v = signExtend(v, bits)
	}
	c.SetRegister(rd(w), v)
	c.reg.PC += 4
	return TrapNone
}

func (c *CPU) execStore(w uint32) TrapKind {
	addr := c.Register(rs1(w)) + immS(w)
	val := c.Register(rs2(w))

	var size Size
	switch funct3(w) {
	case 0x0:
		size = Byte
	case 0x1:
		size = Half
	case 0x2:
		size = Word
	default:
		c.takeTrap(TrapIllegalInstr, w)
		return TrapIllegalInstr
	}

	if err := c.writeBus(size, addr, val); err != nil {
		if errors.Is(err, ErrWatchpoint) {
			return TrapWatchpoint
		}
		trap := classifyStoreErr(err)
		c.takeTrap(trap, addr)
		return trap
	}
	c.reg.PC += 4
	return TrapNone
}
