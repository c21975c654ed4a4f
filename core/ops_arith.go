package rv32

// RV32I opcodes this core dispatches on. Named by their low 7 bits.
const (
	opLoad    = 0x03
	opStore   = 0x23
	opOpImm   = 0x13
	opOp      = 0x33
	opBranch  = 0x63
	opJal     = 0x6f
	opJalr    = 0x67
	opLui     = 0x37
	opAuipc   = 0x17
	opSystem  = 0x73
	opMiscMem = 0x0f
)

// executeRV32 decodes and executes one 32-bit instruction. It returns the
// trap raised, if any; TrapNone means the instruction retired cleanly and
// the PC was already advanced (either past the instruction, or to a
// branch/jump target).
func (c *CPU) executeRV32(w uint32) TrapKind {
	op := opcode(w)
	switch op {
	case opOpImm:
		return c.execOpImm(w)
	case opOp:
		return c.execOp(w)
	case opLui:
		c.SetRegister(rd(w), immU(w))
		c.reg.PC += 4
		return TrapNone
	case opAuipc:
		c.SetRegister(rd(w), c.reg.PC+immU(w))
		c.reg.PC += 4
		return TrapNone
	case opJal:
		return c.execJal(w)
	case opJalr:
		return c.execJalr(w)
	case opBranch:
		return c.execBranch(w)
	case opLoad:
		return c.execLoad(w)
	case opStore:
		return c.execStore(w)
	case opMiscMem:
		// FENCE/FENCE.I: this core has no pipeline or caches to fence.
		c.reg.PC += 4
		return TrapNone
	case opSystem:
		return c.execSystem(w)
	default:
		c.takeTrap(TrapIllegalInstr, w)
		return TrapIllegalInstr
	}
}

func (c *CPU) execOpImm(w uint32) TrapKind {
	a := c.Register(rs1(w))
	imm := immI(w)
	var result uint32
	switch funct3(w) {
	case 0x0: // ADDI
		result = a + imm
	case 0x2: // SLTI
		result = b2u(int32(a) < int32(imm))
	case 0x3: // SLTIU
		result = b2u(a < imm)
	case 0x4: // XORI
		result = a ^ imm
	case 0x6: // ORI
		result = a | imm
	case 0x7: // ANDI
		result = a & imm
	case 0x1: // SLLI
		result = a << (imm & 0x1f)
	case 0x5: // SRLI/SRAI (bit 30 of the word, i.e. funct7 top bit)
		shamt := imm & 0x1f
		if funct7(w)&0x20 != 0 {
			result = uint32(int32(a) >> shamt)
		} else {
			result = a >> shamt
		}
	default:
		c.takeTrap(TrapIllegalInstr, w)
		return TrapIllegalInstr
	}
	c.SetRegister(rd(w), result)
	c.reg.PC += 4
	return TrapNone
}

func (c *CPU) execOp(w uint32) TrapKind {
	a, b := c.Register(rs1(w)), c.Register(rs2(w))
	var result uint32
	f7 := funct7(w)
	switch funct3(w) {
	case 0x0:
		if f7&0x20 != 0 {
			result = a - b
		} else {
			result = a + b
		}
	case 0x1:
		result = a << (b & 0x1f)
	case 0x2:
		result = b2u(int32(a) < int32(b))
	case 0x3:
		result = b2u(a < b)
	case 0x4:
		result = a ^ b
	case 0x5:
		if f7&0x20 != 0 {
			result = uint32(int32(a) >> (b & 0x1f))
		} else {
			result = a >> (b & 0x1f)
		}
	case 0x6:
		result = a | b
	case 0x7:
		result = a & b
	default:
		c.takeTrap(TrapIllegalInstr, w)
		return TrapIllegalInstr
	}
	c.SetRegister(rd(w), result)
	c.reg.PC += 4
	return TrapNone
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
