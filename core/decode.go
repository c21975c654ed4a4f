package rv32

// Instruction field accessors for the standard 32-bit RISC-V encoding.
// These are pure bit-slicing helpers; they replace the m68k core's
// effective-address decode table (ea.go) with the RV32 equivalent of
// "where do the operands of this word come from".

func opcode(w uint32) uint32 { return w & 0x7f }
func rd(w uint32) int        { return int((w >> 7) & 0x1f) }
func funct3(w uint32) uint32 { return (w >> 12) & 0x7 }
func rs1(w uint32) int       { return int((w >> 15) & 0x1f) }
func rs2(w uint32) int       { return int((w >> 20) & 0x1f) }
func funct7(w uint32) uint32 { return (w >> 25) & 0x7f }

func immI(w uint32) uint32 { return signExtend(w>>20, 12) }

func immS(w uint32) uint32 {
	v := ((w >> 7) & 0x1f) | ((w >> 25) << 5)
	return signExtend(v, 12)
}

func immB(w uint32) uint32 {
	v := ((w >> 8) & 0xf) << 1
	v |= ((w >> 25) & 0x3f) << 5
	v |= ((w >> 7) & 0x1) << 11
	v |= ((w >> 31) & 0x1) << 12
	return signExtend(v, 13)
}

func immU(w uint32) uint32 { return w & 0xfffff000 }

func immJ(w uint32) uint32 {
	v := ((w >> 21) & 0x3ff) << 1
	v |= ((w >> 20) & 0x1) << 11
	v |= ((w >> 12) & 0xff) << 12
	v |= ((w >> 31) & 0x1) << 20
	return signExtend(v, 21)
}
