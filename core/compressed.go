package rv32

import "errors"

// executeCompressed decodes and executes a 16-bit "C" extension
// instruction, covering the subset generated by a typical -Os RISC-V GCC
// build: stack-relative loads/stores, register moves, small immediates,
// unconditional/zero-test branches, and EBREAK. Anything outside this
// subset traps as illegal rather than silently misbehaving -- firmware
// images built without compressed instructions (or with the full set)
// still work via the 32-bit decode path in ops_arith.go et al.
func (c *CPU) executeCompressed(raw uint16) TrapKind {
	w := uint32(raw)
	quadrant := w & 0x3
	funct3 := (w >> 13) & 0x7

	rdRs1p := int((w>>7)&0x7) + 8  // c.rs1'/c.rd' (3-bit, registers x8-x15)
	rs2p := int((w>>2)&0x7) + 8    // c.rs2' (3-bit, registers x8-x15)
	full_rd := int((w >> 7) & 0x1f)
	full_rs2 := int((w >> 2) & 0x1f)

	switch quadrant {
	case 0x0:
		switch funct3 {
		case 0x0: // C.ADDI4SPN
			nzuimm := ((w >> 7) & 0x30) | ((w >> 1) & 0x3c0) | ((w >> 4) & 0x4) | ((w >> 2) & 0x8)
			if nzuimm == 0 {
				c.takeTrap(TrapIllegalInstr, w)
				return TrapIllegalInstr
			}
			c.SetRegister(rs2p, c.Register(2)+nzuimm)
			c.reg.PC += 2
			return TrapNone
		case 0x2: // C.LW
			off := ((w >> 4) & 0x4) | ((w >> 7) & 0x38) | ((w << 1) & 0x40)
			addr := c.Register(rdRs1p) + off
			v, err := c.readBus(Word, addr)
			if err != nil {
				if errors.Is(err, ErrWatchpoint) {
					return TrapWatchpoint
				}
				trap := classifyLoadErr(err)
				c.takeTrap(trap, addr)
				return trap
			}
			c.SetRegister(rs2p, v)
			c.reg.PC += 2
			return TrapNone
		case 0x6: // C.SW
			off := ((w >> 4) & 0x4) | ((w >> 7) & 0x38) | ((w << 1) & 0x40)
			addr := c.Register(rdRs1p) + off
			if err := c.writeBus(Word, addr, c.Register(rs2p)); err != nil {
				if errors.Is(err, ErrWatchpoint) {
					return TrapWatchpoint
				}
				trap := classifyStoreErr(err)
				c.takeTrap(trap, addr)
				return trap
			}
			c.reg.PC += 2
			return TrapNone
		default:
			c.takeTrap(TrapIllegalInstr, w)
			return TrapIllegalInstr
		}

	case 0x1:
		switch funct3 {
		case 0x0: // C.NOP / C.ADDI
			imm := signExtend(((w>>7)&0x20)|((w>>2)&0x1f), 6)
			c.SetRegister(full_rd, c.Register(full_rd)+imm)
			c.reg.PC += 2
			return TrapNone
		case 0x1: // C.JAL (RV32-only encoding)
			off := cjImm(w)
			c.SetRegister(1, c.reg.PC+2)
			c.reg.PC += off
			return TrapNone
		case 0x2: // C.LI
			imm := signExtend(((w>>7)&0x20)|((w>>2)&0x1f), 6)
			c.SetRegister(full_rd, imm)
			c.reg.PC += 2
			return TrapNone
		case 0x3: // C.LUI / C.ADDI16SP
			if full_rd == 2 {
				imm := signExtend(((w>>3)&0x200)|((w>>2)&0x10)|((w<<1)&0x40)|((w<<4)&0x180)|((w<<3)&0x20), 10)
				c.SetRegister(2, c.Register(2)+imm)
			} else {
				imm := signExtend(((w>>2)&0x1f)<<12|((w>>12)&0x1)<<17, 18)
				c.SetRegister(full_rd, imm)
			}
			c.reg.PC += 2
			return TrapNone
		case 0x4: // C.SRLI/C.SRAI/C.ANDI/C.SUB/C.XOR/C.OR/C.AND
			return c.execCAluGroup(w, rdRs1p, rs2p)
		case 0x5: // C.J
			off := cjImm(w)
			c.reg.PC += off
			return TrapNone
		case 0x6: // C.BEQZ
			if c.Register(rdRs1p) == 0 {
				c.reg.PC += cbImm(w)
			} else {
				c.reg.PC += 2
			}
			return TrapNone
		case 0x7: // C.BNEZ
			if c.Register(rdRs1p) != 0 {
				c.reg.PC += cbImm(w)
			} else {
				c.reg.PC += 2
			}
			return TrapNone
		}

	case 0x2:
		switch funct3 {
		case 0x0: // C.SLLI
			shamt := ((w >> 7) & 0x20) | ((w >> 2) & 0x1f)
			c.SetRegister(full_rd, c.Register(full_rd)<<shamt)
			c.reg.PC += 2
			return TrapNone
		case 0x2: // C.LWSP
			off := ((w >> 2) & 0x1c) | ((w >> 7) & 0x20) | ((w << 4) & 0xc0)
			v, err := c.readBus(Word, c.Register(2)+off)
			if err != nil {
				if errors.Is(err, ErrWatchpoint) {
					return TrapWatchpoint
				}
				trap := classifyLoadErr(err)
				c.takeTrap(trap, c.Register(2)+off)
				return trap
			}
			c.SetRegister(full_rd, v)
			c.reg.PC += 2
			return TrapNone
		case 0x4:
			bit12 := w & 0x1000
			if bit12 == 0 && full_rs2 == 0 { // C.JR
				if full_rd == 0 {
					c.takeTrap(TrapIllegalInstr, w)
					return TrapIllegalInstr
				}
				c.reg.PC = c.Register(full_rd) &^ 1
				return TrapNone
			}
			if bit12 == 0 { // C.MV
				c.SetRegister(full_rd, c.Register(full_rs2))
				c.reg.PC += 2
				return TrapNone
			}
			if full_rd == 0 && full_rs2 == 0 { // C.EBREAK
				c.takeTrap(TrapBreakpoint, 0)
				return TrapBreakpoint
			}
			if full_rs2 == 0 { // C.JALR
				target := c.Register(full_rd) &^ 1
				c.SetRegister(1, c.reg.PC+2)
				c.reg.PC = target
				return TrapNone
			}
			// C.ADD
			c.SetRegister(full_rd, c.Register(full_rd)+c.Register(full_rs2))
			c.reg.PC += 2
			return TrapNone
		case 0x6: // C.SWSP
			off := ((w >> 7) & 0x3c) | ((w >> 1) & 0xc0)
			if err := c.writeBus(Word, c.Register(2)+off, c.Register(full_rs2)); err != nil {
				if errors.Is(err, ErrWatchpoint) {
					return TrapWatchpoint
				}
				trap := classifyStoreErr(err)
				c.takeTrap(trap, c.Register(2)+off)
				return trap
			}
			c.reg.PC += 2
			return TrapNone
		}
	}

	c.takeTrap(TrapIllegalInstr, w)
	return TrapIllegalInstr
}

func (c *CPU) execCAluGroup(w uint32, rdp, rs2p int) TrapKind {
	sub := (w >> 10) & 0x3
	switch sub {
	case 0x0: // C.SRLI
		shamt := ((w >> 7) & 0x20) | ((w >> 2) & 0x1f)
		c.SetRegister(rdp, c.Register(rdp)>>shamt)
	case 0x1: // C.SRAI
		shamt := ((w >> 7) & 0x20) | ((w >> 2) & 0x1f)
		c.SetRegister(rdp, uint32(int32(c.Register(rdp))>>shamt))
	case 0x2: // C.ANDI
		imm := signExtend(((w>>7)&0x20)|((w>>2)&0x1f), 6)
		c.SetRegister(rdp, c.Register(rdp)&imm)
	case 0x3:
		switch (w >> 5) & 0x3 {
		case 0x0:
			c.SetRegister(rdp, c.Register(rdp)-c.Register(rs2p)) // C.SUB
		case 0x1:
			c.SetRegister(rdp, c.Register(rdp)^c.Register(rs2p)) // C.XOR
		case 0x2:
			c.SetRegister(rdp, c.Register(rdp)|c.Register(rs2p)) // C.OR
		case 0x3:
			c.SetRegister(rdp, c.Register(rdp)&c.Register(rs2p)) // C.AND
		}
	}
	c.reg.PC += 2
	return TrapNone
}

// cjImm decodes the 11-bit signed offset of C.J/C.JAL from its scrambled
// field layout (RISC-V unprivileged spec table 16.6).
func cjImm(w uint32) uint32 {
	imm := (extractBit(w, 12) << 11) | (extractBit(w, 11) << 4) |
		(extractBits(w, 10, 9) << 8) | (extractBit(w, 8) << 10) |
		(extractBit(w, 7) << 6) | (extractBit(w, 6) << 7) |
		(extractBits(w, 5, 3) << 1) | (extractBit(w, 2) << 5)
	return signExtend(imm, 12)
}

func cbImm(w uint32) uint32 {
	imm := (extractBit(w, 12) << 8) | (extractBits(w, 11, 10) << 3) |
		(extractBits(w, 6, 5) << 6) | (extractBits(w, 4, 3) << 1) |
		(extractBit(w, 2) << 5)
	return signExtend(imm, 9)
}

func extractBit(w uint32, bit uint) uint32 {
	return (w >> bit) & 1
}

// extractBits returns the (hi-lo+1)-bit field w[hi:lo], right-justified.
func extractBits(w uint32, hi, lo uint) uint32 {
	width := hi - lo + 1
	return (w >> lo) & ((1 << width) - 1)
}
