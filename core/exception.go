package rv32

// takeTrap enters the machine-mode trap handler: saves mepc/mcause/mtval,
// clears MIE into MPIE, and redirects the PC to mtvec. This core only
// implements direct mode (mtvec's low two bits are ignored); the
// subsystem's ROM is expected to install a single handler.
func (c *CPU) takeTrap(kind TrapKind, tval uint32) {
	r := &c.reg.CSR
	r.mepc = c.reg.PC
	r.mcause = kind.mcause()
	r.mtval = tval

	if r.mstatus&mstatusMIE != 0 {
		r.mstatus |= mstatusMPIE
	} else {
		r.mstatus &^= mstatusMPIE
	}
	r.mstatus &^= mstatusMIE

	c.reg.PC = r.mtvec &^ 0b11
}

// mret returns from a trap: restores MIE from MPIE and resumes at mepc.
func (c *CPU) mret() {
	r := &c.reg.CSR
	if r.mstatus&mstatusMPIE != 0 {
		r.mstatus |= mstatusMIE
	} else {
		r.mstatus &^= mstatusMIE
	}
	r.mstatus |= mstatusMPIE
	c.reg.PC = r.mepc
}
