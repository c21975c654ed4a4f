package rv32

import (
	"encoding/binary"
	"errors"
)

// cpuSerializeVersion is incremented whenever the binary layout changes.
const cpuSerializeVersion = 1

// cpuSerializeSize is the number of bytes produced by CPU.Serialize.
const cpuSerializeSize = 1 + 32*4 + 4 + 8*4 + 8 + 1

// SerializeSize returns the number of bytes needed for Serialize.
func (c *CPU) SerializeSize() int { return cpuSerializeSize }

// Serialize writes the full core state (registers, PC, CSRs, retire
// count, halted flag) into buf, which must be at least SerializeSize()
// bytes. Bus references are not included, matching the m68k core's
// Serialize contract this was adapted from.
func (c *CPU) Serialize(buf []byte) error {
	if len(buf) < cpuSerializeSize {
		return errors.New("rv32: serialize buffer too small")
	}

	buf[0] = cpuSerializeVersion
	be := binary.BigEndian
	off := 1

	for i := 0; i < 32; i++ {
		be.PutUint32(buf[off:], c.reg.X[i])
		off += 4
	}
	be.PutUint32(buf[off:], c.reg.PC)
	off += 4

	csr := &c.reg.CSR
	for _, v := range [...]uint32{csr.mstatus, csr.mie, csr.mip, csr.mtvec, csr.mscratch, csr.mepc, csr.mcause, csr.mtval} {
		be.PutUint32(buf[off:], v)
		off += 4
	}

	be.PutUint64(buf[off:], c.cycles)
	off += 8

	buf[off] = boolByte(c.halted)
	return nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Deserialize restores core state from buf. The bus reference is left
// unchanged.
func (c *CPU) Deserialize(buf []byte) error {
	if len(buf) < cpuSerializeSize {
		return errors.New("rv32: deserialize buffer too small")
	}
	if buf[0] != cpuSerializeVersion {
		return errors.New("rv32: unsupported serialize version")
	}

	be := binary.BigEndian
	off := 1

	for i := 0; i < 32; i++ {
		c.reg.X[i] = be.Uint32(buf[off:])
		off += 4
	}
	c.reg.PC = be.Uint32(buf[off:])
	off += 4

	csr := &c.reg.CSR
	fields := [...]*uint32{&csr.mstatus, &csr.mie, &csr.mip, &csr.mtvec, &csr.mscratch, &csr.mepc, &csr.mcause, &csr.mtval}
	for _, f := range fields {
		*f = be.Uint32(buf[off:])
		off += 4
	}

	c.cycles = be.Uint64(buf[off:])
	off += 8

	c.halted = buf[off] != 0
	return nil
}
