// Package regfile provides the register-file convenience of §4.C(a): a
// helper that derives read/write over a declarative list of registers
// (offset, writable-bits mask, RW policy, optional read/write callbacks), so
// individual peripheral packages don't hand-roll a switch over every
// offset.
package regfile

import "github.com/user-none/go-chip-rv32/bus"

// Access is the read/write policy of a register.
type Access int

const (
	ReadOnly Access = iota
	WriteOnly
	ReadWrite
)

// OnWrite is called after a write is accepted and masked, receiving the
// final masked value. Registers without side effects leave this nil.
type OnWrite func(val uint32)

// OnRead is called before a read is returned, allowing a register to
// compute its value lazily (e.g. a status register reflecting live
// peripheral state) rather than storing it redundantly. Returns the
// value to report; registers without custom read behavior leave this
// nil and the stored backing value is returned directly.
type OnRead func() uint32

// Reg describes one register in the file.
type Reg struct {
	Offset  uint32
	Mask    uint32 // writable-bits mask; irrelevant bits are dropped on write
	Access  Access
	OnWrite OnWrite
	OnRead  OnRead
}

// File is a word-addressed register file backing a peripheral's MMIO
// window. All accesses are RootBus-validated word accesses already
// (invariant 3 of §3); File only needs to dispatch by offset.
type File struct {
	regs    map[uint32]*Reg
	backing map[uint32]uint32
}

// New builds a File from a declarative register list.
func New(regs []Reg) *File {
	f := &File{regs: make(map[uint32]*Reg, len(regs)), backing: make(map[uint32]uint32, len(regs))}
	for i := range regs {
		r := regs[i]
		f.regs[r.Offset] = &r
	}
	return f
}

// Read returns the register at addr, or ErrLoadAccessFault if no
// register is declared there or it's write-only.
func (f *File) Read(addr uint32) (uint32, error) {
	r, ok := f.regs[addr]
	if !ok || r.Access == WriteOnly {
		return 0, bus.ErrLoadAccessFault
	}
	if r.OnRead != nil {
		return r.OnRead(), nil
	}
	return f.backing[addr], nil
}

// Write masks val by the register's documented writable bits and stores
// it, invoking OnWrite if present. Returns ErrStoreAccessFault if no
// register is declared there or it's read-only.
func (f *File) Write(addr uint32, val uint32) error {
	r, ok := f.regs[addr]
	if !ok || r.Access == ReadOnly {
		return bus.ErrStoreAccessFault
	}
	masked := val & r.Mask
	f.backing[addr] = masked
	if r.OnWrite != nil {
		r.OnWrite(masked)
	}
	return nil
}

// Set directly stores a value without going through the write mask or
// OnWrite callback, for a peripheral's internal state updates (e.g. a
// status bit the guest can only read, never write).
func (f *File) Set(addr uint32, val uint32) { f.backing[addr] = val }

// Get returns the raw backing value without invoking OnRead, for
// internal peripheral logic that needs the stored value directly.
func (f *File) Get(addr uint32) uint32 { return f.backing[addr] }

// Reset clears every backing value to zero.
func (f *File) Reset() {
	for addr := range f.backing {
		f.backing[addr] = 0
	}
}
