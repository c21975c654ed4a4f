package gdbstub_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user-none/go-chip-rv32/bus"
	core "github.com/user-none/go-chip-rv32/core"
	"github.com/user-none/go-chip-rv32/gdbstub"
	"github.com/user-none/go-chip-rv32/stepper"
)

func newTarget(t *testing.T) (*gdbstub.Target, *bus.MemoryPeripheral) {
	t.Helper()
	mem := bus.NewMemoryPeripheral(0x1000, nil)
	root := bus.NewRootBus([]bus.Region{
		{Name: "sram", Offset: 0, Size: 0x1000, Property: bus.Memory, Peripheral: mem},
	})
	cpu := core.New(root)
	st := stepper.New(cpu, root)
	return gdbstub.New(zerolog.Nop(), st), mem
}

func TestSingleStepAdvancesPCAndReportsDoneStep(t *testing.T) {
	target, mem := newTarget(t)
	mem.Write(bus.Word, 0, 0x00000013) // addi x0,x0,0

	target.SetMode(gdbstub.ModeStep)
	reason := target.Run()
	assert.Equal(t, gdbstub.DoneStep, reason)

	regs := target.ReadRegisters()
	assert.Equal(t, uint32(4), regs[0])
}

func TestContinueStopsOnBreakpoint(t *testing.T) {
	target, mem := newTarget(t)
	for i := uint32(0); i < 16; i += 4 {
		mem.Write(bus.Word, i, 0x00000013)
	}
	target.AddBreakpoint(8)

	target.SetMode(gdbstub.ModeContinue)
	reason := target.Run()
	assert.Equal(t, gdbstub.SwBreak, reason)

	regs := target.ReadRegisters()
	assert.Equal(t, uint32(8), regs[0])
}

func TestReadWriteMemoryByteWidened(t *testing.T) {
	target, _ := newTarget(t)
	require.NoError(t, target.WriteMemory(0x10, []byte{1, 2, 3, 4}))
	data, err := target.ReadMemory(0x10, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)
}

func TestRegisterWriteRoundTrip(t *testing.T) {
	target, _ := newTarget(t)
	var regs [33]uint32
	regs[0] = 0x1000 // PC
	regs[6] = 0xabc  // x5
	target.WriteRegisters(regs)

	got := target.ReadRegisters()
	assert.Equal(t, uint32(0x1000), got[0])
	assert.Equal(t, uint32(0xabc), got[6])
}

func TestInterruptRequestYieldsSignalStop(t *testing.T) {
	target, mem := newTarget(t)
	mem.Write(bus.Word, 0, 0x00000013)
	target.SetMode(gdbstub.ModeContinue)
	target.RequestInterrupt()
	reason := target.Run()
	assert.Equal(t, gdbstub.SignalStop, reason)
}
