package bus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user-none/go-chip-rv32/bus"
)

func TestCheckOverlapDetectsIntersection(t *testing.T) {
	regions := []bus.Region{
		{Name: "rom", Offset: 0x1000, Size: 0x100, Property: bus.Memory},
		{Name: "sram", Offset: 0x1080, Size: 0x100, Property: bus.Memory},
	}
	assert.ErrorIs(t, bus.CheckOverlap(regions), bus.ErrRegionOverlap)
}

func TestCheckOverlapAllowsAdjacentRegions(t *testing.T) {
	regions := []bus.Region{
		{Name: "rom", Offset: 0x1000, Size: 0x100, Property: bus.Memory},
		{Name: "sram", Offset: 0x1100, Size: 0x100, Property: bus.Memory},
	}
	assert.NoError(t, bus.CheckOverlap(regions))
}

func TestCheckOverlapIgnoresUnsetRegions(t *testing.T) {
	regions := []bus.Region{
		{Name: "rom", Offset: 0x1000, Size: 0x100, Property: bus.Memory},
		{Name: "unset", Offset: 0x1000, Size: 0},
	}
	assert.NoError(t, bus.CheckOverlap(regions))
}

func newRoot(t *testing.T) (*bus.RootBus, *bus.MemoryPeripheral) {
	t.Helper()
	mem := bus.NewMemoryPeripheral(0x100, nil)
	root := bus.NewRootBus([]bus.Region{
		{Name: "sram", Offset: 0x4000_0000, Size: 0x100, Property: bus.Memory, Peripheral: mem},
	})
	return root, mem
}

func TestRootBusRoutesToRegion(t *testing.T) {
	root, _ := newRoot(t)
	require.NoError(t, root.Write(bus.Word, 0x4000_0000, 0xdeadbeef))
	v, err := root.Read(bus.Word, 0x4000_0000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), v)
}

func TestRootBusMemoryAllowsByteAccess(t *testing.T) {
	root, _ := newRoot(t)
	require.NoError(t, root.Write(bus.Byte, 0x4000_0004, 0x42))
	v, err := root.Read(bus.Byte, 0x4000_0004)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x42), v)
}

func TestRootBusMMIORejectsMisalignedWithoutRoutingToPeripheral(t *testing.T) {
	probe := &probePeripheral{}
	root := bus.NewRootBus([]bus.Region{
		{Name: "mmio", Offset: 0x2000_0000, Size: 0x10, Property: bus.MMIO, Peripheral: probe},
	})

	_, err := root.Read(bus.Byte, 0x2000_0001)
	assert.ErrorIs(t, err, bus.ErrLoadAddrMisaligned)
	assert.False(t, probe.readCalled, "peripheral must not be invoked on a misaligned MMIO access")

	err = root.Write(bus.Half, 0x2000_0000, 1)
	assert.ErrorIs(t, err, bus.ErrStoreAddrMisaligned)
	assert.False(t, probe.writeCalled, "peripheral must not be invoked on a misaligned MMIO access")
}

func TestRootBusMMIOAllowsAlignedWordAccess(t *testing.T) {
	probe := &probePeripheral{}
	root := bus.NewRootBus([]bus.Region{
		{Name: "mmio", Offset: 0x2000_0000, Size: 0x10, Property: bus.MMIO, Peripheral: probe},
	})
	_, err := root.Read(bus.Word, 0x2000_0000)
	require.NoError(t, err)
	assert.True(t, probe.readCalled)
}

func TestRootBusFallsBackToDelegateInOrder(t *testing.T) {
	root := bus.NewRootBus(nil)
	first := &delegateBus{}
	second := &delegateBus{handles: true, val: 7}
	root.AddDelegate(first)
	root.AddDelegate(second)

	v, err := root.Read(bus.Word, 0x9000_0000)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), v)
	assert.True(t, first.readSeen)
	assert.True(t, second.readSeen)
}

func TestRootBusFallsBackToExternalShimLastResort(t *testing.T) {
	root := bus.NewRootBus(nil)
	root.AddDelegate(&delegateBus{})
	shim := bus.NewShim(
		func(size bus.Size, addr uint32) (uint32, bool) { return 0x55, true },
		func(size bus.Size, addr uint32, val uint32) bool { return true },
	)
	root.SetExternalShim(shim)

	v, err := root.Read(bus.Word, 0xa000_0000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x55), v)

	err = root.Write(bus.Word, 0xa000_0000, 1)
	assert.NoError(t, err)
}

func TestRootBusUnclaimedAddressFaults(t *testing.T) {
	root := bus.NewRootBus(nil)
	_, err := root.Read(bus.Word, 0xffff_0000)
	assert.ErrorIs(t, err, bus.ErrLoadAccessFault)

	err = root.Write(bus.Word, 0xffff_0000, 1)
	assert.ErrorIs(t, err, bus.ErrStoreAccessFault)
}

func TestRootBusPollResetVisitsEveryRegion(t *testing.T) {
	mem := bus.NewMemoryPeripheral(0x10, []byte{1, 2, 3, 4})
	root := bus.NewRootBus([]bus.Region{
		{Name: "sram", Offset: 0, Size: 0x10, Property: bus.Memory, Peripheral: mem},
	})
	require.NoError(t, root.Write(bus.Byte, 0, 0xff))
	root.WarmReset()
	v, err := root.Read(bus.Byte, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v, "WarmReset should restore the constructed image")

	root.Poll() // must not panic with no pollable state
}

type probePeripheral struct {
	readCalled, writeCalled bool
}

func (p *probePeripheral) Read(size bus.Size, addr uint32) (uint32, error) {
	p.readCalled = true
	return 0, nil
}
func (p *probePeripheral) Write(size bus.Size, addr uint32, val uint32) error {
	p.writeCalled = true
	return nil
}
func (p *probePeripheral) Poll()       {}
func (p *probePeripheral) WarmReset()  {}
func (p *probePeripheral) UpdateReset() {}

type delegateBus struct {
	handles           bool
	val               uint32
	readSeen, writeSeen bool
}

func (d *delegateBus) Read(size bus.Size, addr uint32) (uint32, bool, error) {
	d.readSeen = true
	if !d.handles {
		return 0, false, nil
	}
	return d.val, true, nil
}

func (d *delegateBus) Write(size bus.Size, addr uint32, val uint32) (bool, error) {
	d.writeSeen = true
	return d.handles, nil
}
