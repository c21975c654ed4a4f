package flash_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user-none/go-chip-rv32/bus"
	"github.com/user-none/go-chip-rv32/peripherals/dma"
	"github.com/user-none/go-chip-rv32/peripherals/flash"
)

func TestReadIntoSRAMCopiesImageBytes(t *testing.T) {
	sramMem := bus.NewMemoryPeripheral(0x100, nil)
	handle := dma.NewHandle(sramMem)
	image := []byte{1, 2, 3, 4, 5, 6}

	c := flash.New(image, handle)
	require.NoError(t, c.Write(bus.Word, 0x00, 2)) // src offset
	require.NoError(t, c.Write(bus.Word, 0x04, 0x10)) // dst offset
	require.NoError(t, c.Write(bus.Word, 0x08, 3)) // length
	require.NoError(t, c.Write(bus.Word, 0x0c, 1)) // start

	v, err := sramMem.Read(bus.Byte, 0x10)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), v)
	v, _ = sramMem.Read(bus.Byte, 0x12)
	assert.Equal(t, uint32(5), v)
}

func TestOutOfBoundsTransferIsIgnored(t *testing.T) {
	sramMem := bus.NewMemoryPeripheral(0x100, nil)
	handle := dma.NewHandle(sramMem)
	c := flash.New([]byte{1, 2}, handle)

	require.NoError(t, c.Write(bus.Word, 0x00, 0))
	require.NoError(t, c.Write(bus.Word, 0x08, 100)) // length exceeds image
	require.NoError(t, c.Write(bus.Word, 0x0c, 1))   // must not panic
}
