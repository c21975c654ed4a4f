package dma_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user-none/go-chip-rv32/bus"
	"github.com/user-none/go-chip-rv32/peripherals/dma"
)

func TestSoftwareTriggeredTransferCopiesBytes(t *testing.T) {
	src := bus.NewMemoryPeripheral(0x100, []byte{9, 8, 7, 6})
	dst := bus.NewMemoryPeripheral(0x100, nil)
	c := dma.New(zerolog.Nop(), dma.NewHandle(src), dma.NewHandle(dst))

	require.NoError(t, c.Write(bus.Word, 0x00, 0)) // src
	require.NoError(t, c.Write(bus.Word, 0x04, 8)) // dst
	require.NoError(t, c.Write(bus.Word, 0x08, 4)) // length
	require.NoError(t, c.Write(bus.Word, 0x0c, 1)) // start

	v, err := dst.Read(bus.Byte, 8)
	require.NoError(t, err)
	assert.Equal(t, uint32(9), v)
}

func TestMisalignedAccessRejected(t *testing.T) {
	src := bus.NewMemoryPeripheral(0x10, nil)
	dst := bus.NewMemoryPeripheral(0x10, nil)
	c := dma.New(zerolog.Nop(), dma.NewHandle(src), dma.NewHandle(dst))

	_, err := c.Read(bus.Byte, 0x01)
	assert.ErrorIs(t, err, bus.ErrLoadAddrMisaligned)
}
