package doemailbox_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user-none/go-chip-rv32/bus"
	"github.com/user-none/go-chip-rv32/peripherals/doemailbox"
)

const (
	regControl    = 0x00
	regVendorType = 0x04
	regLengthDW   = 0x08
	regStatus     = 0x0c
	regRxLengthDW = 0x10
	regPayload0   = 0x40
)

func TestDiscoveryRoundTripThroughRegisters(t *testing.T) {
	d := doemailbox.New()

	require.NoError(t, d.Write(bus.Word, regVendorType, uint32(0)<<16)) // type=DoeDiscovery(0), vendor=0
	require.NoError(t, d.Write(bus.Word, regLengthDW, 3))              // header(2) + 1 payload word
	require.NoError(t, d.Write(bus.Word, regPayload0, 0))              // requested index 0
	require.NoError(t, d.Write(bus.Word, regControl, 1))

	status, err := d.Read(bus.Word, regStatus)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), status, "no error bit set")

	rxLen, err := d.Read(bus.Word, regRxLengthDW)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), rxLen)

	resp, err := d.Read(bus.Word, regPayload0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), resp, "next index wraps to 1")
}

func TestLengthMismatchSetsErrorStatus(t *testing.T) {
	d := doemailbox.New()

	require.NoError(t, d.Write(bus.Word, regVendorType, uint32(1)<<16)) // Spdm
	require.NoError(t, d.Write(bus.Word, regLengthDW, 99))              // bogus, doesn't match staged payload
	require.NoError(t, d.Write(bus.Word, regControl, 1))

	status, err := d.Read(bus.Word, regStatus)
	require.NoError(t, err)
	assert.Equal(t, uint32(1<<1), status, "error bit set on mismatch")
}

func TestMisalignedAccessRejected(t *testing.T) {
	d := doemailbox.New()

	_, err := d.Read(bus.Half, regStatus)
	assert.ErrorIs(t, err, bus.ErrLoadAddrMisaligned)

	err = d.Write(bus.Byte, regControl+1, 1)
	assert.ErrorIs(t, err, bus.ErrStoreAddrMisaligned)
}

func TestWarmResetClearsReceivedPayload(t *testing.T) {
	d := doemailbox.New()
	require.NoError(t, d.Write(bus.Word, regVendorType, uint32(0)<<16))
	require.NoError(t, d.Write(bus.Word, regLengthDW, 3))
	require.NoError(t, d.Write(bus.Word, regPayload0, 0))
	require.NoError(t, d.Write(bus.Word, regControl, 1))

	d.WarmReset()

	rxLen, err := d.Read(bus.Word, regRxLengthDW)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), rxLen)
}
