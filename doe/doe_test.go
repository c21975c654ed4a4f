package doe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user-none/go-chip-rv32/doe"
)

func TestDiscoveryResponseWrapsModuloTableSize(t *testing.T) {
	tr := doe.New()
	var got []uint32
	tr.SetOnReceive(func(buf []uint32, lengthDW uint32) { got = buf })

	err := tr.Transmit(doe.Header{VendorID: 1, Type: doe.DoeDiscovery, LengthDW: 3}, []uint32{0})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint32(1), got[0])
}

func TestDiscoveryResponseWrapsAtTableBoundary(t *testing.T) {
	tr := doe.New()
	var got []uint32
	tr.SetOnReceive(func(buf []uint32, lengthDW uint32) { got = buf })

	err := tr.Transmit(doe.Header{Type: doe.DoeDiscovery, LengthDW: 3}, []uint32{doe.NumDataObjectTypes - 1})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), got[0])
}

func TestSpdmPayloadForwardedToUpcall(t *testing.T) {
	tr := doe.New()
	var gotLen uint32
	var gotBuf []uint32
	tr.SetOnReceive(func(buf []uint32, lengthDW uint32) {
		gotBuf = buf
		gotLen = lengthDW
	})

	err := tr.Transmit(doe.Header{Type: doe.Spdm, LengthDW: 4}, []uint32{0xaa, 0xbb})
	require.NoError(t, err)
	assert.Equal(t, uint32(2), gotLen)
	assert.Equal(t, []uint32{0xaa, 0xbb}, gotBuf)
}

func TestTransmitRejectsSecondInFlight(t *testing.T) {
	tr := doe.New()
	tr.SetOnReceive(func(buf []uint32, lengthDW uint32) {
		// re-entrant transmit while "in flight" should be rejected
		err := tr.Transmit(doe.Header{Type: doe.Spdm, LengthDW: 2}, nil)
		assert.ErrorIs(t, err, doe.ErrBusy)
	})
	err := tr.Transmit(doe.Header{Type: doe.Spdm, LengthDW: 2}, nil)
	require.NoError(t, err)
}

func TestLengthMismatchDropsFrame(t *testing.T) {
	tr := doe.New()
	called := false
	tr.SetOnReceive(func(buf []uint32, lengthDW uint32) { called = true })

	err := tr.Transmit(doe.Header{Type: doe.Spdm, LengthDW: 99}, []uint32{1, 2})
	assert.ErrorIs(t, err, doe.ErrInvalid)
	assert.False(t, called)
}

func TestUnknownTypeRejected(t *testing.T) {
	tr := doe.New()
	err := tr.Transmit(doe.Header{Type: doe.DataObjectType(99), LengthDW: 2}, nil)
	assert.ErrorIs(t, err, doe.ErrInvalid)
}

func TestDeliverDecodesHeaderFromWords(t *testing.T) {
	tr := doe.New()
	var got []uint32
	tr.SetOnReceive(func(buf []uint32, lengthDW uint32) { got = buf })

	header := uint32(uint32(doe.DoeDiscovery)<<16 | 0x1234)
	err := tr.Deliver([]uint32{header, 3, 0})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), got[0])
}
