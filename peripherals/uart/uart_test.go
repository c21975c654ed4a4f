package uart_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user-none/go-chip-rv32/bus"
	"github.com/user-none/go-chip-rv32/peripherals/uart"
	"github.com/user-none/go-chip-rv32/uartio"
)

func TestTXForwardsToOutput(t *testing.T) {
	var sink bytes.Buffer
	out := uartio.NewOutput(&sink, true)
	in := uartio.NewMailbox()
	u := uart.New(out, in)

	require.NoError(t, u.Write(bus.Word, 0x00, 'Q'))
	assert.Equal(t, "Q", sink.String())
}

func TestRXDrainsMailboxAndStatusReflectsAvailability(t *testing.T) {
	out := uartio.NewOutput(&bytes.Buffer{}, false)
	in := uartio.NewMailbox()
	u := uart.New(out, in)

	status, err := u.Read(bus.Word, 0x08)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), status)

	in.Push('z')
	status, err = u.Read(bus.Word, 0x08)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), status)

	v, err := u.Read(bus.Word, 0x04)
	require.NoError(t, err)
	assert.Equal(t, uint32('z'), v)

	status, _ = u.Read(bus.Word, 0x08)
	assert.Equal(t, uint32(0), status, "status reflects drained mailbox")
}

func TestMisalignedAccessRejected(t *testing.T) {
	out := uartio.NewOutput(&bytes.Buffer{}, false)
	in := uartio.NewMailbox()
	u := uart.New(out, in)

	_, err := u.Read(bus.Byte, 0x04)
	assert.ErrorIs(t, err, bus.ErrLoadAddrMisaligned)
}
