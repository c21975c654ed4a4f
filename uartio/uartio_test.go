package uartio_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user-none/go-chip-rv32/uartio"
)

func TestOutputForwardsAndCaptures(t *testing.T) {
	var sink bytes.Buffer
	out := uartio.NewOutput(&sink, true)
	require.NoError(t, out.WriteByte('h'))
	require.NoError(t, out.WriteByte('i'))

	assert.Equal(t, "hi", sink.String())
	assert.Equal(t, []byte("hi"), out.Captured())
}

func TestOutputWithoutCaptureStaysEmpty(t *testing.T) {
	var sink bytes.Buffer
	out := uartio.NewOutput(&sink, false)
	require.NoError(t, out.WriteByte('x'))
	assert.Empty(t, out.Captured())
}

func TestMailboxPushTakeRoundTrip(t *testing.T) {
	mb := uartio.NewMailbox()
	_, ok := mb.Take()
	assert.False(t, ok, "empty mailbox has nothing to take")

	mb.Push('a')
	b, ok := mb.Take()
	require.True(t, ok)
	assert.Equal(t, byte('a'), b)

	_, ok = mb.Take()
	assert.False(t, ok, "take clears the slot")
}

func TestMailboxPushOverwritesUnreadByte(t *testing.T) {
	mb := uartio.NewMailbox()
	mb.Push('a')
	mb.Push('b')
	b, ok := mb.Take()
	require.True(t, ok)
	assert.Equal(t, byte('b'), b)
}

func TestStdinReaderStopsWhenRunningGoesFalse(t *testing.T) {
	mb := uartio.NewMailbox()
	running := true
	r := uartio.NewStdinReader(strings.NewReader("ab"), mb, func() bool { return running })

	running = false
	err := r.Run()
	assert.NoError(t, err)
}

func TestStdinReaderPushesEachByte(t *testing.T) {
	mb := uartio.NewMailbox()
	r := uartio.NewStdinReader(strings.NewReader("z"), mb, func() bool { return true })
	err := r.Run() // reads 'z' then hits EOF and returns an error
	assert.Error(t, err)
	b, ok := mb.Take()
	require.True(t, ok)
	assert.Equal(t, byte('z'), b)
}
