package mailbox_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user-none/go-chip-rv32/bus"
	"github.com/user-none/go-chip-rv32/events"
	"github.com/user-none/go-chip-rv32/peripherals/mailbox"
)

func TestDoorbellRingsPeerChannel(t *testing.T) {
	pair := events.NewPair()
	m := mailbox.New()
	m.RegisterEventChannels(pair, events.NewPair(), nil, nil)

	require.NoError(t, m.Write(bus.Word, 0x08, 1))
	ev, ok := pair.TryRecv()
	require.True(t, ok)
	assert.Equal(t, events.MailboxDoorbell, ev.Kind)
}

func TestStatusReflectsPeerEventAndImageLatches(t *testing.T) {
	toPeer := events.NewPair()
	fromPeer := events.NewPair()
	m := mailbox.New()
	m.RegisterEventChannels(toPeer, fromPeer, nil, nil)

	status, err := m.Read(bus.Word, 0x0c)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), status)

	require.NoError(t, fromPeer.Send(events.Event{Kind: events.RecoveryImageAvailable, Image: []byte("hi")}))
	status, err = m.Read(bus.Word, 0x0c)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), status)

	length, err := m.Read(bus.Word, 0x10)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), length)

	assert.Equal(t, []byte("hi"), m.TakeImage())
	assert.Nil(t, m.TakeImage(), "image is cleared after being taken")
}
