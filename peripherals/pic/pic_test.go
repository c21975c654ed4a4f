package pic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user-none/go-chip-rv32/bus"
	"github.com/user-none/go-chip-rv32/irq"
	"github.com/user-none/go-chip-rv32/peripherals/pic"
)

func TestEnableAndPendingRoundTrip(t *testing.T) {
	ctrl := irq.New()
	p := pic.New(ctrl)

	require.NoError(t, p.Write(bus.Word, 0x000+3*4, 1)) // enable line 3
	assert.True(t, ctrl.Enabled(3))

	ctrl.Raise(3)
	v, err := p.Read(bus.Word, 0x100+3*4)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v)
}

func TestClaimClearsPending(t *testing.T) {
	ctrl := irq.New()
	p := pic.New(ctrl)
	ctrl.SetEnabled(1, true)
	ctrl.Raise(1)

	require.NoError(t, p.Write(bus.Word, 0x200+1*4, 1))
	assert.False(t, ctrl.Pending(1))
}

func TestWarmResetClearsPendingPreservesEnable(t *testing.T) {
	ctrl := irq.New()
	p := pic.New(ctrl)
	ctrl.SetEnabled(2, true)
	ctrl.Raise(2)

	p.WarmReset()
	assert.False(t, ctrl.Pending(2))
	assert.True(t, ctrl.Enabled(2))
}
