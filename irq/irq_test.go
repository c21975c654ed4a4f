package irq_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user-none/go-chip-rv32/irq"
)

func TestSignalRequiresBothEnabledAndPending(t *testing.T) {
	c := irq.New()
	c.Raise(3)
	assert.False(t, c.Signal(), "pending but not enabled must not assert")

	c.SetEnabled(3, true)
	assert.True(t, c.Signal())
}

func TestClearDropsSignal(t *testing.T) {
	c := irq.New()
	c.SetEnabled(1, true)
	c.Raise(1)
	assert.True(t, c.Signal())
	c.Clear(1)
	assert.False(t, c.Signal())
}

func TestHighestPicksLowestSourceNumber(t *testing.T) {
	c := irq.New()
	c.SetEnabled(5, true)
	c.SetEnabled(2, true)
	c.SetEnabled(9, true)
	c.Raise(5)
	c.Raise(2)
	c.Raise(9)

	line, ok := c.Highest()
	assert.True(t, ok)
	assert.Equal(t, irq.Line(2), line)
}

func TestWarmResetClearsPendingKeepsEnable(t *testing.T) {
	c := irq.New()
	c.SetEnabled(4, true)
	c.Raise(4)
	c.WarmReset()
	assert.False(t, c.Pending(4))
	assert.True(t, c.Enabled(4))
}

func TestUpdateResetClearsEverything(t *testing.T) {
	c := irq.New()
	c.SetEnabled(4, true)
	c.Raise(4)
	c.UpdateReset()
	assert.False(t, c.Pending(4))
	assert.False(t, c.Enabled(4))
}
