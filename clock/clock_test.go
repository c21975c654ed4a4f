package clock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user-none/go-chip-rv32/clock"
)

func TestAdvanceIncrementsTicks(t *testing.T) {
	c := clock.New()
	assert.Equal(t, uint64(0), c.Now())
	assert.Equal(t, uint64(1), c.Advance())
	assert.Equal(t, uint64(1), c.Now())
}

func TestScheduleWakeupKeepsEarliest(t *testing.T) {
	c := clock.New()
	c.ScheduleWakeup("wdt", 100)
	c.ScheduleWakeup("wdt", 50)
	at, ok := c.NextWakeup()
	assert.True(t, ok)
	assert.Equal(t, uint64(50), at)

	c.ScheduleWakeup("wdt", 200) // later than the pending 50, ignored
	at, _ = c.NextWakeup()
	assert.Equal(t, uint64(50), at)
}

func TestSleepTicksIsRelativeToNow(t *testing.T) {
	c := clock.New()
	for i := 0; i < 10; i++ {
		c.Advance()
	}
	c.SleepTicks("uart", 5)
	assert.True(t, c.Due("uart") == false)
	for i := 0; i < 5; i++ {
		c.Advance()
	}
	assert.True(t, c.Due("uart"))
}

func TestCancelWakeupRemovesSource(t *testing.T) {
	c := clock.New()
	c.ScheduleWakeup("a", 10)
	c.CancelWakeup("a")
	_, ok := c.NextWakeup()
	assert.False(t, ok)
}

func TestNextWakeupPicksMinimumAcrossSources(t *testing.T) {
	c := clock.New()
	c.ScheduleWakeup("a", 30)
	c.ScheduleWakeup("b", 10)
	c.ScheduleWakeup("c", 20)
	at, ok := c.NextWakeup()
	assert.True(t, ok)
	assert.Equal(t, uint64(10), at)
}
