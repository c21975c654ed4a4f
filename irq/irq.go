// Package irq implements the external interrupt controller model of
// §4.B: a bank of interrupt lines per CPU, each with an enable bit and a
// level-sensitive pending latch, aggregated into the single external
// interrupt signal each core's Step checks every cycle.
package irq

import "sort"

// Line identifies one interrupt source. Source numbering is
// implementation-defined; the only contract is that a lower Line wins
// priority ties (§4.B "lowest source number").
type Line uint32

// Controller holds the enable/pending state for every registered line
// and aggregates them into a single external-interrupt signal.
type Controller struct {
	enabled map[Line]bool
	pending map[Line]bool
}

// New returns an empty Controller.
func New() *Controller {
	return &Controller{enabled: make(map[Line]bool), pending: make(map[Line]bool)}
}

// SetEnabled sets or clears line's enable bit.
func (c *Controller) SetEnabled(line Line, enabled bool) { c.enabled[line] = enabled }

// Enabled reports whether line is currently enabled.
func (c *Controller) Enabled(line Line) bool { return c.enabled[line] }

// Raise latches line's pending bit. Level-sensitive: repeated Raise
// calls before the source is serviced have no additional effect.
func (c *Controller) Raise(line Line) { c.pending[line] = true }

// Clear drops line's pending latch, e.g. once its peripheral's status
// register has been acknowledged.
func (c *Controller) Clear(line Line) { delete(c.pending, line) }

// Pending reports whether line's latch is currently set.
func (c *Controller) Pending(line Line) bool { return c.pending[line] }

// Signal reports whether any enabled line is pending -- the single
// boolean a CPU core's SetExternalInterrupt wants each tick.
func (c *Controller) Signal() bool {
	for line, pending := range c.pending {
		if pending && c.enabled[line] {
			return true
		}
	}
	return false
}

// Highest returns the lowest-numbered enabled+pending line, implementing
// the priority tie-break of §4.B for controllers that expose a "claim"
// register rather than a single aggregated signal.
func (c *Controller) Highest() (Line, bool) {
	var candidates []Line
	for line, pending := range c.pending {
		if pending && c.enabled[line] {
			candidates = append(candidates, line)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })
	return candidates[0], true
}

// WarmReset clears every pending latch but preserves enable state,
// matching the teacher's reset convention that masks survive a warm
// reset while transient status does not.
func (c *Controller) WarmReset() {
	for line := range c.pending {
		delete(c.pending, line)
	}
}

// UpdateReset clears both pending and enable state -- an update reset is
// a deeper reset than a warm one.
func (c *Controller) UpdateReset() {
	c.WarmReset()
	for line := range c.enabled {
		delete(c.enabled, line)
	}
}
