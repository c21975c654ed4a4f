// Package recovery implements the recovery controller of §4.F (the
// "BMC"): an out-of-band agent that streams firmware images to the
// root-of-trust CPU's recovery mailbox on demand, one at a time, in
// queue order.
package recovery

import (
	"github.com/rs/zerolog"

	"github.com/user-none/go-chip-rv32/events"
)

// State names the controller's position in the per-image state machine
// of §4.F.
type State int

const (
	Idle State = iota
	ImageOffered
	ActivateRequested
	Streaming
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case ImageOffered:
		return "ImageOffered"
	case ActivateRequested:
		return "ActivateRequested"
	case Streaming:
		return "Streaming"
	default:
		return "Unknown"
	}
}

// Controller drains a pre-seeded queue of opaque firmware blobs to the
// root-of-trust CPU, one transition per Step call (§4.F: "at most one
// transition per tick").
type Controller struct {
	log   zerolog.Logger
	queue [][]byte
	sent  int // count of images fully delivered -- monotonic, never decreases

	state  State
	blob   []byte
	offset int

	tx events.Tx // to the root-of-trust CPU's recovery mailbox peripheral
	rx events.Rx // from the same
}

// New constructs a Controller pre-seeded with queue, delivered in
// order. tx/rx must come from the root-of-trust CPU's recovery mailbox
// peripheral's registered event channels; per §9's Open Question
// resolution, constructing a Controller before both channels are known
// is a programming error the caller must avoid -- a nil tx or rx here
// will panic the first time a transition is attempted, which is the
// "fatal assertion rather than silently dropping" the design notes call
// for.
func New(log zerolog.Logger, queue [][]byte, tx events.Tx, rx events.Rx) *Controller {
	q := make([][]byte, len(queue))
	copy(q, queue)
	return &Controller{log: log, queue: q, tx: tx, rx: rx, state: Idle}
}

// Delivered returns the number of images fully completed so far. This
// is the monotonically non-decreasing "consumed-prefix length" of §8
// invariant 4.
func (c *Controller) Delivered() int { return c.sent }

// Remaining returns the queue depth not yet offered.
func (c *Controller) Remaining() int { return len(c.queue) }

// CurrentState reports the controller's position in the state machine.
func (c *Controller) CurrentState() State { return c.state }

// Step performs at most one state transition, per §4.F. The peer channel
// is only drained in the states that actually consume an event
// (ImageOffered, Streaming) -- Idle and ActivateRequested transition on
// their own and must leave a pending event queued for the arm that
// expects it, rather than dequeuing and discarding it.
func (c *Controller) Step() {
	switch c.state {
	case Idle:
		if len(c.queue) == 0 {
			return
		}
		c.blob = c.queue[0]
		c.queue = c.queue[1:]
		c.offset = 0
		c.state = ImageOffered
		if err := c.tx.Send(events.Event{Kind: events.RecoveryImageAvailable, Image: c.blob}); err != nil {
			c.log.Warn().Err(err).Msg("recovery: peer channel busy offering image")
		}

	case ImageOffered:
		ev, ok := c.rx.TryRecv()
		if !ok {
			return
		}
		switch ev.Kind {
		case events.RecoveryActivateRequested:
			c.state = ActivateRequested
		default:
			c.fail("unexpected event while image offered")
		}

	case ActivateRequested:
		c.state = Streaming

	case Streaming:
		ev, ok := c.rx.TryRecv()
		if !ok {
			return
		}
		switch ev.Kind {
		case events.RecoveryAck:
			c.offset++
			c.sent++
			c.state = Idle
		case events.RecoveryError:
			c.fail("peer reported recovery error")
		default:
			c.fail("malformed request during streaming")
		}
	}
}

// fail implements the failure policy of §4.F: log, discard the current
// blob, return to Idle, and surface an error event to the peer.
func (c *Controller) fail(reason string) {
	c.log.Warn().Str("state", c.state.String()).Str("reason", reason).Msg("recovery: transition failed")
	c.blob = nil
	c.offset = 0
	c.state = Idle
	if err := c.tx.Send(events.Event{Kind: events.RecoveryError}); err != nil {
		c.log.Warn().Err(err).Msg("recovery: failed to surface error event, peer channel busy")
	}
}
