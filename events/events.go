// Package events implements the inter-CPU message channels described in
// §3 and §5 of the specification: tagged messages flowing FIFO,
// single-producer/single-consumer, between peer peripherals on opposite
// CPUs. A message sent during tick T is only observable by the peer at
// tick >= T+1 -- callers enforce this by only draining a channel once
// per tick, from the system step loop, never mid-instruction.
package events

import "fmt"

// Kind tags the payload carried by an Event.
type Kind uint8

const (
	RecoveryImageAvailable Kind = iota
	RecoveryActivateRequested
	RecoveryAck
	RecoveryError
	MailboxDoorbell
)

func (k Kind) String() string {
	switch k {
	case RecoveryImageAvailable:
		return "RecoveryImageAvailable"
	case RecoveryActivateRequested:
		return "RecoveryActivateRequested"
	case RecoveryAck:
		return "RecoveryAck"
	case RecoveryError:
		return "RecoveryError"
	case MailboxDoorbell:
		return "MailboxDoorbell"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Event is a tagged message exchanged between peer peripherals across the
// two CPUs (§3 Event). Image is only populated for RecoveryImageAvailable.
type Event struct {
	Kind  Kind
	Image []byte
}

// DefaultCapacity bounds the otherwise-"unbounded" channel described in
// §3/§9: large enough that no realistic boot sequence overflows it, small
// enough that a buggy peripheral that floods its peer surfaces Busy
// instead of growing memory without limit (§9 "Cyclic peer references").
const DefaultCapacity = 64

// Pair is one direction of a FIFO single-producer/single-consumer link.
// Tx and Rx are the same underlying channel split into directional
// handles so a peripheral's RegisterEventChannels implementation can't
// accidentally read from its own send side.
type Pair struct {
	ch chan Event
}

// NewPair creates a new bounded FIFO event pair.
func NewPair() *Pair {
	return &Pair{ch: make(chan Event, DefaultCapacity)}
}

// ErrBusy is returned by Send when the channel is full -- the bounded
// stand-in for "unbounded" the spec's open design note allows (§9).
var ErrBusy = busyError{}

type busyError struct{}

func (busyError) Error() string { return "events: channel full" }

// Send enqueues ev without blocking. Returns ErrBusy if the channel is
// full rather than blocking the caller, since no peripheral method may
// block (§5).
func (p *Pair) Send(ev Event) error {
	select {
	case p.ch <- ev:
		return nil
	default:
		return ErrBusy
	}
}

// TryRecv returns the next queued event, if any, without blocking.
func (p *Pair) TryRecv() (Event, bool) {
	select {
	case ev := <-p.ch:
		return ev, true
	default:
		return Event{}, false
	}
}

// Tx is the send-only handle to a Pair.
type Tx interface {
	Send(Event) error
}

// Rx is the receive-only handle to a Pair.
type Rx interface {
	TryRecv() (Event, bool)
}
