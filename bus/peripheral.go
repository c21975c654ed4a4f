// Package bus implements the address-decode fabric described in §4.D of
// the specification: a fixed region table routing word-aligned loads and
// stores to peripherals, with an ordered fallback chain of delegate buses
// and, as a last resort, an external shim.
package bus

import (
	"errors"

	core "github.com/user-none/go-chip-rv32/core"
	"github.com/user-none/go-chip-rv32/events"
)

// Size re-exports core.Size so peripheral implementations don't need to
// import the core package directly just for the access-width type.
type Size = core.Size

const (
	Byte = core.Byte
	Half = core.Half
	Word = core.Word
)

var (
	ErrLoadAccessFault     = core.ErrLoadAccessFault
	ErrLoadAddrMisaligned  = core.ErrLoadAddrMisaligned
	ErrStoreAccessFault    = core.ErrStoreAccessFault
	ErrStoreAddrMisaligned = core.ErrStoreAddrMisaligned

	// ErrWatchpoint is returned by RootBus.Read/Write when the access
	// matched an installed hardware watchpoint (§4.E(a)); core.CPU
	// recognizes it and aborts the instruction without trapping.
	ErrWatchpoint = core.ErrWatchpoint
)

// ErrRegionOverlap is a fatal configuration error: two regions' extents
// intersect after offset/size overrides are applied.
var ErrRegionOverlap = errors.New("bus: region extents overlap")

// Peripheral is the uniform contract every MMIO-backed device implements
// (§3 Peripheral model). One optional extension interface,
// EventChannelPeer, lets specific peripherals opt into inter-CPU
// messaging without widening this contract for devices that don't need
// it.
type Peripheral interface {
	Read(size Size, addr uint32) (uint32, error)
	Write(size Size, addr uint32, val uint32) error

	// Poll advances internal state by exactly one tick. Called once per
	// peripheral per system tick regardless of whether any timer was
	// scheduled; scheduling is an optimization hint only (§4.A).
	Poll()

	WarmReset()
	UpdateReset()
}

// EventChannelPeer is implemented by peripherals that exchange
// out-of-band messages with their counterpart on the other CPU (the
// recovery controller's mailbox side, the DOE mailbox bridge, ...).
type EventChannelPeer interface {
	RegisterEventChannels(txToPeer events.Tx, rxFromPeer events.Rx, txToSelf events.Tx, rxFromSelf events.Rx)
}
