// Package lc models the device lifecycle controller of §12
// (SUPPLEMENTED FEATURES: "Security state / device lifecycle"),
// grounded on original_source's mci.rs device_lifecycle_state: a small
// set of lifecycle states gating manufacturing-mode behavior.
package lc

import "github.com/user-none/go-chip-rv32/bus"

// State is the device lifecycle state.
type State uint32

const (
	Unprovisioned State = iota
	Manufacturing
	Production
	ProductionEndOrFail
)

const regState = 0x00 // RO from the guest's perspective; set at construction

// LC is a single read-only register exposing the lifecycle state to
// guest firmware.
type LC struct {
	state State
}

// New constructs an LC peripheral fixed at the given state for this run
// (the state transitions out-of-band, via re-provisioning tooling not
// modeled here -- guest firmware only ever observes it).
func New(state State) *LC {
	return &LC{state: state}
}

// State returns the controller's current lifecycle state.
func (l *LC) State() State { return l.state }

func (l *LC) Read(size bus.Size, addr uint32) (uint32, error) {
	if size != bus.Word || addr%4 != 0 {
		return 0, bus.ErrLoadAddrMisaligned
	}
	if addr != regState {
		return 0, bus.ErrLoadAccessFault
	}
	return uint32(l.state), nil
}

func (l *LC) Write(size bus.Size, addr uint32, val uint32) error {
	if size != bus.Word || addr%4 != 0 {
		return bus.ErrStoreAddrMisaligned
	}
	return bus.ErrStoreAccessFault // read-only from the guest's side
}

func (l *LC) Poll() {}

func (l *LC) WarmReset()   {}
func (l *LC) UpdateReset() {}
