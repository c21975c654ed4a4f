package bus

import "sort"

// ExternalShim is implemented by the last-resort callback pair described
// in §4.L. It's consulted only after the region table and every delegate
// bus have declined the access.
type ExternalShim interface {
	Read(size Size, addr uint32) (uint32, bool)
	Write(size Size, addr uint32, val uint32) bool
}

// DelegateBus is a fallback bus consulted in order when no region table
// entry claims an address (§4.D step 3) -- e.g. a locally-owned
// catch-all for ROM/SRAM/DCCM/UART, or the cross-CPU mailbox bridge.
type DelegateBus interface {
	Read(size Size, addr uint32) (uint32, bool, error)
	Write(size Size, addr uint32, val uint32) (bool, error)
}

// WatchHook is consulted before every dispatch and reports whether addr
// matches an installed hardware watchpoint (§4.E(a)); write is true for
// stores. The stepper installs one so the CPU stepping on this bus can
// stop with BreakWatch without the access ever reaching a peripheral.
type WatchHook func(size Size, addr uint32, write bool) bool

// RootBus is the address decoder of §4.D: a fixed, offset-sorted region
// table plus an ordered chain of delegate buses and an optional external
// shim.
type RootBus struct {
	regions   []Region
	delegates []DelegateBus
	shim      ExternalShim
	watch     WatchHook
}

// NewRootBus builds a decoder from regions, which must already satisfy
// CheckOverlap; the caller validates configuration before constructing
// the bus (invariant 2 is a fatal error before stepping begins, not a
// per-access runtime check).
func NewRootBus(regions []Region) *RootBus {
	sorted := make([]Region, len(regions))
	copy(sorted, regions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })
	return &RootBus{regions: sorted}
}

// AddDelegate appends a fallback bus, consulted in registration order.
func (rb *RootBus) AddDelegate(d DelegateBus) { rb.delegates = append(rb.delegates, d) }

// SetExternalShim installs the last-resort callback pair.
func (rb *RootBus) SetExternalShim(s ExternalShim) { rb.shim = s }

// SetWatchHook installs the hardware-watchpoint predicate. Only one CPU's
// stepper is expected to drive a given RootBus (the MCU stepper; the
// root-of-trust CPU has no debugger attached), so there is a single hook,
// not a chain.
func (rb *RootBus) SetWatchHook(h WatchHook) { rb.watch = h }

// find performs the binary search of §4.D step 2 over the offset-sorted
// region table, returning the region containing addr if its full access
// width fits within the region's extent.
func (rb *RootBus) find(addr uint32, size Size) (Region, bool) {
	n := len(rb.regions)
	i := sort.Search(n, func(i int) bool { return rb.regions[i].Offset+rb.regions[i].Size > addr })
	if i >= n {
		return Region{}, false
	}
	r := rb.regions[i]
	if r.Peripheral == nil || !r.contains(addr, size) {
		return Region{}, false
	}
	return r, true
}

// Read implements the dispatch algorithm of §4.D for loads issued by the
// CPU bound to this bus; it is subject to the installed WatchHook.
func (rb *RootBus) Read(size Size, addr uint32) (uint32, error) {
	if rb.watch != nil && rb.watch(size, addr, false) {
		return 0, ErrWatchpoint
	}
	return rb.DebugRead(size, addr)
}

// Write implements the dispatch algorithm of §4.D for stores issued by
// the CPU bound to this bus; it is subject to the installed WatchHook.
func (rb *RootBus) Write(size Size, addr uint32, val uint32) error {
	if rb.watch != nil && rb.watch(size, addr, true) {
		return ErrWatchpoint
	}
	return rb.DebugWrite(size, addr, val)
}

// DebugRead performs the same dispatch as Read but bypasses the watch
// hook: watchpoints fire on the guest's own pending loads/stores
// (§4.E(a)), not on the debugger's memory-inspection commands (§4.I).
func (rb *RootBus) DebugRead(size Size, addr uint32) (uint32, error) {
	if r, ok := rb.find(addr, size); ok {
		if r.Property == MMIO {
			if size != Word || addr%4 != 0 {
				return 0, ErrLoadAddrMisaligned
			}
		}
		return r.Peripheral.Read(size, addr-r.Offset)
	}

	for _, d := range rb.delegates {
		if v, handled, err := d.Read(size, addr); handled {
			return v, err
		}
	}

	if rb.shim != nil {
		if v, ok := rb.shim.Read(size, addr); ok {
			return v, nil
		}
	}

	return 0, ErrLoadAccessFault
}

// DebugWrite performs the same dispatch as Write but bypasses the watch
// hook, for the same reason as DebugRead.
func (rb *RootBus) DebugWrite(size Size, addr uint32, val uint32) error {
	if r, ok := rb.find(addr, size); ok {
		if r.Property == MMIO {
			if size != Word || addr%4 != 0 {
				return ErrStoreAddrMisaligned
			}
		}
		return r.Peripheral.Write(size, addr-r.Offset, val)
	}

	for _, d := range rb.delegates {
		if handled, err := d.Write(size, addr, val); handled {
			return err
		}
	}

	if rb.shim != nil {
		if rb.shim.Write(size, addr, val) {
			return nil
		}
	}

	return ErrStoreAccessFault
}

// Poll advances every peripheral with an entry in the region table by one
// tick, in table order. Delegate buses manage their own peripherals'
// polling.
func (rb *RootBus) Poll() {
	for _, r := range rb.regions {
		if r.Peripheral != nil {
			r.Peripheral.Poll()
		}
	}
}

// WarmReset resets every peripheral in the region table (invariant 5).
func (rb *RootBus) WarmReset() {
	for _, r := range rb.regions {
		if r.Peripheral != nil {
			r.Peripheral.WarmReset()
		}
	}
}

// UpdateReset applies an update-reset to every peripheral in the region
// table.
func (rb *RootBus) UpdateReset() {
	for _, r := range rb.regions {
		if r.Peripheral != nil {
			r.Peripheral.UpdateReset()
		}
	}
}

// Regions returns a copy of the offset-sorted region table, e.g. for the
// debugger adapter's memory map reporting.
func (rb *RootBus) Regions() []Region {
	out := make([]Region, len(rb.regions))
	copy(out, rb.regions)
	return out
}
