// Package doe implements the DOE/SPDM Transport of §4.G: a framed
// data-object transport layered on the DOE mailbox MMIO region, with an
// in-transport discovery responder and an upcall pair for SPDM traffic.
package doe

import "errors"

// DataObjectType enumerates the object kinds recognized by the header
// (§4.G, §12 supplement carrying original_source's DataObjectType
// forward).
type DataObjectType uint32

const (
	DoeDiscovery DataObjectType = iota
	Spdm
	SecureSpdm
)

// NumDataObjectTypes is original_source's NUM_DATA_OBJECT_PROTOCOL_TYPES,
// carried forward verbatim as the modulus for discovery responses.
const NumDataObjectTypes = 3

var (
	// ErrBusy is returned by Transmit when a send is already in flight.
	ErrBusy = errors.New("doe: transmit already in flight")
	// ErrInvalid is returned when a header's type is unrecognized or its
	// declared length doesn't match the delivered word count.
	ErrInvalid = errors.New("doe: invalid data object")
)

// Header is the two-word prefix of every data object (§4.G).
type Header struct {
	VendorID uint16
	Type     DataObjectType
	LengthDW uint32 // length in double-words, including the header itself
}

// OnReceive is invoked when a complete inbound object has been
// reassembled and isn't handled in-transport (i.e. SPDM/SecureSpdm).
type OnReceive func(buf []uint32, lengthDW uint32)

// OnSendDone is invoked when an outstanding Transmit completes,
// reporting whether it succeeded.
type OnSendDone func(err error)

// Transport implements the framed object transport of §4.G.
type Transport struct {
	inFlight bool
	rxBuffer []uint32

	onReceive  OnReceive
	onSendDone OnSendDone
}

// New constructs an idle Transport. The upcalls may be set later via
// SetOnReceive/SetOnSendDone.
func New() *Transport {
	return &Transport{}
}

func (t *Transport) SetOnReceive(cb OnReceive)   { t.onReceive = cb }
func (t *Transport) SetOnSendDone(cb OnSendDone) { t.onSendDone = cb }

// SetRxBuffer hands the transport a buffer to use for the next
// reception (§4.G "set_rx_buffer(buffer)").
func (t *Transport) SetRxBuffer(buf []uint32) { t.rxBuffer = buf }

// Transmit sends one data object. Only one transmit may be in flight at
// a time; a second call before the first completes returns ErrBusy.
func (t *Transport) Transmit(hdr Header, payload []uint32) error {
	if t.inFlight {
		return ErrBusy
	}
	if hdr.LengthDW != uint32(2+len(payload)) {
		return ErrInvalid
	}

	t.inFlight = true
	defer func() { t.inFlight = false }()

	switch hdr.Type {
	case DoeDiscovery:
		resp := t.discoveryResponse(payload)
		if t.onReceive != nil {
			t.onReceive(resp, uint32(len(resp)))
		}
	case Spdm, SecureSpdm:
		if t.onReceive != nil {
			t.onReceive(payload, hdr.LengthDW-2)
		}
	default:
		if t.onSendDone != nil {
			t.onSendDone(ErrInvalid)
		}
		return ErrInvalid
	}

	if t.onSendDone != nil {
		t.onSendDone(nil)
	}
	return nil
}

// discoveryResponse computes the next supported type id modulo the
// table size, per §4.G: "returning the next supported type id modulo
// the table size".
func (t *Transport) discoveryResponse(payload []uint32) []uint32 {
	var index uint32
	if len(payload) > 0 {
		index = payload[0]
	}
	next := (index + 1) % NumDataObjectTypes
	return []uint32{next}
}

// Deliver feeds a raw word buffer in, decoding the header and
// dispatching like Transmit would for an inbound (not locally
// originated) object. It enforces the header/length match rule and
// drops mismatched frames, releasing the rx buffer, per §4.G.
func (t *Transport) Deliver(words []uint32) error {
	if len(words) < 2 {
		return ErrInvalid
	}
	vendor := uint16(words[0] & 0xffff)
	typ := DataObjectType(words[0] >> 16)
	lengthDW := words[1]
	payload := words[2:]

	if lengthDW != uint32(2+len(payload)) {
		t.rxBuffer = nil // release the buffer on mismatch
		return ErrInvalid
	}

	hdr := Header{VendorID: vendor, Type: typ, LengthDW: lengthDW}
	return t.Transmit(hdr, payload)
}
