package bus

// ReadCallback and WriteCallback are the external-shim hooks of §4.L and
// §6: `(size, addr, data)` in, success out. Grounded directly on
// original_source's emulator/periph/src/external_shim.rs Shim type, with
// the Rust `Option<Box<dyn Fn>>` replaced by a plain nilable Go func
// value -- idiomatic Go has no need for the boxing.
type ReadCallback func(size Size, addr uint32) (uint32, bool)
type WriteCallback func(size Size, addr uint32, val uint32) bool

// Shim implements ExternalShim by delegating to caller-supplied
// callbacks, installed once at construction (§4.L). A nil callback
// always declines.
type Shim struct {
	read  ReadCallback
	write WriteCallback
}

// NewShim constructs a Shim. Either callback may be nil.
func NewShim(read ReadCallback, write WriteCallback) *Shim {
	return &Shim{read: read, write: write}
}

func (s *Shim) Read(size Size, addr uint32) (uint32, bool) {
	if s.read == nil {
		return 0, false
	}
	return s.read(size, addr)
}

func (s *Shim) Write(size Size, addr uint32, val uint32) bool {
	if s.write == nil {
		return false
	}
	return s.write(size, addr, val)
}
