// Package uartio implements the console plumbing of §4.K: TX bytes are
// forwarded to stdout and optionally captured into a growable buffer;
// RX bytes arrive from a background terminal reader into a single-slot
// mailbox that the guest's UART peripheral drains.
package uartio

import (
	"bufio"
	"io"
	"sync"
)

// Output forwards guest TX bytes to an underlying writer (normally
// os.Stdout) and optionally captures them into a growable buffer
// returned at shutdown (§4.K).
type Output struct {
	w       io.Writer
	capture bool

	mu  sync.Mutex
	buf []byte
}

// NewOutput wraps w. When capture is true, every byte written is also
// appended to an internal buffer retrievable via Captured.
func NewOutput(w io.Writer, capture bool) *Output {
	return &Output{w: w, capture: capture}
}

// WriteByte forwards b to stdout and, if capturing, appends it.
func (o *Output) WriteByte(b byte) error {
	if _, err := o.w.Write([]byte{b}); err != nil {
		return err
	}
	if o.capture {
		o.mu.Lock()
		o.buf = append(o.buf, b)
		o.mu.Unlock()
	}
	return nil
}

// Captured returns a copy of the bytes captured so far.
func (o *Output) Captured() []byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]byte, len(o.buf))
	copy(out, o.buf)
	return out
}

// Mailbox is the single-slot, mutex-guarded stdin mailbox of §4.K and
// §5 ("a mutex-guarded single-byte stdin mailbox"). A background reader
// goroutine pushes into it; the guest's UART RX register reads and
// clears the slot.
type Mailbox struct {
	mu   sync.Mutex
	full bool
	b    byte
}

// NewMailbox returns an empty mailbox.
func NewMailbox() *Mailbox { return &Mailbox{} }

// Push stores b, overwriting any unread byte (the reader is expected to
// throttle itself against Take; overwrite-on-overflow keeps the
// producer from ever blocking, matching "no peripheral method may
// block" in §5).
func (m *Mailbox) Push(b byte) {
	m.mu.Lock()
	m.b = b
	m.full = true
	m.mu.Unlock()
}

// Take reads and clears the slot, reporting whether a byte was present.
func (m *Mailbox) Take() (byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.full {
		return 0, false
	}
	m.full = false
	return m.b, true
}

// Peek reports whether a byte is waiting, without consuming it.
func (m *Mailbox) Peek() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.full
}

// Backspace is the byte emitted by the guest-side line editor on
// underflow, per §4.K.
const Backspace = 0x08

// StdinReader reads bytes from r (normally os.Stdin, read as delivered;
// no raw terminal mode is set) on a background goroutine and pushes each into mb,
// stopping when running reports false or r returns an error.
type StdinReader struct {
	r       *bufio.Reader
	mb      *Mailbox
	running func() bool
}

// NewStdinReader constructs a reader. running is polled before each
// read so the process-wide emulator_running flag can terminate it
// idempotently (§5 "Cancellation").
func NewStdinReader(r io.Reader, mb *Mailbox, running func() bool) *StdinReader {
	return &StdinReader{r: bufio.NewReader(r), mb: mb, running: running}
}

// Run blocks, pushing bytes into the mailbox until running() is false
// or the underlying reader errors (e.g. EOF on stdin close).
func (s *StdinReader) Run() error {
	for s.running == nil || s.running() {
		b, err := s.r.ReadByte()
		if err != nil {
			return err
		}
		s.mb.Push(b)
	}
	return nil
}
