package gdbstub

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/user-none/go-chip-rv32/stepper"
)

// Server is a minimal GDB remote serial protocol front-end over TCP,
// single-threaded, single-target, per §6 "Debugger" and §4.I.
type Server struct {
	log    zerolog.Logger
	target *Target
}

// NewServer constructs a Server driving target.
func NewServer(log zerolog.Logger, target *Target) *Server {
	return &Server{log: log, target: target}
}

// ListenAndServe binds port and serves a single debugger connection at
// a time, per §5's single-threaded concurrency model (the protocol
// server synchronously calls step when resuming).
func (s *Server) ListenAndServe(port uint16) error {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return err
	}
	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		s.serveConn(conn)
		if err := conn.Close(); err != nil {
			s.log.Warn().Err(err).Msg("gdbstub: error closing connection")
		}
	}
}

func (s *Server) serveConn(conn net.Conn) {
	r := bufio.NewReader(conn)
	for {
		pkt, ok := readPacket(r)
		if !ok {
			return
		}
		fmt.Fprint(conn, "+") // acknowledge
		resp := s.dispatch(pkt)
		writePacket(conn, resp)
	}
}

// readPacket reads one RSP packet ("$<data>#<checksum>"), discarding
// ack/nak bytes ('+'/'-') that precede it.
func readPacket(r *bufio.Reader) (string, bool) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", false
		}
		if b == '+' || b == '-' {
			continue
		}
		if b == 0x03 { // Ctrl+C, out-of-band interrupt
			return "\x03", true
		}
		if b != '$' {
			continue
		}
		break
	}
	var sb strings.Builder
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", false
		}
		if b == '#' {
			break
		}
		sb.WriteByte(b)
	}
	// consume two checksum hex digits
	if _, err := r.ReadByte(); err != nil {
		return "", false
	}
	if _, err := r.ReadByte(); err != nil {
		return "", false
	}
	return sb.String(), true
}

func writePacket(conn net.Conn, data string) {
	checksum := 0
	for i := 0; i < len(data); i++ {
		checksum += int(data[i])
	}
	fmt.Fprintf(conn, "$%s#%02x", data, checksum&0xff)
}

// dispatch handles one RSP command and returns the reply payload
// (without the $...# framing, added by writePacket).
func (s *Server) dispatch(pkt string) string {
	if pkt == "\x03" {
		s.target.RequestInterrupt()
		return s.runAndReport()
	}
	if len(pkt) == 0 {
		return ""
	}

	switch pkt[0] {
	case '?':
		return stopReply(DoneStep)
	case 'g':
		return s.readRegistersReply()
	case 'G':
		return s.writeRegisters(pkt[1:])
	case 'm':
		return s.readMemory(pkt[1:])
	case 'M':
		return s.writeMemory(pkt[1:])
	case 'c':
		s.target.SetMode(ModeContinue)
		return s.runAndReport()
	case 's':
		s.target.SetMode(ModeStep)
		return s.runAndReport()
	case 'Z':
		return s.insertBreakWatch(pkt[1:])
	case 'z':
		return s.removeBreakWatch(pkt[1:])
	case 'q':
		return s.query(pkt)
	default:
		return ""
	}
}

func (s *Server) runAndReport() string {
	reason := s.target.Run()
	return stopReply(reason)
}

func stopReply(reason StopReason) string {
	switch reason {
	case DoneStep:
		return "S05"
	case SwBreak:
		return "S05"
	case Watch:
		return "S05"
	case SignalStop:
		return "S02"
	case Exited:
		return "W00"
	default:
		return "S05"
	}
}

func (s *Server) readRegistersReply() string {
	regs := s.target.ReadRegisters()
	var sb strings.Builder
	for _, v := range regs {
		sb.WriteString(leHex32(v))
	}
	return sb.String()
}

func (s *Server) writeRegisters(hexData string) string {
	var regs [33]uint32
	for i := 0; i < 33 && len(hexData) >= (i+1)*8; i++ {
		regs[i] = parseLEHex32(hexData[i*8 : (i+1)*8])
	}
	s.target.WriteRegisters(regs)
	return "OK"
}

func (s *Server) readMemory(args string) string {
	parts := strings.SplitN(args, ",", 2)
	if len(parts) != 2 {
		return "E01"
	}
	addr, err1 := strconv.ParseUint(parts[0], 16, 32)
	length, err2 := strconv.ParseUint(parts[1], 16, 32)
	if err1 != nil || err2 != nil {
		return "E01"
	}
	data, err := s.target.ReadMemory(uint32(addr), int(length))
	if err != nil {
		return "E02"
	}
	var sb strings.Builder
	for _, b := range data {
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}

func (s *Server) writeMemory(args string) string {
	head, hexData, ok := strings.Cut(args, ":")
	if !ok {
		return "E01"
	}
	parts := strings.SplitN(head, ",", 2)
	if len(parts) != 2 {
		return "E01"
	}
	addr, err1 := strconv.ParseUint(parts[0], 16, 32)
	if err1 != nil {
		return "E01"
	}
	data := make([]byte, len(hexData)/2)
	for i := range data {
		v, err := strconv.ParseUint(hexData[i*2:i*2+2], 16, 8)
		if err != nil {
			return "E01"
		}
		data[i] = byte(v)
	}
	if err := s.target.WriteMemory(uint32(addr), data); err != nil {
		return "E02"
	}
	return "OK"
}

// insertBreakWatch handles Z0 (software breakpoint) and Z2/Z3/Z4
// (write/read/access watchpoints), per §4.I.
func (s *Server) insertBreakWatch(args string) string {
	kind, addr, length, ok := parseBreakWatchArgs(args)
	if !ok {
		return "E01"
	}
	switch kind {
	case 0:
		s.target.AddBreakpoint(addr)
	case 2:
		s.target.AddWatchpoint(addr, length, stepper.WatchWrite)
	case 3:
		s.target.AddWatchpoint(addr, length, stepper.WatchRead)
	case 4:
		s.target.AddWatchpoint(addr, length, stepper.WatchAccess)
	default:
		return ""
	}
	return "OK"
}

func (s *Server) removeBreakWatch(args string) string {
	kind, addr, length, ok := parseBreakWatchArgs(args)
	if !ok {
		return "E01"
	}
	switch kind {
	case 0:
		s.target.RemoveBreakpoint(addr)
	case 2:
		s.target.RemoveWatchpoint(addr, length, stepper.WatchWrite)
	case 3:
		s.target.RemoveWatchpoint(addr, length, stepper.WatchRead)
	case 4:
		s.target.RemoveWatchpoint(addr, length, stepper.WatchAccess)
	default:
		return ""
	}
	return "OK"
}

// parseBreakWatchArgs parses "<kind>,<addr>,<length>" from a Z/z
// packet's remainder (the leading Z/z and type digit are split apart
// by the caller's pkt[1:] already stripping the verb, so args here is
// "<type>,<addr>,<length>").
func parseBreakWatchArgs(args string) (kind int, addr, length uint32, ok bool) {
	parts := strings.Split(args, ",")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	k, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, false
	}
	a, err := strconv.ParseUint(parts[1], 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	l, err := strconv.ParseUint(parts[2], 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return k, uint32(a), uint32(l), true
}

func (s *Server) query(pkt string) string {
	switch {
	case strings.HasPrefix(pkt, "qSupported"):
		return "PacketSize=1000;swbreak+;hwbreak+"
	case pkt == "qAttached":
		return "1"
	default:
		return ""
	}
}

func leHex32(v uint32) string {
	return fmt.Sprintf("%02x%02x%02x%02x", v&0xff, (v>>8)&0xff, (v>>16)&0xff, (v>>24)&0xff)
}

func parseLEHex32(hex string) uint32 {
	b0, _ := strconv.ParseUint(hex[0:2], 16, 8)
	b1, _ := strconv.ParseUint(hex[2:4], 16, 8)
	b2, _ := strconv.ParseUint(hex[4:6], 16, 8)
	b3, _ := strconv.ParseUint(hex[6:8], 16, 8)
	return uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16 | uint32(b3)<<24
}
