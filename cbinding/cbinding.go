// Package cbinding implements the stable C ABI embedding surface of §6:
// in-place init/step/destroy, UART output retrieval, GDB-mode queries,
// PC inspection, and an exit-request trigger, plus the external-shim
// installation hooks of §4.L. Entry points are exported via //export
// comments for a cgo c-archive build. The bus built by rv32emu_init maps
// only ROM and SRAM and has no UART, so rv32emu_get_uart_output always
// reports zero bytes.
//
// The opaque `void*` state pointers the spec calls for are modeled with
// runtime/cgo's Handle type rather than unsafe.Pointer arithmetic into
// a raw struct: Go's garbage collector must not see C-owned memory as
// holding live Go pointers, and cgo.Handle is the stdlib-sanctioned way
// to hand the C side an opaque reference to Go-owned state.
package cbinding

/*
#include <stdint.h>

typedef struct {
	int64_t rom_offset;
	int64_t rom_size;
	int64_t sram_offset;
	int64_t sram_size;
	uint16_t gdb_port;
	uint8_t manufacturing_mode;
} rv32emu_config_t;

typedef int (*rv32emu_shim_read_fn)(void* ctx, int size, uint32_t addr, uint32_t* out);
typedef int (*rv32emu_shim_write_fn)(void* ctx, int size, uint32_t addr, uint32_t val);

// Trampolines: cgo cannot invoke a C function pointer value directly
// from Go, so a tiny C helper performs the indirect call instead.
static inline int rv32emu_call_shim_read(rv32emu_shim_read_fn fn, void* ctx, int size, uint32_t addr, uint32_t* out) {
	return fn(ctx, size, addr, out);
}
static inline int rv32emu_call_shim_write(rv32emu_shim_write_fn fn, void* ctx, int size, uint32_t addr, uint32_t val) {
	return fn(ctx, size, addr, val);
}
*/
import "C"

import (
	"os"
	"runtime/cgo"
	"unsafe"

	"github.com/rs/zerolog"

	"github.com/user-none/go-chip-rv32/bus"
	"github.com/user-none/go-chip-rv32/clock"
	"github.com/user-none/go-chip-rv32/config"
	core "github.com/user-none/go-chip-rv32/core"
	"github.com/user-none/go-chip-rv32/gdbstub"
	"github.com/user-none/go-chip-rv32/stepper"
	"github.com/user-none/go-chip-rv32/system"
)

// StepResult mirrors §6's step() return enumeration.
type StepResult int32

const (
	ResultContinue StepResult = 0
	ResultBreak    StepResult = 1
	ResultExitOk   StepResult = 2
	ResultExitErr  StepResult = 3
)

// state is the Go-owned object a cgo.Handle refers to across the ABI
// boundary.
type state struct {
	cfg     config.Config
	sys     *system.System
	root    *bus.RootBus
	gdbMode bool
	gdbPort uint16
	running bool
	log     zerolog.Logger

	uartCaptured []byte
}

// noneOverride is the spec's -1-means-default sentinel for signed
// 64-bit configuration override fields (§6).
const noneOverride = -1

func applyInt64Override(dst *uint32, val C.int64_t) {
	if int64(val) == noneOverride {
		return
	}
	*dst = uint32(val)
}

//export rv32emu_init
func rv32emu_init(cCfg *C.rv32emu_config_t) C.uintptr_t {
	cfg := config.EmulatorMemoryMap()
	if cCfg != nil {
		applyInt64Override(&cfg.ROM.Offset, cCfg.rom_offset)
		applyInt64Override(&cfg.ROM.Size, cCfg.rom_size)
		applyInt64Override(&cfg.SRAM.Offset, cCfg.sram_offset)
		applyInt64Override(&cfg.SRAM.Size, cCfg.sram_size)
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	romMem := bus.NewMemoryPeripheral(cfg.ROM.Size, nil)
	sramMem := bus.NewMemoryPeripheral(cfg.SRAM.Size, nil)
	regions := []bus.Region{
		{Name: "rom", Offset: cfg.ROM.Offset, Size: cfg.ROM.Size, Property: bus.Memory, Peripheral: romMem},
		{Name: "sram", Offset: cfg.SRAM.Offset, Size: cfg.SRAM.Size, Property: bus.Memory, Peripheral: sramMem},
	}
	if err := bus.CheckOverlap(regions); err != nil {
		return 0
	}
	root := bus.NewRootBus(regions)

	// The RoT stepper is constructed first so that the MCU stepper, the
	// one the debugger drives, owns the shared bus's watch hook.
	rotCPU := core.New(root)
	rotCPU.SetPC(cfg.ROM.Offset)
	rotStep := stepper.New(rotCPU, root)

	mcuCPU := core.New(root)
	mcuCPU.SetPC(cfg.ROM.Offset)
	mcuStep := stepper.New(mcuCPU, root)

	clk := clock.New()
	sys := system.New(logger, mcuStep, rotStep, nil, clk)

	st := &state{
		cfg:     cfg,
		sys:     sys,
		root:    root,
		running: true,
		log:     logger,
		gdbPort: 0,
	}
	if cCfg != nil {
		st.gdbPort = uint16(cCfg.gdb_port)
		st.gdbMode = st.gdbPort != 0
	}

	h := cgo.NewHandle(st)
	return C.uintptr_t(h)
}

//export rv32emu_step
func rv32emu_step(handle C.uintptr_t) C.int {
	st := lookup(handle)
	if st == nil || !st.running {
		return C.int(ResultExitErr)
	}
	result := st.sys.Tick()
	switch result {
	case system.ResultExit:
		st.running = false
		return C.int(ResultExitOk)
	case system.ResultBreak:
		return C.int(ResultBreak)
	default:
		return C.int(ResultContinue)
	}
}

//export rv32emu_destroy
func rv32emu_destroy(handle C.uintptr_t) {
	h := cgo.Handle(handle)
	h.Delete()
}

//export rv32emu_get_uart_output
func rv32emu_get_uart_output(handle C.uintptr_t, buf *C.uint8_t, capacity C.int) C.int {
	st := lookup(handle)
	if st == nil {
		return -1
	}
	n := len(st.uartCaptured)
	if n > int(capacity) {
		n = int(capacity)
	}
	if n > 0 && buf != nil {
		dst := unsafe.Slice((*byte)(unsafe.Pointer(buf)), n)
		copy(dst, st.uartCaptured[:n])
	}
	return C.int(n)
}

//export rv32emu_is_gdb_mode
func rv32emu_is_gdb_mode(handle C.uintptr_t) C.int {
	st := lookup(handle)
	if st == nil || !st.gdbMode {
		return 0
	}
	return 1
}

//export rv32emu_run_gdb_server
func rv32emu_run_gdb_server(handle C.uintptr_t) C.int {
	st := lookup(handle)
	if st == nil || !st.gdbMode {
		return -1
	}
	target := gdbstub.New(st.log, st.sys.MCU())
	srv := gdbstub.NewServer(st.log, target)
	if err := srv.ListenAndServe(st.gdbPort); err != nil {
		st.log.Error().Err(err).Msg("cbinding: gdb server exited with error")
		return -1
	}
	return 0
}

//export rv32emu_get_pc
func rv32emu_get_pc(handle C.uintptr_t) C.uint32_t {
	st := lookup(handle)
	if st == nil {
		return 0
	}
	return C.uint32_t(st.sys.MCU().PC())
}

//export rv32emu_trigger_exit_request
func rv32emu_trigger_exit_request(handle C.uintptr_t) {
	st := lookup(handle)
	if st == nil {
		return
	}
	st.running = false
}

//export rv32emu_set_external_shim
func rv32emu_set_external_shim(handle C.uintptr_t, readFn C.rv32emu_shim_read_fn, writeFn C.rv32emu_shim_write_fn, ctx unsafe.Pointer) {
	st := lookup(handle)
	if st == nil {
		return
	}
	shim := bus.NewShim(
		func(size bus.Size, addr uint32) (uint32, bool) {
			if readFn == nil {
				return 0, false
			}
			var out C.uint32_t
			ok := C.rv32emu_call_shim_read(readFn, ctx, C.int(size), C.uint32_t(addr), &out)
			return uint32(out), ok != 0
		},
		func(size bus.Size, addr uint32, val uint32) bool {
			if writeFn == nil {
				return false
			}
			ok := C.rv32emu_call_shim_write(writeFn, ctx, C.int(size), C.uint32_t(addr), C.uint32_t(val))
			return ok != 0
		},
	)
	st.root.SetExternalShim(shim)
}

func lookup(handle C.uintptr_t) *state {
	h := cgo.Handle(handle)
	defer func() { recover() }() // a stale/bad handle panics Value(); treat as not-found
	v, ok := h.Value().(*state)
	if !ok {
		return nil
	}
	return v
}
