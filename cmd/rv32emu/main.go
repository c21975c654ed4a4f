// Command rv32emu is the CLI entry point of §6: it parses flags into a
// config.Config, wires up the bus/peripherals/system step loop, and
// either runs freestanding to completion or serves a GDB remote-serial
// debugger session.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/user-none/go-chip-rv32/bus"
	"github.com/user-none/go-chip-rv32/clock"
	"github.com/user-none/go-chip-rv32/config"
	core "github.com/user-none/go-chip-rv32/core"
	"github.com/user-none/go-chip-rv32/events"
	"github.com/user-none/go-chip-rv32/gdbstub"
	"github.com/user-none/go-chip-rv32/irq"
	"github.com/user-none/go-chip-rv32/peripherals/dma"
	"github.com/user-none/go-chip-rv32/peripherals/doemailbox"
	"github.com/user-none/go-chip-rv32/peripherals/flash"
	"github.com/user-none/go-chip-rv32/peripherals/i3c"
	"github.com/user-none/go-chip-rv32/peripherals/lc"
	"github.com/user-none/go-chip-rv32/peripherals/mailbox"
	"github.com/user-none/go-chip-rv32/peripherals/mci"
	"github.com/user-none/go-chip-rv32/peripherals/otp"
	"github.com/user-none/go-chip-rv32/peripherals/pic"
	"github.com/user-none/go-chip-rv32/peripherals/soc"
	"github.com/user-none/go-chip-rv32/peripherals/uart"
	"github.com/user-none/go-chip-rv32/recovery"
	"github.com/user-none/go-chip-rv32/stepper"
	"github.com/user-none/go-chip-rv32/system"
	"github.com/user-none/go-chip-rv32/uartio"
)

// flags holds every CLI option named in §6.
type flags struct {
	rom, firmware              string
	caliptraROM, caliptraFW    string
	socManifest                string
	otpPath                    string
	gdbPort, i3cPort           uint16
	logDir                     string
	traceInstr                 bool
	noStdinUART                bool
	manufacturingMode          bool
	vendorPKHash, ownerPKHash  string
	streamingBoot              bool
	primaryFlashImage          string
	secondaryFlashImage        string
	hwRevision                 string

	regionOverrides map[string]string // "<region>-offset"/"<region>-size" -> raw hex string
}

// regionFlagNames are the CLI name fragments for every configurable
// region's --<region>-offset/--<region>-size pair (§6).
var regionFlagNames = []string{"rom", "sram", "dccm", "pic", "uart", "i3c", "flash-a", "flash-b", "mci", "dma", "mailbox", "soc", "otp", "lc", "doe"}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(initFailureCode)
	}
}

// initFailureCode is the negative exit code §6 specifies for
// initialization failures (argument parsing, image loading, memory
// overlap).
const initFailureCode = -1

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "rv32emu",
		Short: "cycle-stepped functional emulator for a two-CPU security subsystem",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.regionOverrides = make(map[string]string)
			for _, name := range regionFlagNames {
				for _, suffix := range []string{"-offset", "-size"} {
					flagName := name + suffix
					if cmd.Flags().Changed(flagName) {
						v, _ := cmd.Flags().GetString(flagName)
						f.regionOverrides[flagName] = v
					}
				}
			}
			return run(f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.rom, "rom", "", "MCU ROM image path (required; not loaded: both CPUs start from the --caliptra-rom image)")
	fl.StringVar(&f.firmware, "firmware", "", "MCU firmware image path (required)")
	fl.StringVar(&f.caliptraROM, "caliptra-rom", "", "root-of-trust ROM image path (required)")
	fl.StringVar(&f.caliptraFW, "caliptra-firmware", "", "root-of-trust firmware image path (required)")
	fl.StringVar(&f.socManifest, "soc-manifest", "", "SoC manifest image path (required)")
	fl.StringVar(&f.otpPath, "otp", "", "persistent fuse file")
	fl.Uint16Var(&f.gdbPort, "gdb-port", 0, "GDB remote-serial-protocol TCP port (0 disables)")
	fl.Uint16Var(&f.i3cPort, "i3c-port", 0, "I3C bridge TCP port (accepted; no bridge is opened)")
	fl.StringVar(&f.logDir, "log-dir", "", "switch logging to JSON on stderr (no files are written to the directory)")
	fl.BoolVar(&f.traceInstr, "trace-instr", false, "trace every retired instruction (accepted; has no effect)")
	fl.BoolVar(&f.noStdinUART, "no-stdin-uart", false, "disable forwarding stdin to the UART RX mailbox")
	fl.BoolVar(&f.manufacturingMode, "manufacturing-mode", false, "run with the lifecycle controller in Manufacturing state")
	fl.StringVar(&f.vendorPKHash, "vendor-pk-hash", "", "hex-encoded vendor public key hash")
	fl.StringVar(&f.ownerPKHash, "owner-pk-hash", "", "hex-encoded owner public key hash")
	fl.BoolVar(&f.streamingBoot, "streaming-boot", false, "enable streaming boot mode")
	fl.StringVar(&f.primaryFlashImage, "primary-flash-image", "", "primary flash backing image path")
	fl.StringVar(&f.secondaryFlashImage, "secondary-flash-image", "", "secondary flash backing image path")
	fl.StringVar(&f.hwRevision, "hw-revision", "2.0.0", "hardware revision (semver)")

	for _, name := range regionFlagNames {
		fl.String(name+"-offset", "", "override the "+name+" region's offset (0x-prefixed hex)")
		fl.String(name+"-size", "", "override the "+name+" region's size (0x-prefixed hex)")
	}

	for _, req := range []string{"rom", "firmware", "caliptra-rom", "caliptra-firmware", "soc-manifest"} {
		_ = cmd.MarkFlagRequired(req)
	}

	return cmd
}

func setupLogger(logDir string) zerolog.Logger {
	if logDir == "" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return log.Logger.With().Timestamp().Logger()
}

func run(f flags) error {
	logger := setupLogger(f.logDir)
	cfg := config.EmulatorMemoryMap()
	cfg.HWRevision = f.hwRevision

	if err := applyRegionOverrides(&cfg, f.regionOverrides); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	romImage, err := config.LoadImage(f.caliptraROM, cfg.ROM.Offset)
	if err != nil {
		return err
	}
	fwImage, err := config.LoadImage(f.caliptraFW, cfg.SRAM.Offset)
	if err != nil {
		return err
	}

	romMem := bus.NewMemoryPeripheral(cfg.ROM.Size, romImage)
	sramMem := bus.NewMemoryPeripheral(cfg.SRAM.Size, fwImage)
	dccmMem := bus.NewMemoryPeripheral(cfg.DCCM.Size, nil)

	irqCtrl := irq.New()
	clk := clock.New()

	otpStore, err := otp.New(cfg.OTP.Size, f.otpPath)
	if err != nil {
		return err
	}

	lifecycle := lc.Unprovisioned
	if f.manufacturingMode {
		lifecycle = lc.Manufacturing
	}
	lcCtrl := lc.New(lifecycle)

	out := uartio.NewOutput(os.Stdout, true)
	in := uartio.NewMailbox()
	uartPeriph := uart.New(out, in)

	picPeriph := pic.New(irqCtrl)
	mciPeriph := mci.New(clk)
	i3cPeriph := i3c.New()

	var primaryFlashImage, secondaryFlashImage []byte
	if f.primaryFlashImage != "" {
		primaryFlashImage, err = os.ReadFile(f.primaryFlashImage)
		if err != nil {
			return err
		}
	}
	if f.secondaryFlashImage != "" {
		secondaryFlashImage, err = os.ReadFile(f.secondaryFlashImage)
		if err != nil {
			return err
		}
	}
	flashA := flash.New(primaryFlashImage, dma.NewHandle(sramMem))
	flashB := flash.New(secondaryFlashImage, dma.NewHandle(sramMem))
	dmaCtrl := dma.New(logger, dma.NewHandle(sramMem), dma.NewHandle(dccmMem))

	mboxPeriph := mailbox.New()
	doePeriph := doemailbox.New()
	vendorHash, err := decodeHexHash(f.vendorPKHash)
	if err != nil {
		return fmt.Errorf("vendor-pk-hash: %w", err)
	}
	ownerHash, err := decodeHexHash(f.ownerPKHash)
	if err != nil {
		return fmt.Errorf("owner-pk-hash: %w", err)
	}
	socPeriph := soc.New(soc.Config{
		HWRevisionMajor:   2,
		VendorPKHash:      vendorHash,
		OwnerPKHash:       ownerHash,
		StreamingBoot:     f.streamingBoot,
		ManufacturingMode: f.manufacturingMode,
	})

	regions := []bus.Region{
		{Name: "rom", Offset: cfg.ROM.Offset, Size: cfg.ROM.Size, Property: bus.Memory, Peripheral: romMem},
		{Name: "sram", Offset: cfg.SRAM.Offset, Size: cfg.SRAM.Size, Property: bus.Memory, Peripheral: sramMem},
		{Name: "dccm", Offset: cfg.DCCM.Offset, Size: cfg.DCCM.Size, Property: bus.Memory, Peripheral: dccmMem},
		{Name: "pic", Offset: cfg.PIC.Offset, Size: cfg.PIC.Size, Property: bus.MMIO, Peripheral: picPeriph},
		{Name: "uart", Offset: cfg.UART.Offset, Size: cfg.UART.Size, Property: bus.MMIO, Peripheral: uartPeriph},
		{Name: "i3c", Offset: cfg.I3C.Offset, Size: cfg.I3C.Size, Property: bus.MMIO, Peripheral: i3cPeriph},
		{Name: "flash-a", Offset: cfg.FlashA.Offset, Size: cfg.FlashA.Size, Property: bus.MMIO, Peripheral: flashA},
		{Name: "flash-b", Offset: cfg.FlashB.Offset, Size: cfg.FlashB.Size, Property: bus.MMIO, Peripheral: flashB},
		{Name: "mci", Offset: cfg.MCI.Offset, Size: cfg.MCI.Size, Property: bus.MMIO, Peripheral: mciPeriph},
		{Name: "dma", Offset: cfg.DMA.Offset, Size: cfg.DMA.Size, Property: bus.MMIO, Peripheral: dmaCtrl},
		{Name: "mailbox", Offset: cfg.Mailbox.Offset, Size: cfg.Mailbox.Size, Property: bus.MMIO, Peripheral: mboxPeriph},
		{Name: "soc", Offset: cfg.SoC.Offset, Size: cfg.SoC.Size, Property: bus.MMIO, Peripheral: socPeriph},
		{Name: "otp", Offset: cfg.OTP.Offset, Size: cfg.OTP.Size, Property: bus.MMIO, Peripheral: otpStore},
		{Name: "lc", Offset: cfg.LC.Offset, Size: cfg.LC.Size, Property: bus.MMIO, Peripheral: lcCtrl},
		{Name: "doe", Offset: cfg.DOE.Offset, Size: cfg.DOE.Size, Property: bus.MMIO, Peripheral: doePeriph},
	}
	if err := bus.CheckOverlap(regions); err != nil {
		return err
	}
	root := bus.NewRootBus(regions)

	// RoT stepper is constructed first: both steppers share root's region
	// table, and stepper.New installs its watch hook on it, so whichever
	// is constructed last owns it. Only the MCU stepper is ever handed
	// watchpoints (the debugger adapter owns the MCU, not the RoT CPU,
	// §4.I), so it must be constructed second.
	rotCPU := core.New(root)
	rotCPU.SetPC(cfg.ROM.Offset)
	rotStepper := stepper.New(rotCPU, root)

	mcuCPU := core.New(root)
	mcuCPU.SetPC(cfg.ROM.Offset)
	mcuStepper := stepper.New(mcuCPU, root)

	toMCU := events.NewPair()
	toRoT := events.NewPair()
	// The mailbox reads what the recovery controller sends on toRoT, and
	// its doorbells reach the controller on toMCU.
	mboxPeriph.RegisterEventChannels(toMCU, toRoT, nil, nil)

	manifestImage, err := os.ReadFile(f.socManifest)
	if err != nil {
		return err
	}
	mcuRuntimeImage, err := os.ReadFile(f.firmware)
	if err != nil {
		return err
	}
	recQueue := [][]byte{fwImage, manifestImage, mcuRuntimeImage}
	recCtrl := recovery.New(logger, recQueue, toRoT, toMCU)

	sys := system.New(logger, mcuStepper, rotStepper, recCtrl, clk)

	if f.gdbPort != 0 {
		target := gdbstub.New(logger, mcuStepper)
		srv := gdbstub.NewServer(logger, target)
		logger.Info().Uint16("port", f.gdbPort).Msg("starting gdb server")
		return srv.ListenAndServe(f.gdbPort)
	}

	if !f.noStdinUART {
		reader := uartio.NewStdinReader(os.Stdin, in, func() bool { return true })
		go func() { _ = reader.Run() }()
	}

	for i := 0; i < 100_000_000; i++ {
		result := sys.Tick()
		mciPeriph.MarkStepped()
		if result == system.ResultExit {
			break
		}
		if mciPeriph.FirmwareReady() {
			break
		}
	}

	if f.otpPath != "" {
		if err := otpStore.Save(f.otpPath); err != nil {
			logger.Warn().Err(err).Msg("failed to persist otp file on exit")
		}
	}

	return nil
}

func decodeHexHash(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}

func applyRegionOverrides(cfg *config.Config, overrides map[string]string) error {
	for _, name := range regionFlagNames {
		var offset, size *uint64
		if raw, ok := overrides[name+"-offset"]; ok {
			v, err := config.ParseHex(raw)
			if err != nil {
				return fmt.Errorf("%s-offset: %w", name, err)
			}
			offset = &v
		}
		if raw, ok := overrides[name+"-size"]; ok {
			v, err := config.ParseHex(raw)
			if err != nil {
				return fmt.Errorf("%s-size: %w", name, err)
			}
			size = &v
		}
		if offset == nil && size == nil {
			continue
		}
		if err := cfg.ApplyOverride(name, offset, size); err != nil {
			return err
		}
	}
	return nil
}
