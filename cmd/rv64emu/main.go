// Command rv64emu boots an unmodified RISC-V firmware/kernel image on the
// rv64 hart emulator.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/student/rv64emu/internal/config"
	"github.com/student/rv64emu/internal/hostsig"
	"github.com/student/rv64emu/internal/rv64"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "rv64emu: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		firmwarePath        = flag.String("firmware", "", "path to firmware image, loaded at the reset vector")
		configPath          = flag.String("config", "", "path to a YAML machine-description file")
		batch               = flag.Bool("batch", false, "run headless with no terminal raw mode")
		difftest            = flag.Bool("difftest", false, "enable lockstep difftest logging")
		logPath             = flag.String("log", "", "optional log file path (defaults to stderr)")
		logLevel            = flag.String("log-level", "info", "log level name (debug, info, warn, error), echoed in the startup log line; output is not filtered by it")
		noSDLDevices        = flag.Bool("no-sdl-devices", false, "clear the VGA/keyboard device toggles; the machine still maps every MMIO device")
		ignoreISABreakpoint = flag.Bool("ignore-isa-breakpoint", false, "treat ebreak as a no-op instead of trapping")
	)
	flag.Parse()

	imagePath := flag.Arg(0)
	if imagePath == "" && *firmwarePath == "" {
		return fmt.Errorf("usage: rv64emu [flags] <guest-image>")
	}

	logger, closeLog, err := openLogger(*logPath)
	if err != nil {
		return err
	}
	defer closeLog()
	logger.Printf("starting rv64emu (log-level=%s)", *logLevel)

	cfg := config.Machine{Devices: config.DefaultDeviceToggles()}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = *loaded
	}
	if cfg.MemoryMB == 0 {
		cfg.MemoryMB = 256
	}
	if *noSDLDevices {
		cfg.Devices.VGA = false
		cfg.Devices.Keyboard = false
	}

	var console io.ReadWriter = struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}

	restore, err := maybeMakeRaw(*batch)
	if err != nil {
		return fmt.Errorf("entering raw terminal mode: %w", err)
	}
	defer restore()

	m := rv64.NewMachine(rv64.MachineConfig{
		RAMSize:       cfg.MemoryBytes(),
		VGAWidth:      cfg.VGA.Width,
		VGAHeight:     cfg.VGA.Height,
		ConsoleOutput: console,
		ConsoleInput:  console,
	})
	m.CPU.IgnoreISABreakpoint = *ignoreISABreakpoint
	if *difftest {
		m.CPU.DebugLog = difftestWriter{logger}
	}

	if err := loadImages(m, *firmwarePath, imagePath); err != nil {
		return err
	}

	ctx, watcher, cancel := hostsig.Notify(context.Background())
	defer cancel()
	defer watcher.Stop()

	err = m.Run(ctx)
	if err == rv64.ErrHalt {
		logger.Printf("guest requested exit, code=%d", m.CPU.ExitCode)
		os.Exit(int(m.CPU.ExitCode))
	}
	if err != nil {
		return fmt.Errorf("machine run: %w", err)
	}
	return nil
}

func openLogger(path string) (*log.Logger, func(), error) {
	if path == "" {
		return log.New(os.Stderr, "", log.LstdFlags), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return log.New(f, "", log.LstdFlags), func() { f.Close() }, nil
}

// maybeMakeRaw puts the controlling terminal into raw mode so guest
// firmware sees unbuffered keystrokes, unless running headless or stdin
// isn't a terminal.
func maybeMakeRaw(batch bool) (func(), error) {
	if batch || !term.IsTerminal(int(os.Stdin.Fd())) {
		return func() {}, nil
	}
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return nil, err
	}
	return func() { term.Restore(int(os.Stdin.Fd()), oldState) }, nil
}

// difftestWriter adapts a *log.Logger to io.Writer so per-instruction
// difftest trace lines go through the same logger as everything else.
type difftestWriter struct{ logger *log.Logger }

func (w difftestWriter) Write(p []byte) (int, error) {
	w.logger.Print(string(p))
	return len(p), nil
}

func loadImages(m *rv64.Machine, firmwarePath, imagePath string) error {
	base := m.MemoryBase()

	if firmwarePath != "" {
		data, err := os.ReadFile(firmwarePath)
		if err != nil {
			return fmt.Errorf("reading firmware: %w", err)
		}
		if err := m.LoadBytes(base, data); err != nil {
			return fmt.Errorf("loading firmware: %w", err)
		}
	}

	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return fmt.Errorf("reading guest image: %w", err)
		}
		// With firmware present the kernel loads higher in RAM, out of
		// the firmware's own footprint; with no firmware it is the
		// reset-vector image itself.
		loadAddr := base
		if firmwarePath != "" {
			loadAddr = base + 0x200000
		}
		if err := m.LoadBytes(loadAddr, data); err != nil {
			return fmt.Errorf("loading guest image: %w", err)
		}
	}

	m.SetPC(base)
	return nil
}
