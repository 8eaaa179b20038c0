package rv64

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Machine wires together a hart and its physical address space: RAM, the
// decoded-instruction cache, CLINT/PLIC interrupt controllers, and the
// MMIO device set from the external interface map.
type Machine struct {
	CPU  *CPU
	Bus  *Bus
	MMU  *MMU
	IBuf *IBuf

	CLINT *CLINT
	PLIC  *PLIC
	UART  *UART

	Timer    *Timer
	Keyboard *Keyboard
	RTC      *RTC
	LiteUART *LiteUART
	Serial   *SimpleSerial
	VGACtrl  *VGAControl
	VGAFB    *VGAFramebuffer

	DebugOutput io.Writer

	stopped atomic.Bool

	// InstructionsRetired counts committed instructions across the whole
	// run. Unlike cpu.Instret it is not cleared by Reset.
	InstructionsRetired uint64
}

// MachineConfig controls the devices an assembled Machine exposes. Zero
// values select the external interface's documented defaults.
type MachineConfig struct {
	RAMSize        uint64
	VGAWidth       uint32
	VGAHeight      uint32
	ConsoleOutput  io.Writer
	ConsoleInput   io.Reader
}

// NewMachine assembles a hart plus the full fixed MMIO device set.
func NewMachine(cfg MachineConfig) *Machine {
	if cfg.RAMSize == 0 {
		cfg.RAMSize = RAMSize
	}
	if cfg.VGAWidth == 0 {
		cfg.VGAWidth = 640
	}
	if cfg.VGAHeight == 0 {
		cfg.VGAHeight = 480
	}

	bus := NewBus(cfg.RAMSize)
	cpu := NewCPU(bus)
	mmu := cpu.MMU
	ibuf := NewIBuf()

	clint := NewCLINT(cpu)
	plic := NewPLIC(cpu)
	uart := NewUART(cfg.ConsoleOutput, cfg.ConsoleInput)
	uart.OnInterrupt = func(pending bool) {
		if pending {
			plic.Trigger(UARTPlicLine)
		}
	}

	timer := NewTimer()
	cpu.Clock = timer
	keyboard := NewKeyboard()
	rtc := NewRTC()
	liteUART := NewLiteUART(cfg.ConsoleOutput)
	serial := NewSimpleSerial(cfg.ConsoleOutput)
	vgaCtrl := NewVGAControl(cfg.VGAWidth, cfg.VGAHeight)
	vgaFB := NewVGAFramebuffer(cfg.VGAWidth, cfg.VGAHeight)

	bus.AddDevice(CLINTBase, clint)
	bus.AddDevice(PLICBase, plic)
	bus.AddDevice(UARTBase, uart)
	bus.AddDevice(TimerBase, timer)
	bus.AddDevice(KeyboardBase, keyboard)
	bus.AddDevice(RTCBase, rtc)
	bus.AddDevice(LiteUARTBase, liteUART)
	bus.AddDevice(SimpleSerialBase, serial)
	bus.AddDevice(VGACtrlBase, vgaCtrl)
	bus.AddDevice(VGAFBBase, vgaFB)

	return &Machine{
		CPU:      cpu,
		Bus:      bus,
		MMU:      mmu,
		IBuf:     ibuf,
		CLINT:    clint,
		PLIC:     plic,
		UART:     uart,
		Timer:    timer,
		Keyboard: keyboard,
		RTC:      rtc,
		LiteUART: liteUART,
		Serial:   serial,
		VGACtrl:  vgaCtrl,
		VGAFB:    vgaFB,
	}
}

// Reset restores the hart and TLB to their power-on state.
func (m *Machine) Reset() {
	m.CPU.Reset()
	m.stopped.Store(false)
}

func (m *Machine) SetPC(pc uint64) { m.CPU.PC = pc }
func (m *Machine) GetPC() uint64   { return m.CPU.PC }

// LoadBytes copies data into the bus, used by the image loader at startup.
func (m *Machine) LoadBytes(addr uint64, data []byte) error {
	return m.Bus.LoadBytes(addr, data)
}

func (m *Machine) MemoryBase() uint64 { return m.Bus.RAMBase }
func (m *Machine) MemorySize() uint64 { return m.Bus.RAM.Size() }

// Stop requests the hart loop exit at the next instruction boundary.
func (m *Machine) Stop() { m.stopped.Store(true) }

func (m *Machine) Stopped() bool { return m.stopped.Load() }

// isDeadLoop recognizes the jump-to-self idiom some firmware uses to signal
// an unrecoverable halt: jal x0, 0.
func isDeadLoop(pc uint64, raw uint32) bool {
	return raw == 0x0000006f // jal x0, +0
}

// Step executes exactly one instruction (or one WFI poll), per the
// execution loop: fetch, decode via IBuf, execute, resolve next PC, then
// poll for an asynchronous interrupt.
func (m *Machine) Step() error {
	cpu := m.CPU

	if cpu.WFI {
		if _, pending := cpu.PendingInterrupt(); !pending {
			return nil
		}
		cpu.WFI = false
	}

	pc := cpu.PC
	paddr, err := m.MMU.TranslateFetch(pc)
	if err != nil {
		if exc, ok := err.(ExceptionError); ok {
			cpu.Trap(exc.Cause, pc)
			return nil
		}
		return err
	}

	raw, err := m.Bus.Ifetch(paddr)
	if err != nil {
		cpu.Trap(CauseInsnAccessFault, pc)
		return nil
	}

	if isDeadLoop(pc, raw) {
		return fmt.Errorf("halted on jump-to-self idiom at PC=0x%x", pc)
	}

	p, ops, err := m.IBuf.Lookup(paddr, raw)
	if err != nil {
		return fmt.Errorf("illegal instruction 0x%08x at PC=0x%x", raw, pc)
	}

	oldPC := cpu.PC
	execErr := p.Exec(cpu, ops)
	if execErr != nil {
		if exc, ok := execErr.(ExceptionError); ok {
			cpu.PC = oldPC
			cpu.Trap(exc.Cause, exc.Tval)
			return nil
		}
		return execErr
	}

	if cpu.PC == oldPC {
		cpu.PC += 4
	}

	if cpu.DebugLog != nil {
		fmt.Fprintf(cpu.DebugLog, "%d: pc=0x%016x insn=0x%08x %s\n", cpu.Instret, pc, raw, p.Name)
	}

	cpu.Cycle++
	cpu.Instret++
	atomic.AddUint64(&m.InstructionsRetired, 1)

	if cause, pending := cpu.PendingInterrupt(); pending {
		cpu.Trap(cause, 0)
	}

	if cpu.ExitRequested {
		return errHalt
	}

	return nil
}

type haltError struct{}

func (haltError) Error() string { return "machine halted" }

var errHalt error = haltError{}

// ErrHalt is returned by Run when the guest requested a clean exit via the
// riscv-test conformance hook.
var ErrHalt = errHalt

// Run drives the hart loop until the guest halts, an unrecoverable error
// occurs, or ctx is cancelled. A CLINT-tick actor and, if Input is set, a
// UART input-pump actor run alongside it under errgroup supervision, so an
// error returned by any of them cancels the context the others poll.
func (m *Machine) Run(ctx context.Context) error {
	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		ticker := time.NewTicker(time.Microsecond * 100)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				m.CLINT.Tick()
			}
		}
	})

	if m.UART.Input != nil {
		group.Go(func() error { return m.pumpUARTInput(gctx) })
	}

	group.Go(func() error {
		for {
			if gctx.Err() != nil {
				return nil
			}
			if m.stopped.Load() {
				return nil
			}
			if err := m.Step(); err != nil {
				if err == errHalt {
					m.stopped.Store(true)
					return errHalt
				}
				return fmt.Errorf("step error at PC=0x%x: %w", m.CPU.PC, err)
			}
		}
	})

	err := group.Wait()
	if err == errHalt {
		return ErrHalt
	}
	return err
}

// pumpUARTInput reads from the UART's configured input reader and feeds
// bytes into its buffer, playing the role of the I/O thread in the
// concurrency model.
func (m *Machine) pumpUARTInput(ctx context.Context) error {
	buf := make([]byte, 256)
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := m.UART.Input.Read(buf)
		if n > 0 {
			m.UART.EnqueueInput(append([]byte(nil), buf[:n]...))
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// AddDevice registers an additional device on the bus, for embedders that
// extend the default memory map.
func (m *Machine) AddDevice(base uint64, dev Device) { m.Bus.AddDevice(base, dev) }

func (m *Machine) ReadAt(p []byte, off int64) (int, error) {
	addr := uint64(off)
	for i := range p {
		val, err := m.Bus.Read8(addr + uint64(i))
		if err != nil {
			return i, err
		}
		p[i] = val
	}
	return len(p), nil
}

func (m *Machine) WriteAt(p []byte, off int64) (int, error) {
	addr := uint64(off)
	for i, b := range p {
		if err := m.Bus.Write8(addr+uint64(i), b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}
