// Package config loads the optional YAML machine-description file accepted
// by cmd/rv64emu's -config flag: RAM size, firmware/kernel image paths,
// device toggles, and VGA geometry.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Machine describes the virtual platform to assemble, overriding the
// defaults an emulator would otherwise pick on its own.
type Machine struct {
	// MemoryMB is the guest RAM size in mebibytes. Zero selects the
	// default (256 MiB).
	MemoryMB uint64 `yaml:"memory_mb"`

	Firmware string `yaml:"firmware"`
	Kernel   string `yaml:"kernel"`

	Devices DeviceToggles `yaml:"devices"`

	VGA VGAConfig `yaml:"vga"`
}

// DeviceToggles records which optional MMIO devices the description enables.
// rv64.NewMachine does not read these toggles: it always maps UART16550,
// CLINT/PLIC and every device listed here.
type DeviceToggles struct {
	Keyboard bool `yaml:"keyboard"`
	RTC      bool `yaml:"rtc"`
	LiteUART bool `yaml:"liteuart"`
	Serial   bool `yaml:"serial"`
	VGA      bool `yaml:"vga"`
}

// VGAConfig sets the fixed framebuffer geometry. The resolution cannot
// change once the machine is assembled.
type VGAConfig struct {
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`
}

// DefaultDeviceToggles enables every optional device, matching the fixed
// physical memory map an emulator exposes when no config file overrides it.
func DefaultDeviceToggles() DeviceToggles {
	return DeviceToggles{Keyboard: true, RTC: true, LiteUART: true, Serial: true, VGA: true}
}

// Load reads and parses a machine-description file, filling in defaults for
// anything the file leaves zero.
func Load(path string) (*Machine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	m := &Machine{Devices: DefaultDeviceToggles()}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if m.MemoryMB == 0 {
		m.MemoryMB = 256
	}
	if m.VGA.Width == 0 {
		m.VGA.Width = 640
	}
	if m.VGA.Height == 0 {
		m.VGA.Height = 480
	}

	return m, nil
}

// MemoryBytes returns the configured RAM size in bytes.
func (m *Machine) MemoryBytes() uint64 { return m.MemoryMB * 1024 * 1024 }
