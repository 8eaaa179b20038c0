package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "machine.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFillsDefaultsForZeroFields(t *testing.T) {
	path := writeConfig(t, "firmware: fw.bin\n")

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Firmware != "fw.bin" {
		t.Errorf("firmware = %q, want fw.bin", m.Firmware)
	}
	if m.MemoryMB != 256 {
		t.Errorf("memory_mb = %d, want default 256", m.MemoryMB)
	}
	if m.VGA.Width != 640 || m.VGA.Height != 480 {
		t.Errorf("vga geometry = %dx%d, want 640x480", m.VGA.Width, m.VGA.Height)
	}
	if !m.Devices.Keyboard || !m.Devices.RTC || !m.Devices.LiteUART || !m.Devices.Serial || !m.Devices.VGA {
		t.Errorf("device toggles = %+v, want all true by default", m.Devices)
	}
}

func TestLoadHonorsExplicitValues(t *testing.T) {
	path := writeConfig(t, "memory_mb: 512\nkernel: vmlinux\ndevices:\n  keyboard: false\nvga:\n  width: 1024\n  height: 768\n")

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.MemoryMB != 512 {
		t.Errorf("memory_mb = %d, want 512", m.MemoryMB)
	}
	if m.Kernel != "vmlinux" {
		t.Errorf("kernel = %q, want vmlinux", m.Kernel)
	}
	if m.Devices.Keyboard {
		t.Errorf("keyboard toggle should be false")
	}
	if !m.Devices.RTC {
		t.Errorf("rtc toggle should stay at its default true")
	}
	if m.VGA.Width != 1024 || m.VGA.Height != 768 {
		t.Errorf("vga geometry = %dx%d, want 1024x768", m.VGA.Width, m.VGA.Height)
	}
	if got, want := m.MemoryBytes(), uint64(512*1024*1024); got != want {
		t.Errorf("MemoryBytes() = %d, want %d", got, want)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
