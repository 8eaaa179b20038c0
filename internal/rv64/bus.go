package rv64

import (
	"fmt"
	"io"
)

// Device is a memory-mapped peripheral addressed by an offset within its
// own registered range.
type Device interface {
	Read(offset uint64, size int) (uint64, error)
	Write(offset uint64, size int, value uint64) error
	Size() uint64
}

// MemoryRegion is a contiguous slab of RAM.
type MemoryRegion struct {
	Data []byte
}

func NewMemoryRegion(size uint64) *MemoryRegion {
	return &MemoryRegion{Data: make([]byte, size)}
}

func (m *MemoryRegion) Read(offset uint64, size int) (uint64, error) {
	if offset+uint64(size) > uint64(len(m.Data)) {
		return 0, fmt.Errorf("memory read out of bounds: offset=0x%x size=%d len=%d", offset, size, len(m.Data))
	}
	switch size {
	case 1:
		return uint64(m.Data[offset]), nil
	case 2:
		return uint64(cpuEndian.Uint16(m.Data[offset:])), nil
	case 4:
		return uint64(cpuEndian.Uint32(m.Data[offset:])), nil
	case 8:
		return cpuEndian.Uint64(m.Data[offset:]), nil
	default:
		return 0, fmt.Errorf("invalid read size: %d", size)
	}
}

func (m *MemoryRegion) Write(offset uint64, size int, value uint64) error {
	if offset+uint64(size) > uint64(len(m.Data)) {
		return fmt.Errorf("memory write out of bounds: offset=0x%x size=%d len=%d", offset, size, len(m.Data))
	}
	switch size {
	case 1:
		m.Data[offset] = byte(value)
	case 2:
		cpuEndian.PutUint16(m.Data[offset:], uint16(value))
	case 4:
		cpuEndian.PutUint32(m.Data[offset:], uint32(value))
	case 8:
		cpuEndian.PutUint64(m.Data[offset:], value)
	default:
		return fmt.Errorf("invalid write size: %d", size)
	}
	return nil
}

func (m *MemoryRegion) Size() uint64 { return uint64(len(m.Data)) }

func (m *MemoryRegion) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(m.Data)) {
		return 0, io.EOF
	}
	return copy(p, m.Data[off:]), nil
}

func (m *MemoryRegion) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m.Data)) {
		return 0, fmt.Errorf("write offset out of bounds")
	}
	return copy(m.Data[off:], p), nil
}

// DeviceMapping records a device's registered [Base, Base+Size) range.
type DeviceMapping struct {
	Base   uint64
	Size   uint64
	Device Device
}

// BusInterface is the PAS contract the CPU and MMU use to reach physical
// memory and MMIO devices.
type BusInterface interface {
	Read(addr uint64, size int) (uint64, error)
	Write(addr uint64, size int, value uint64) error
	Read8(addr uint64) (uint8, error)
	Read16(addr uint64) (uint16, error)
	Read32(addr uint64) (uint32, error)
	Read64(addr uint64) (uint64, error)
	Write8(addr uint64, value uint8) error
	Write16(addr uint64, value uint16) error
	Write32(addr uint64, value uint32) error
	Write64(addr uint64, value uint64) error
}

// Bus is the physical address space: a RAM slab plus a linearly-scanned
// table of MMIO device mappings.
type Bus struct {
	RAM     *MemoryRegion
	RAMBase uint64
	Devices []DeviceMapping
}

func NewBus(ramSize uint64) *Bus {
	return &Bus{RAM: NewMemoryRegion(ramSize), RAMBase: RAMBase}
}

// AddDevice registers dev at base. Overlapping ranges (with RAM or any
// previously registered device) are a setup-time configuration error.
func (bus *Bus) AddDevice(base uint64, dev Device) {
	size := dev.Size()
	if overlaps(base, size, bus.RAMBase, bus.RAM.Size()) {
		panic(fmt.Sprintf("rv64: device at 0x%x/0x%x overlaps RAM", base, size))
	}
	for _, m := range bus.Devices {
		if overlaps(base, size, m.Base, m.Size) {
			panic(fmt.Sprintf("rv64: device at 0x%x/0x%x overlaps existing mapping at 0x%x/0x%x", base, size, m.Base, m.Size))
		}
	}
	bus.Devices = append(bus.Devices, DeviceMapping{Base: base, Size: size, Device: dev})
}

func overlaps(baseA, sizeA, baseB, sizeB uint64) bool {
	return baseA < baseB+sizeB && baseB < baseA+sizeA
}

func (bus *Bus) findDevice(addr uint64) (Device, uint64, error) {
	if addr >= bus.RAMBase && addr < bus.RAMBase+bus.RAM.Size() {
		return bus.RAM, addr - bus.RAMBase, nil
	}
	for _, m := range bus.Devices {
		if addr >= m.Base && addr < m.Base+m.Size {
			return m.Device, addr - m.Base, nil
		}
	}
	return nil, 0, fmt.Errorf("no device at address 0x%x", addr)
}

func (bus *Bus) Read(addr uint64, size int) (uint64, error) {
	dev, offset, err := bus.findDevice(addr)
	if err != nil {
		return 0, err
	}
	return dev.Read(offset, size)
}

func (bus *Bus) Write(addr uint64, size int, value uint64) error {
	dev, offset, err := bus.findDevice(addr)
	if err != nil {
		return err
	}
	return dev.Write(offset, size, value)
}

func (bus *Bus) Read8(addr uint64) (uint8, error) {
	val, err := bus.Read(addr, 1)
	return uint8(val), err
}
func (bus *Bus) Read16(addr uint64) (uint16, error) {
	val, err := bus.Read(addr, 2)
	return uint16(val), err
}
func (bus *Bus) Read32(addr uint64) (uint32, error) {
	val, err := bus.Read(addr, 4)
	return uint32(val), err
}
func (bus *Bus) Read64(addr uint64) (uint64, error) { return bus.Read(addr, 8) }

func (bus *Bus) Write8(addr uint64, value uint8) error   { return bus.Write(addr, 1, uint64(value)) }
func (bus *Bus) Write16(addr uint64, value uint16) error { return bus.Write(addr, 2, uint64(value)) }
func (bus *Bus) Write32(addr uint64, value uint32) error { return bus.Write(addr, 4, uint64(value)) }
func (bus *Bus) Write64(addr uint64, value uint64) error { return bus.Write(addr, 8, value) }

// LoadBytes copies data into the bus starting at addr, used by the image
// loader at startup.
func (bus *Bus) LoadBytes(addr uint64, data []byte) error {
	if addr >= bus.RAMBase && addr+uint64(len(data)) <= bus.RAMBase+bus.RAM.Size() {
		copy(bus.RAM.Data[addr-bus.RAMBase:], data)
		return nil
	}
	for i, b := range data {
		if err := bus.Write8(addr+uint64(i), b); err != nil {
			return err
		}
	}
	return nil
}

// Ifetch is the RAM-only fast instruction fetch the data model calls for:
// no MMIO region is expected to hold executable code.
func (bus *Bus) Ifetch(addr uint64) (uint32, error) {
	if addr < bus.RAMBase || addr+4 > bus.RAMBase+bus.RAM.Size() {
		return 0, fmt.Errorf("ifetch outside RAM: 0x%x", addr)
	}
	off := addr - bus.RAMBase
	return cpuEndian.Uint32(bus.RAM.Data[off:]), nil
}
