package rv64

import "sync/atomic"

// VGAControl register offsets: width and a packed height/vsync word. The
// resolution is fixed at construction, matching the framebuffer slab's
// fixed size — the guest discovers it by reading these registers, it does
// not negotiate a new one at runtime.
const (
	VGACtrlRegWidth      = 0x0
	VGACtrlRegHeightSync = 0x4
)

const vgaSyncBit = 1 << 16

// VGAControl exposes the framebuffer's fixed geometry and a vsync flag the
// GUI thread toggles once per refresh.
type VGAControl struct {
	width, height uint32
	sync          atomic.Bool
}

func NewVGAControl(width, height uint32) *VGAControl {
	return &VGAControl{width: width, height: height}
}

func (c *VGAControl) Size() uint64 { return VGACtrlSize }

func (c *VGAControl) Read(offset uint64, size int) (uint64, error) {
	switch offset {
	case VGACtrlRegWidth:
		return uint64(c.width), nil
	case VGACtrlRegHeightSync:
		v := uint64(c.height)
		if c.sync.Load() {
			v |= vgaSyncBit
		}
		return v, nil
	}
	return 0, nil
}

func (c *VGAControl) Write(offset uint64, size int, value uint64) error {
	if offset == VGACtrlRegHeightSync {
		c.sync.Store(value&vgaSyncBit != 0)
	}
	return nil
}

// Vsync is called by the GUI thread once per frame refresh.
func (c *VGAControl) Vsync(on bool) { c.sync.Store(on) }

var _ Device = (*VGAControl)(nil)

// VGAFramebuffer is the ARGB8888 pixel slab at 0xA100_0000, read by the GUI
// thread and written by the guest's display driver.
type VGAFramebuffer struct {
	*MemoryRegion
}

func NewVGAFramebuffer(width, height uint32) *VGAFramebuffer {
	return &VGAFramebuffer{MemoryRegion: NewMemoryRegion(uint64(width) * uint64(height) * 4)}
}

var _ Device = (*VGAFramebuffer)(nil)
