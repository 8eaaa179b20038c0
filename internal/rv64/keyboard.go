package rv64

import "sync"

// Keyboard register offsets: a one-byte scancode FIFO head plus a presence
// flag, fed by the GUI thread.
const (
	KeyboardRegScancode = 0x0
	KeyboardRegPresence = 0x4
)

// Keyboard is the MMIO keyboard device at 0xA000_0060: the GUI thread
// pushes scancodes with PushScancode, the guest polls Presence before
// reading Scancode.
type Keyboard struct {
	mu    sync.Mutex
	queue []uint8
}

func NewKeyboard() *Keyboard { return &Keyboard{} }

func (k *Keyboard) Size() uint64 { return KeyboardSize }

func (k *Keyboard) Read(offset uint64, size int) (uint64, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	switch offset {
	case KeyboardRegScancode:
		if len(k.queue) == 0 {
			return 0, nil
		}
		code := k.queue[0]
		k.queue = k.queue[1:]
		return uint64(code), nil
	case KeyboardRegPresence:
		if len(k.queue) > 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 0, nil
}

func (k *Keyboard) Write(offset uint64, size int, value uint64) error { return nil }

// PushScancode enqueues a scancode from the GUI thread.
func (k *Keyboard) PushScancode(code uint8) {
	k.mu.Lock()
	k.queue = append(k.queue, code)
	k.mu.Unlock()
}

var _ Device = (*Keyboard)(nil)
