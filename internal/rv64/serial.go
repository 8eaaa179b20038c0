package rv64

import "io"

// SimpleSerial is the single-byte polled transmit-only device at
// 0xA000_03F8: every write emits one byte to Output, every read is 0.
type SimpleSerial struct {
	Output io.Writer
}

func NewSimpleSerial(output io.Writer) *SimpleSerial {
	return &SimpleSerial{Output: output}
}

func (s *SimpleSerial) Size() uint64 { return SimpleSerialSize }

func (s *SimpleSerial) Read(offset uint64, size int) (uint64, error) { return 0, nil }

func (s *SimpleSerial) Write(offset uint64, size int, value uint64) error {
	if s.Output != nil {
		s.Output.Write([]byte{byte(value)})
	}
	return nil
}

var _ Device = (*SimpleSerial)(nil)
