package engine

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/ledhost/errors"
)

// Memory adapts wazero api.Memory to ledhost.Memory.
// Reads are reported as decode-phase errors and writes as input-phase
// errors, the only places the controller touches guest memory.
type Memory struct {
	mem api.Memory
}

// Read copies length bytes starting at offset.
func (m *Memory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseDecode, offset, int(length), m.mem.Size())
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write copies data into memory at offset.
func (m *Memory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return errors.OutOfBounds(errors.PhaseInput, offset, len(data), m.mem.Size())
	}
	return nil
}

// ReadU8 reads a single byte.
func (m *Memory) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseDecode, offset, 1, m.mem.Size())
	}
	return v, nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (m *Memory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseDecode, offset, 4, m.mem.Size())
	}
	return v, nil
}

// Size returns the memory size in bytes.
func (m *Memory) Size() uint32 {
	return m.mem.Size()
}
