package ledhost

// Memory is bounds-checked access to a guest's linear memory.
// Read returns a copy; the guest may change memory on its next call.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU32(offset uint32) (uint32, error)
}

// MemorySizer provides the current size of guest linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}
