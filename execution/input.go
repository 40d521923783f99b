package execution

import "bytes"

// Input is the pending-input slot between the dispatcher (producer) and the
// running task (consumer). It holds at most one payload; a payload is never
// overwritten before the task has taken it.
type Input struct {
	ch chan []byte
}

// NewInput returns an empty slot.
func NewInput() *Input {
	return &Input{ch: make(chan []byte, 1)}
}

// Offer copies data into the slot. It reports false, leaving the slot
// untouched, when a previous payload is still pending.
func (in *Input) Offer(data []byte) bool {
	select {
	case in.ch <- bytes.Clone(data):
		return true
	default:
		return false
	}
}

// Poll takes the pending payload, if any.
func (in *Input) Poll() ([]byte, bool) {
	select {
	case data := <-in.ch:
		return data, true
	default:
		return nil, false
	}
}

// Pending reports whether a payload is waiting.
func (in *Input) Pending() bool {
	return len(in.ch) > 0
}
