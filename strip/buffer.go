package strip

import (
	"fmt"
	"sync"

	"github.com/wippyai/ledhost/led"
)

// Buffer is an in-memory strip. SetRange stages colors; Flush latches the
// staged frame so Frame observes whole updates only. Other drivers embed
// it for their staging.
type Buffer struct {
	staged  []led.Color
	latched []led.Color
	flushes uint64
	mu      sync.RWMutex
}

// NewBuffer returns a dark strip of count LEDs.
func NewBuffer(count int) *Buffer {
	return &Buffer{
		staged:  make([]led.Color, count),
		latched: make([]led.Color, count),
	}
}

// Len returns the strip length.
func (b *Buffer) Len() int {
	return len(b.staged)
}

// SetRange implements sink.StripDriver. colors must hold end-start+1 entries.
func (b *Buffer) SetRange(start, end int, colors []led.Color) error {
	if start < 0 || end < start || end >= len(b.staged) {
		return fmt.Errorf("range [%d, %d] outside strip of %d", start, end, len(b.staged))
	}
	if len(colors) != end-start+1 {
		return fmt.Errorf("range [%d, %d] needs %d colors, got %d", start, end, end-start+1, len(colors))
	}
	b.mu.Lock()
	copy(b.staged[start:end+1], colors)
	b.mu.Unlock()
	return nil
}

// Flush implements sink.StripDriver.
func (b *Buffer) Flush() error {
	b.mu.Lock()
	copy(b.latched, b.staged)
	b.flushes++
	b.mu.Unlock()
	return nil
}

// Frame returns a copy of the latched colors.
func (b *Buffer) Frame() []led.Color {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]led.Color(nil), b.latched...)
}

// Flushes returns how many frames were latched.
func (b *Buffer) Flushes() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.flushes
}

// Bytes returns the latched frame as packed RGB bytes.
func (b *Buffer) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]byte, 0, 3*len(b.latched))
	for _, c := range b.latched {
		out = append(out, c.R, c.G, c.B)
	}
	return out
}
