package execution

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Handoff moves one Context from the dispatcher to one task. It is a
// single-use rendezvous: Put succeeds once, Take succeeds once.
type Handoff struct {
	ch  chan *Context
	put atomic.Bool
}

// NewHandoff returns an empty handoff slot.
func NewHandoff() *Handoff {
	return &Handoff{ch: make(chan *Context, 1)}
}

// Put stores c. Any later Put fails; the slot is never refilled.
func (h *Handoff) Put(c *Context) error {
	if c == nil {
		return fmt.Errorf("handoff: nil context")
	}
	if !h.put.CompareAndSwap(false, true) {
		return fmt.Errorf("handoff: slot already used")
	}
	h.ch <- c
	close(h.ch)
	return nil
}

// Take waits for the context to be put and returns it. After the first
// successful Take the slot reports that it is spent.
// A context that is already in the slot is returned even if ctx is done,
// so it cannot be stranded.
func (h *Handoff) Take(ctx context.Context) (*Context, error) {
	select {
	case c, ok := <-h.ch:
		return taken(c, ok)
	default:
	}
	select {
	case c, ok := <-h.ch:
		return taken(c, ok)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func taken(c *Context, ok bool) (*Context, error) {
	if !ok {
		return nil, fmt.Errorf("handoff: context already taken")
	}
	return c, nil
}
