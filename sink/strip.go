package sink

import (
	"context"

	"github.com/wippyai/ledhost/errors"
	"github.com/wippyai/ledhost/led"
)

// Strip drives an attached strip directly. Failures are reported, never
// retried.
type Strip struct {
	driver StripDriver
}

// NewStrip returns a sink writing to driver.
func NewStrip(driver StripDriver) *Strip {
	return &Strip{driver: driver}
}

// Apply implements led.Sink: stage the range, then flush.
func (s *Strip) Apply(_ context.Context, u led.Update) error {
	if err := s.driver.SetRange(int(u.Range.Start), int(u.Range.End), u.Expand()); err != nil {
		return errors.StripWrite("set range "+u.Range.String(), err)
	}
	if err := s.driver.Flush(); err != nil {
		return errors.StripWrite("flush", err)
	}
	return nil
}
