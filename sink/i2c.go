package sink

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/wippyai/ledhost/errors"
	"github.com/wippyai/ledhost/led"
)

// Defaults for the secondary controller.
const (
	DefaultAddress uint16 = 0x10
	DefaultTimeout        = 10 * time.Millisecond
)

// ModeSetRange is the mode byte leading every transaction.
const ModeSetRange byte = 0

// I2C forwards updates to a secondary controller, one bus transaction per
// update. The address byte is start for unbuffered updates and count+start
// for buffered ones.
type I2C struct {
	bus     Bus
	timeout time.Duration
	count   int
	addr    uint16
	busy    atomic.Bool
}

// I2COption configures an I2C sink.
type I2COption func(*I2C)

// WithAddress sets the secondary controller's 7-bit address.
func WithAddress(addr uint16) I2COption {
	return func(s *I2C) { s.addr = addr }
}

// WithTimeout bounds each transaction.
func WithTimeout(d time.Duration) I2COption {
	return func(s *I2C) { s.timeout = d }
}

// NewI2C returns a sink for a secondary controller driving count LEDs.
func NewI2C(bus Bus, count int, opts ...I2COption) (*I2C, error) {
	if count <= 0 || count > led.MaxCount {
		return nil, errors.InvalidConfig("leds.count", fmt.Sprintf("must be 1..%d for bus forwarding, got %d", led.MaxCount, count))
	}
	s := &I2C{
		bus:     bus,
		count:   count,
		addr:    DefaultAddress,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.addr > 0x7f {
		return nil, errors.InvalidConfig("i2c.address", fmt.Sprintf("0x%x is not a 7-bit address", s.addr))
	}
	return s, nil
}

// Encode builds the transaction payload for u:
//
//	[mode 0][address byte][end][colors...]
func (s *I2C) Encode(u led.Update) ([]byte, error) {
	start := u.Range.Start
	switch u.Mode {
	case led.Unbuffered:
		if len(u.Colors) != 1 {
			return nil, fmt.Errorf("unbuffered update needs one color, got %d", len(u.Colors))
		}
		c := u.Colors[0]
		return []byte{ModeSetRange, start, u.Range.End, c.R, c.G, c.B}, nil

	case led.Buffered:
		if len(u.Colors) != u.Range.Len() {
			return nil, fmt.Errorf("buffered update for %s needs %d colors, got %d", u.Range, u.Range.Len(), len(u.Colors))
		}
		w := make([]byte, 0, 3+3*len(u.Colors))
		w = append(w, ModeSetRange, byte(s.count)+start, u.Range.End)
		for _, c := range u.Colors {
			w = append(w, c.R, c.G, c.B)
		}
		return w, nil

	default:
		return nil, fmt.Errorf("unknown update mode %s", u.Mode)
	}
}

// Apply implements led.Sink. The transaction runs on its own goroutine and
// is abandoned after the timeout; until it returns, further updates fail
// fast instead of queueing behind it.
func (s *I2C) Apply(ctx context.Context, u led.Update) error {
	w, err := s.Encode(u)
	if err != nil {
		return errors.Wrap(errors.PhaseBus, errors.KindBus, err, "encode transaction")
	}

	if !s.busy.CompareAndSwap(false, true) {
		return errors.BusTimeout(s.addr, fmt.Errorf("previous transaction still in flight"))
	}

	done := make(chan error, 1)
	go func() {
		defer s.busy.Store(false)
		done <- s.bus.Tx(s.addr, w, nil)
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return errors.BusNack(s.addr, err)
		}
		return nil
	case <-timer.C:
		return errors.BusTimeout(s.addr, nil)
	case <-ctx.Done():
		return ctx.Err()
	}
}
