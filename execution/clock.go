package execution

import (
	"sync"
	"time"
)

// Clock creates the tickers that pace the task loop and the dispatcher's
// stop-wait reporting.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers ticks on C until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// SystemClock uses time.Ticker.
type SystemClock struct{}

// NewTicker implements Clock.
func (SystemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }

// ManualClock is a Clock whose tickers fire only when Advance moves time
// past their next deadline. Like time.Ticker, a tick that finds the
// previous one unread is dropped.
type ManualClock struct {
	now     time.Time
	tickers []*manualTicker
	mu      sync.Mutex
}

// NewManualClock returns a ManualClock at start. A zero start uses a fixed
// reference time.
func NewManualClock(start time.Time) *ManualClock {
	if start.IsZero() {
		start = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return &ManualClock{now: start}
}

// NewTicker implements Clock.
func (c *ManualClock) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("execution: non-positive ticker interval")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &manualTicker{
		clock:  c,
		ch:     make(chan time.Time, 1),
		period: d,
		next:   c.now.Add(d),
	}
	c.tickers = append(c.tickers, t)
	return t
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Tickers returns the number of live tickers.
func (c *ManualClock) Tickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

// Advance moves time forward by d and fires every ticker whose deadline
// was reached.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	for _, t := range c.tickers {
		if c.now.Before(t.next) {
			continue
		}
		for !c.now.Before(t.next) {
			t.next = t.next.Add(t.period)
		}
		select {
		case t.ch <- c.now:
		default:
		}
	}
}

func (c *ManualClock) remove(t *manualTicker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, x := range c.tickers {
		if x == t {
			c.tickers = append(c.tickers[:i], c.tickers[i+1:]...)
			return
		}
	}
}

type manualTicker struct {
	clock  *ManualClock
	ch     chan time.Time
	next   time.Time
	period time.Duration
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               { t.clock.remove(t) }
