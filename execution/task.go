package execution

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/ledhost/abi"
	"github.com/wippyai/ledhost/errors"
	"github.com/wippyai/ledhost/sink"
)

// DefaultInterval is the nominal tick period.
const DefaultInterval = 10 * time.Millisecond

// Config configures a Task.
type Config struct {
	Translator *abi.Translator
	Clock      Clock
	Input      *Input
	Logger     *zap.Logger
	Policy     sink.Policy
	Interval   time.Duration
}

// Task runs one program: each tick it calls entry, applies the returned
// descriptor through the translator, delivers pending input, then waits for
// the next tick. It stops at the top of the next iteration after Stop.
type Task struct {
	handoff *Handoff
	cancel  context.CancelFunc
	done    chan struct{}
	log     *zap.Logger
	err     error
	cfg     Config
	ticks   atomic.Uint64
	digest  atomic.Pointer[string]
}

// Start spawns a task that takes its context from h. The caller must have
// put the context already, and must not touch it afterwards.
func Start(parent context.Context, h *Handoff, cfg Config) *Task {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Input == nil {
		cfg.Input = NewInput()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(parent)
	t := &Task{
		handoff: h,
		cancel:  cancel,
		done:    make(chan struct{}),
		log:     cfg.Logger,
		cfg:     cfg,
	}
	go t.run(ctx)
	return t
}

// Stop requests cancellation. The task observes it at the top of its next
// iteration; a guest call in progress is not interrupted.
func (t *Task) Stop() {
	t.cancel()
}

// Done is closed as the task's last act, after the context was released.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the error that ended the run, or nil after a requested stop.
// It is only meaningful once Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Ticks returns the number of ticks started so far.
func (t *Task) Ticks() uint64 {
	return t.ticks.Load()
}

// Digest returns the running program's short digest, or "" before the task
// has taken its context.
func (t *Task) Digest() string {
	if d := t.digest.Load(); d != nil {
		return *d
	}
	return ""
}

func (t *Task) run(ctx context.Context) {
	defer close(t.done)
	defer t.cancel()

	ec, err := t.handoff.Take(ctx)
	if err != nil {
		if ctx.Err() == nil {
			t.err = err
		}
		return
	}
	digest := ec.ShortDigest()
	t.digest.Store(&digest)
	log := t.log.With(zap.String("program", digest))

	defer func() {
		if err := ec.Release(context.WithoutCancel(ctx)); err != nil {
			log.Warn("release program", zap.Error(err))
		}
		if t.err != nil {
			log.Error("run ended", zap.Uint64("ticks", t.Ticks()), zap.Error(t.err))
		} else {
			log.Info("run stopped", zap.Uint64("ticks", t.Ticks()))
		}
	}()

	ticker := t.cfg.Clock.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	log.Info("run started", zap.Int("bytes", ec.Size()), zap.Duration("interval", t.cfg.Interval))

	for {
		if ctx.Err() != nil {
			return
		}
		if err := t.tick(ctx, ec.Guest(), log); err != nil {
			// A stop that lands mid-tick is not a failure of the run.
			if ctx.Err() == nil {
				t.err = err
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
		}
	}
}

func (t *Task) tick(ctx context.Context, g Guest, log *zap.Logger) error {
	n := t.ticks.Add(1)

	addr, err := g.Entry(ctx)
	if err != nil {
		return err
	}

	u, err := t.cfg.Translator.Apply(ctx, g.Memory(), addr)
	switch {
	case err == nil:
		if ce := log.Check(zap.DebugLevel, "tick"); ce != nil {
			ce.Write(zap.Uint64("tick", n), zap.Stringer("range", u.Range), zap.Stringer("mode", u.Mode))
		}
	case t.cfg.Policy.Tolerates(err):
		log.Warn("update skipped", zap.Uint64("tick", n), zap.Error(err))
	default:
		return err
	}

	if data, ok := t.cfg.Input.Poll(); ok {
		return t.deliver(ctx, g, data, log)
	}
	return nil
}

// deliver offers data to handle_input and copies it into guest memory at
// the returned address. A zero address means the program rejected it.
func (t *Task) deliver(ctx context.Context, g Guest, data []byte, log *zap.Logger) error {
	if !g.AcceptsInput() {
		log.Warn("input dropped, program has no handle_input", zap.Int("bytes", len(data)))
		return nil
	}

	addr, err := g.HandleInput(ctx, uint32(len(data)))
	if err != nil {
		return err
	}
	if addr == 0 {
		log.Debug("input rejected by program", zap.Int("bytes", len(data)))
		return nil
	}
	if err := g.Memory().Write(addr, data); err != nil {
		if errors.KindOf(err) == "" {
			err = errors.Wrap(errors.PhaseInput, errors.KindProgramRuntime, err, "write input")
		}
		return err
	}
	log.Debug("input delivered", zap.Int("bytes", len(data)), zap.Uint32("addr", addr))
	return nil
}
