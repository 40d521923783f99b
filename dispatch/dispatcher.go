package dispatch

import (
	"context"
	stderrors "errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/ledhost/abi"
	"github.com/wippyai/ledhost/engine"
	"github.com/wippyai/ledhost/errors"
	"github.com/wippyai/ledhost/execution"
	"github.com/wippyai/ledhost/led"
	"github.com/wippyai/ledhost/sink"
	"github.com/wippyai/ledhost/wire"
)

// DefaultStopWarning is how often a stop that is still waiting for the
// task to exit is reported.
const DefaultStopWarning = time.Second

// State is the execution state owned by the dispatcher.
type State int32

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Loader parses and instantiates a program.
type Loader interface {
	Load(ctx context.Context, wasm []byte) (execution.Guest, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, wasm []byte) (execution.Guest, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, wasm []byte) (execution.Guest, error) {
	return f(ctx, wasm)
}

// EngineLoader loads programs into e.
func EngineLoader(e *engine.Engine) Loader {
	return LoaderFunc(func(ctx context.Context, wasm []byte) (execution.Guest, error) {
		p, err := e.Load(ctx, wasm)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
}

// Config configures a Dispatcher.
type Config struct {
	Loader      Loader
	Sink        led.Sink
	Clock       execution.Clock
	Logger      *zap.Logger
	Policy      sink.Policy
	Count       int
	Interval    time.Duration
	StopWarning time.Duration
	MaxFrame    uint32
}

// Dispatcher reads command frames and manages at most one execution task.
// Serve and Handle must be called from one goroutine at a time; Snapshot
// may be called from any goroutine.
type Dispatcher struct {
	base       context.Context
	cfg        Config
	log        *zap.Logger
	translator *abi.Translator

	// Owned by the serving goroutine.
	task  *execution.Task
	input *execution.Input

	// Published for Snapshot.
	state   atomic.Int32
	current atomic.Pointer[execution.Task]
	session atomic.Pointer[string]
	lastErr atomic.Pointer[string]
	runs    atomic.Uint64
}

// New returns an idle dispatcher. Tasks it starts derive from base, so a
// running program outlives the session that loaded it.
func New(base context.Context, cfg Config) *Dispatcher {
	if cfg.Clock == nil {
		cfg.Clock = execution.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.StopWarning <= 0 {
		cfg.StopWarning = DefaultStopWarning
	}
	if cfg.MaxFrame == 0 {
		cfg.MaxFrame = wire.DefaultMaxFrame
	}
	if cfg.Interval <= 0 {
		cfg.Interval = execution.DefaultInterval
	}
	return &Dispatcher{
		base:       base,
		cfg:        cfg,
		log:        cfg.Logger,
		translator: &abi.Translator{Sink: cfg.Sink, Count: cfg.Count},
	}
}

// State returns the current execution state.
func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

// Serve processes frames from conn until a fatal protocol error, the end of
// the stream, or ctx is done. Non-fatal errors are logged and the next
// frame is read.
func (d *Dispatcher) Serve(ctx context.Context, conn io.Reader) error {
	id := uuid.NewString()
	d.session.Store(&id)
	defer d.session.Store(nil)

	log := d.log.With(zap.String("session", id))
	log.Info("session started")

	frames := make(chan frameResult)
	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	go d.readLoop(readCtx, conn, frames)

	for {
		select {
		case <-ctx.Done():
			log.Info("session cancelled")
			return ctx.Err()

		case <-d.exited():
			d.reap()

		case fr := <-frames:
			if fr.err != nil {
				if isEOF(fr.err) {
					log.Info("session closed by peer")
				} else {
					log.Warn("session ended", zap.Error(fr.err))
				}
				return fr.err
			}
			if err := d.Handle(ctx, fr.frame); err != nil {
				d.logFailure(log, fr.frame.Opcode, err)
			}
		}
	}
}

type frameResult struct {
	err   error
	frame wire.Frame
}

// readLoop is the only reader of conn. It stops after the first error.
func (d *Dispatcher) readLoop(ctx context.Context, conn io.Reader, out chan<- frameResult) {
	for {
		f, err := wire.ReadFrame(conn, d.cfg.MaxFrame)
		select {
		case out <- frameResult{frame: f, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

// Handle executes one command frame.
func (d *Dispatcher) Handle(ctx context.Context, f wire.Frame) error {
	d.reap()

	switch f.Opcode {
	case wire.OpSetSolidColor:
		return d.setSolidColor(ctx, f.Body)
	case wire.OpLoadProgram:
		return d.load(ctx, f.Body)
	case wire.OpStop:
		return d.stop(ctx)
	case wire.OpFeedInput:
		return d.feed(f.Body)
	default:
		return errors.UnknownOpcode(byte(f.Opcode))
	}
}

// Close stops any running task and waits for it to exit.
func (d *Dispatcher) Close(ctx context.Context) error {
	return d.stop(ctx)
}

func (d *Dispatcher) setSolidColor(ctx context.Context, body []byte) error {
	c, err := wire.ParseColor(body)
	if err != nil {
		return err
	}
	if err := d.stop(ctx); err != nil {
		return err
	}

	if err := d.cfg.Sink.Apply(ctx, led.Solid(led.Full(d.cfg.Count), c)); err != nil {
		if errors.KindOf(err) == "" {
			err = errors.Wrap(errors.PhaseStrip, errors.KindHardware, err, "apply solid color")
		}
		return err
	}
	d.log.Info("solid color applied", zap.String("color", c.Hex()))
	return nil
}

func (d *Dispatcher) load(ctx context.Context, body []byte) error {
	if len(body) == 0 {
		return errors.MalformedBody(wire.OpLoadProgram.String(), "empty module")
	}
	if err := d.stop(ctx); err != nil {
		return err
	}

	guest, err := d.cfg.Loader.Load(ctx, body)
	if err != nil {
		return err
	}

	ec := execution.NewContext(body, guest)
	digest, size := ec.ShortDigest(), ec.Size()
	h := execution.NewHandoff()
	if err := h.Put(ec); err != nil {
		_ = ec.Release(ctx)
		return err
	}

	d.input = execution.NewInput()
	d.task = execution.Start(d.base, h, execution.Config{
		Translator: d.translator,
		Clock:      d.cfg.Clock,
		Input:      d.input,
		Logger:     d.log,
		Policy:     d.cfg.Policy,
		Interval:   d.cfg.Interval,
	})
	d.current.Store(d.task)
	d.lastErr.Store(nil)
	d.state.Store(int32(Running))
	d.runs.Add(1)

	d.log.Info("program loaded", zap.String("program", digest), zap.Int("bytes", size))
	return nil
}

// stop requests the running task to stop and waits until its exit is
// observed. It is a no-op while idle.
func (d *Dispatcher) stop(ctx context.Context) error {
	if d.task == nil {
		return nil
	}
	d.task.Stop()

	warn := d.cfg.Clock.NewTicker(d.cfg.StopWarning)
	defer warn.Stop()

	waited := 0
	for {
		select {
		case <-d.task.Done():
			d.reap()
			return nil
		case <-warn.C():
			waited++
			d.log.Warn("waiting for program to stop",
				zap.Duration("waited", time.Duration(waited)*d.cfg.StopWarning),
				zap.Uint64("ticks", d.task.Ticks()))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (d *Dispatcher) feed(body []byte) error {
	if d.task == nil {
		d.log.Warn("input ignored, no program running", zap.Int("bytes", len(body)))
		return nil
	}
	if !d.input.Offer(body) {
		d.log.Warn("input dropped, previous input still pending", zap.Int("bytes", len(body)))
		return nil
	}
	d.log.Debug("input queued", zap.Int("bytes", len(body)))
	return nil
}

// exited returns the running task's done channel, or nil while idle so a
// select never picks it.
func (d *Dispatcher) exited() <-chan struct{} {
	if d.task == nil {
		return nil
	}
	return d.task.Done()
}

// reap observes a finished task and returns the state to Idle.
func (d *Dispatcher) reap() {
	if d.task == nil {
		return
	}
	select {
	case <-d.task.Done():
	default:
		return
	}

	if err := d.task.Err(); err != nil {
		msg := err.Error()
		d.lastErr.Store(&msg)
	}
	d.task = nil
	d.input = nil
	d.current.Store(nil)
	d.state.Store(int32(Idle))
}

func (d *Dispatcher) logFailure(log *zap.Logger, op wire.Opcode, err error) {
	fields := []zap.Field{zap.Stringer("opcode", op), zap.Error(err)}
	if errors.KindOf(err) == errors.KindProtocol {
		log.Warn("frame dropped", fields...)
		return
	}
	log.Error("command failed", fields...)
}

func isEOF(err error) bool {
	return stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF)
}
