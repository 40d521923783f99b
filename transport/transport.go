// Package transport establishes the command channel. The controller either
// dials the control host (Dialer) or accepts connections from it
// (Listener). Either way one session is served at a time.
package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

// DefaultReconnectDelay is the pause between sessions.
const DefaultReconnectDelay = 2 * time.Second

// Handler serves one session. The connection is closed after it returns
// and when ctx is done.
type Handler func(ctx context.Context, conn net.Conn) error

// Runner runs sessions until ctx is done.
type Runner interface {
	Run(ctx context.Context, h Handler) error
}

// Dialer connects out to the control host and reconnects after each
// session ends.
type Dialer struct {
	Logger *zap.Logger
	// Dial defaults to a net.Dialer with a 5s timeout.
	Dial  func(ctx context.Context, network, addr string) (net.Conn, error)
	Addr  string
	Delay time.Duration
}

// Run implements Runner.
func (d *Dialer) Run(ctx context.Context, h Handler) error {
	log := orNop(d.Logger).With(zap.String("addr", d.Addr))
	dial := d.Dial
	if dial == nil {
		nd := &net.Dialer{Timeout: 5 * time.Second}
		dial = nd.DialContext
	}
	delay := d.Delay
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}

	for {
		conn, err := dial(ctx, "tcp", d.Addr)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("dial failed", zap.Error(err))
		} else {
			log.Info("connected")
			serve(ctx, conn, h, log)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// Listener accepts control connections and serves them one at a time.
type Listener struct {
	Logger *zap.Logger
	// Listener is used instead of listening on Addr when set.
	Listener net.Listener
	Addr     string
}

// Run implements Runner.
func (l *Listener) Run(ctx context.Context, h Handler) error {
	ln := l.Listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", l.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", l.Addr, err)
		}
	}
	log := orNop(l.Logger).With(zap.String("listen", ln.Addr().String()))
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	defer ln.Close()

	log.Info("waiting for control connections")
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("accept: %w", err)
		}
		log.Info("control connection accepted", zap.String("remote", conn.RemoteAddr().String()))
		serve(ctx, conn, h, log)
	}
}

func serve(ctx context.Context, conn net.Conn, h Handler, log *zap.Logger) {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	if err := h(ctx, conn); err != nil && ctx.Err() == nil {
		log.Info("session ended", zap.Error(err))
	}
}

func orNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
