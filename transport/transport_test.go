package transport

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListener_ServesSessionsInTurn(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan string, 2)
	l := &Listener{Listener: ln}

	done := make(chan error, 1)
	go func() {
		done <- l.Run(ctx, func(_ context.Context, conn net.Conn) error {
			b, err := io.ReadAll(conn)
			got <- string(b)
			return err
		})
	}()

	for _, msg := range []string{"first", "second"} {
		c, err := net.Dial("tcp", ln.Addr().String())
		require.NoError(t, err)
		_, err = c.Write([]byte(msg))
		require.NoError(t, err)
		require.NoError(t, c.Close())
		select {
		case s := <-got:
			assert.Equal(t, msg, s)
		case <-time.After(2 * time.Second):
			t.Fatal("session not served")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestListener_CancelClosesActiveSession(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	entered := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- (&Listener{Listener: ln}).Run(ctx, func(_ context.Context, conn net.Conn) error {
			close(entered)
			_, err := io.ReadAll(conn)
			return err
		})
	}()

	c, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer c.Close()
	<-entered

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked session was not closed on cancel")
	}
}

func TestDialer_Reconnects(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			_ = c.Close()
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	sessions := make(chan struct{}, 8)
	d := &Dialer{Addr: ln.Addr().String(), Delay: time.Millisecond}

	done := make(chan error, 1)
	go func() {
		done <- d.Run(ctx, func(context.Context, net.Conn) error {
			select {
			case sessions <- struct{}{}:
			default:
			}
			return io.EOF
		})
	}()

	for range 2 {
		select {
		case <-sessions:
		case <-time.After(2 * time.Second):
			t.Fatal("dialer did not reconnect")
		}
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestDialer_RetriesFailedDial(t *testing.T) {
	attempts := 0
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dialer{
		Addr:  "control:5000",
		Delay: time.Millisecond,
		Dial: func(context.Context, string, string) (net.Conn, error) {
			attempts++
			if attempts == 3 {
				cancel()
			}
			return nil, &net.OpError{Op: "dial", Err: io.ErrClosedPipe}
		},
	}

	err := d.Run(ctx, func(context.Context, net.Conn) error {
		t.Fatal("handler must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, attempts)
}
