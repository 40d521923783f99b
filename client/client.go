package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/wippyai/ledhost/led"
	"github.com/wippyai/ledhost/wire"
)

// Client sends commands over a command channel. The controller sends no
// replies; effects are observed on the strip or through the status server.
type Client struct {
	w      io.Writer
	closer io.Closer
}

// New wraps an established channel.
func New(w io.Writer) *Client {
	c := &Client{w: w}
	if cl, ok := w.(io.Closer); ok {
		c.closer = cl
	}
	return c
}

// Dial connects to a controller listening on addr.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return New(conn), nil
}

// Close closes the underlying channel if it can be closed.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// SetColor sets the whole strip to one color, stopping any program.
func (c *Client) SetColor(col led.Color) error {
	return wire.WriteFrame(c.w, wire.SetSolidColor(col))
}

// Load sends a program module.
func (c *Client) Load(module []byte) error {
	if len(module) == 0 {
		return fmt.Errorf("empty module")
	}
	return wire.WriteFrame(c.w, wire.LoadProgram(module))
}

// LoadFile reads and sends a program module.
func (c *Client) LoadFile(path string) error {
	module, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read module: %w", err)
	}
	return c.Load(module)
}

// Stop stops the running program.
func (c *Client) Stop() error {
	return wire.WriteFrame(c.w, wire.Stop())
}

// Feed delivers bytes to the running program.
func (c *Client) Feed(data []byte) error {
	return wire.WriteFrame(c.w, wire.FeedInput(data))
}

// ParseColor accepts "#rrggbb", "rrggbb" or "r,g,b".
func ParseColor(s string) (led.Color, error) {
	s = strings.TrimSpace(s)
	if parts := strings.Split(s, ","); len(parts) == 3 {
		var rgb [3]uint8
		for i, p := range parts {
			v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil {
				return led.Color{}, fmt.Errorf("color %q: %w", s, err)
			}
			rgb[i] = uint8(v)
		}
		return led.RGB(rgb[0], rgb[1], rgb[2]), nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return led.Color{}, fmt.Errorf("color %q: want #rrggbb or r,g,b", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return led.Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return led.RGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}
