// Package led holds the hardware-neutral LED update model shared by the
// translator, the sinks and the strip drivers.
package led

import (
	"context"
	"fmt"

	"github.com/wippyai/ledhost/errors"
)

// MaxCount is the largest supported strip length. Buffered updates on the
// bus are addressed as count+start, which must fit in one byte.
const MaxCount = 127

// Color is one RGB triple.
type Color struct {
	R, G, B uint8
}

// RGB builds a Color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// Bytes returns the color as three bytes in R, G, B order.
func (c Color) Bytes() [3]byte {
	return [3]byte{c.R, c.G, c.B}
}

// Hex returns the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Range is an inclusive span of LED indices.
type Range struct {
	Start, End uint8
}

// NewRange checks start <= end < count.
func NewRange(start, end uint8, count int) (Range, error) {
	if start > end || int(end) >= count {
		return Range{}, errors.InvalidRange(start, end, count)
	}
	return Range{Start: start, End: end}, nil
}

// Full covers every LED of a strip with count LEDs.
func Full(count int) Range {
	return Range{Start: 0, End: uint8(count - 1)}
}

// Len returns the number of LEDs in the range.
func (r Range) Len() int {
	return int(r.End) - int(r.Start) + 1
}

func (r Range) String() string {
	return fmt.Sprintf("[%d..%d]", r.Start, r.End)
}

// Mode says where an update's colors came from.
type Mode uint8

const (
	// Unbuffered updates carry one color applied to the whole range.
	Unbuffered Mode = iota
	// Buffered updates carry one color per LED.
	Buffered
)

func (m Mode) String() string {
	switch m {
	case Unbuffered:
		return "unbuffered"
	case Buffered:
		return "buffered"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Update is a range plus its colors. Unbuffered updates hold exactly one
// color; buffered updates hold Range.Len() colors in LED order.
type Update struct {
	Colors []Color
	Range  Range
	Mode   Mode
}

// Solid builds an unbuffered update.
func Solid(r Range, c Color) Update {
	return Update{Range: r, Mode: Unbuffered, Colors: []Color{c}}
}

// Each builds a buffered update.
func Each(r Range, colors []Color) (Update, error) {
	if len(colors) != r.Len() {
		return Update{}, fmt.Errorf("buffered update for %s needs %d colors, got %d", r, r.Len(), len(colors))
	}
	return Update{Range: r, Mode: Buffered, Colors: colors}, nil
}

// Expand returns one color per LED in the range.
func (u Update) Expand() []Color {
	if u.Mode == Buffered {
		return u.Colors
	}
	out := make([]Color, u.Range.Len())
	if len(u.Colors) == 0 {
		return out
	}
	for i := range out {
		out[i] = u.Colors[0]
	}
	return out
}

// Sink applies LED updates to hardware.
type Sink interface {
	Apply(ctx context.Context, u Update) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, u Update) error

// Apply calls f.
func (f SinkFunc) Apply(ctx context.Context, u Update) error {
	return f(ctx, u)
}
