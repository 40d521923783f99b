package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/wippyai/ledhost/errors"
	"github.com/wippyai/ledhost/led"
)

// HeaderSize is the size of the little-endian length prefix.
const HeaderSize = 4

// DefaultMaxFrame bounds the payload a single frame may carry.
const DefaultMaxFrame = 1 << 20

// Opcode selects the command carried by a frame.
type Opcode byte

const (
	OpSetSolidColor Opcode = 0
	OpLoadProgram   Opcode = 1
	OpStop          Opcode = 2
	OpFeedInput     Opcode = 3
)

func (o Opcode) String() string {
	switch o {
	case OpSetSolidColor:
		return "set-solid-color"
	case OpLoadProgram:
		return "load-program"
	case OpStop:
		return "stop"
	case OpFeedInput:
		return "feed-input"
	default:
		return fmt.Sprintf("opcode(%d)", byte(o))
	}
}

// Known reports whether o is in the command table.
func (o Opcode) Known() bool {
	return o <= OpFeedInput
}

// Frame is one decoded command. Body is owned by the frame.
type Frame struct {
	Body   []byte
	Opcode Opcode
}

// Len returns the payload length: opcode byte plus body.
func (f Frame) Len() int {
	return 1 + len(f.Body)
}

// ReadFrame reads one frame. Every frame gets its own payload buffer, so a
// body handed to another goroutine is never overwritten by a later read.
// A zero length, an oversized length or a short read returns a fatal
// protocol error.
func ReadFrame(r io.Reader, limit uint32) (Frame, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, errors.FrameRead("header", err)
	}

	n := binary.LittleEndian.Uint32(hdr[:])
	if n == 0 {
		return Frame{}, errors.EmptyFrame()
	}
	if limit > 0 && n > limit {
		return Frame{}, errors.FrameTooLarge(n, limit)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, errors.FrameRead("body", err)
	}

	return Frame{Opcode: Opcode(payload[0]), Body: payload[1:]}, nil
}

// Encode returns the wire form of f.
func Encode(f Frame) []byte {
	buf := make([]byte, HeaderSize+f.Len())
	binary.LittleEndian.PutUint32(buf, uint32(f.Len()))
	buf[HeaderSize] = byte(f.Opcode)
	copy(buf[HeaderSize+1:], f.Body)
	return buf
}

// WriteFrame writes f to w in a single Write call.
func WriteFrame(w io.Writer, f Frame) error {
	if _, err := w.Write(Encode(f)); err != nil {
		return fmt.Errorf("write %s frame: %w", f.Opcode, err)
	}
	return nil
}

// SetSolidColor builds an opcode 0 frame.
func SetSolidColor(c led.Color) Frame {
	return Frame{Opcode: OpSetSolidColor, Body: []byte{c.R, c.G, c.B}}
}

// LoadProgram builds an opcode 1 frame.
func LoadProgram(module []byte) Frame {
	return Frame{Opcode: OpLoadProgram, Body: module}
}

// Stop builds an opcode 2 frame.
func Stop() Frame {
	return Frame{Opcode: OpStop}
}

// FeedInput builds an opcode 3 frame.
func FeedInput(data []byte) Frame {
	return Frame{Opcode: OpFeedInput, Body: data}
}

// ParseColor decodes a SetSolidColor body.
func ParseColor(body []byte) (led.Color, error) {
	if len(body) != 3 {
		return led.Color{}, errors.MalformedBody(OpSetSolidColor.String(),
			fmt.Sprintf("body is %d bytes, want 3", len(body)))
	}
	return led.RGB(body[0], body[1], body[2]), nil
}
