package abi

import (
	"fmt"
	"math"

	"github.com/wippyai/ledhost"
	"github.com/wippyai/ledhost/errors"
	"github.com/wippyai/ledhost/led"
)

// Discriminant values of the output descriptor.
const (
	DiscUnbuffered uint8 = 0
	DiscBuffered   uint8 = 1
)

// Payload sizes following the discriminant byte.
const (
	unbufferedPayload = 5 // start, end, r, g, b
	bufferedPayload   = 6 // start, end, u32 LE pointer
)

// Descriptor is the decoded output of one tick. It is either unbuffered
// (one inline color) or buffered (a pointer to per-LED colors). Construct it
// with NewUnbuffered, NewBuffered or Decode; the zero value is an
// unbuffered descriptor for LED 0 and black.
type Descriptor struct {
	rng     led.Range
	color   led.Color
	pointer uint32
	mode    led.Mode
}

// NewUnbuffered checks the range and builds an unbuffered descriptor.
func NewUnbuffered(start, end uint8, c led.Color, count int) (Descriptor, error) {
	r, err := led.NewRange(start, end, count)
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{rng: r, color: c, mode: led.Unbuffered}, nil
}

// NewBuffered checks the range and builds a buffered descriptor.
func NewBuffered(start, end uint8, pointer uint32, count int) (Descriptor, error) {
	r, err := led.NewRange(start, end, count)
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{rng: r, pointer: pointer, mode: led.Buffered}, nil
}

// Mode returns which variant d holds.
func (d Descriptor) Mode() led.Mode {
	return d.mode
}

// Range returns the LED range the descriptor covers.
func (d Descriptor) Range() led.Range {
	return d.rng
}

// Color returns the inline color of an unbuffered descriptor.
func (d Descriptor) Color() (led.Color, bool) {
	return d.color, d.mode == led.Unbuffered
}

// Pointer returns the color array address of a buffered descriptor.
func (d Descriptor) Pointer() (uint32, bool) {
	return d.pointer, d.mode == led.Buffered
}

// ColorBytes is the number of RGB bytes a buffered descriptor points at.
func (d Descriptor) ColorBytes() uint32 {
	return uint32(d.rng.Len()) * 3
}

func (d Descriptor) String() string {
	if d.mode == led.Buffered {
		return fmt.Sprintf("buffered %s @%d", d.rng, d.pointer)
	}
	return fmt.Sprintf("unbuffered %s %s", d.rng, d.color.Hex())
}

// Decode reads the descriptor at addr. The discriminant is read and checked
// first, then only the matching variant's fields. Short reads and invalid
// ranges are program runtime errors.
func Decode(mem ledhost.Memory, addr uint32, count int) (Descriptor, error) {
	if addr > math.MaxUint32-(1+bufferedPayload) {
		return Descriptor{}, errors.New(errors.PhaseDecode, errors.KindProgramRuntime).
			Path("descriptor").
			Value(addr).
			Detail("descriptor address %d overflows guest address space", addr).
			Build()
	}

	disc, err := mem.ReadU8(addr)
	if err != nil {
		return Descriptor{}, err
	}

	switch disc {
	case DiscUnbuffered:
		b, err := mem.Read(addr+1, unbufferedPayload)
		if err != nil {
			return Descriptor{}, err
		}
		return NewUnbuffered(b[0], b[1], led.RGB(b[2], b[3], b[4]), count)

	case DiscBuffered:
		b, err := mem.Read(addr+1, bufferedPayload)
		if err != nil {
			return Descriptor{}, err
		}
		ptr := uint32(b[2]) | uint32(b[3])<<8 | uint32(b[4])<<16 | uint32(b[5])<<24
		return NewBuffered(b[0], b[1], ptr, count)

	default:
		return Descriptor{}, errors.InvalidDiscriminant([]string{"descriptor"}, disc, DiscBuffered)
	}
}
