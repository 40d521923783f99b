package abi

import (
	"context"

	"github.com/wippyai/ledhost"
	"github.com/wippyai/ledhost/errors"
	"github.com/wippyai/ledhost/led"
)

// Translator turns the descriptor a tick returned into an LED update and
// applies it through a sink.
type Translator struct {
	Sink  led.Sink
	Count int
}

// Resolve decodes the descriptor at addr and, for buffered descriptors,
// reads the color array it points at. Triple i maps onto LED start+i.
func (t *Translator) Resolve(mem ledhost.Memory, addr uint32) (led.Update, error) {
	d, err := Decode(mem, addr, t.Count)
	if err != nil {
		return led.Update{}, err
	}

	if c, ok := d.Color(); ok {
		return led.Solid(d.Range(), c), nil
	}

	ptr, _ := d.Pointer()
	raw, err := mem.Read(ptr, d.ColorBytes())
	if err != nil {
		return led.Update{}, err
	}
	colors := make([]led.Color, d.Range().Len())
	for i := range colors {
		colors[i] = led.RGB(raw[3*i], raw[3*i+1], raw[3*i+2])
	}
	return led.Each(d.Range(), colors)
}

// Apply resolves the descriptor at addr and writes it to the sink. Decode
// failures keep their program runtime kind; sink failures that are not
// already classified are reported as hardware errors.
func (t *Translator) Apply(ctx context.Context, mem ledhost.Memory, addr uint32) (led.Update, error) {
	u, err := t.Resolve(mem, addr)
	if err != nil {
		return led.Update{}, err
	}
	if err := t.Sink.Apply(ctx, u); err != nil {
		if errors.KindOf(err) == "" {
			err = errors.Wrap(errors.PhaseStrip, errors.KindHardware, err, "apply update")
		}
		return u, err
	}
	return u, nil
}
