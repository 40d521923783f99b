package sink

import "github.com/wippyai/ledhost/led"

//go:generate mockgen -destination=mocks/mock_sink.go -package=mocks github.com/wippyai/ledhost/sink StripDriver,Bus

// StripDriver is the attached-strip collaborator. SetRange stages colors
// for LEDs start..end inclusive; Flush latches staged colors onto the strip.
type StripDriver interface {
	SetRange(start, end int, colors []led.Color) error
	Flush() error
}

// Bus executes one write transaction to a device on a two-wire bus.
// periph.io i2c.Bus and i2c.BusCloser implement it.
type Bus interface {
	Tx(addr uint16, w, r []byte) error
}
