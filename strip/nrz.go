package strip

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
)

// DefaultFrequency is the NRZ bit rate of WS2812-class strips.
const DefaultFrequency = 800 * physic.KiloHertz

type pixelWriter interface {
	Write(p []byte) (int, error)
	Halt() error
}

// NRZ drives a WS2812/APA106-class strip through an SPI port.
type NRZ struct {
	*Buffer
	dev  pixelWriter
	port spi.PortCloser
}

// OpenNRZ opens the named SPI port ("" for the first one) and attaches a
// strip of count LEDs to it.
func OpenNRZ(portName string, count int, freq physic.Frequency) (*NRZ, error) {
	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", portName, err)
	}
	n, err := NewNRZ(port, count, freq)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	n.port = port
	return n, nil
}

// NewNRZ attaches a strip of count LEDs to an already open port.
func NewNRZ(port spi.Port, count int, freq physic.Frequency) (*NRZ, error) {
	if freq == 0 {
		freq = DefaultFrequency
	}
	opts := nrzled.DefaultOpts
	opts.NumPixels = count
	opts.Channels = 3
	opts.Freq = freq

	dev, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	return newNRZ(dev, count), nil
}

func newNRZ(dev pixelWriter, count int) *NRZ {
	return &NRZ{Buffer: NewBuffer(count), dev: dev}
}

// Flush latches the staged frame and shifts it out to the strip.
func (n *NRZ) Flush() error {
	if err := n.Buffer.Flush(); err != nil {
		return err
	}
	if _, err := n.dev.Write(n.Bytes()); err != nil {
		return fmt.Errorf("nrzled write: %w", err)
	}
	return nil
}

// Close blanks the strip and releases the port.
func (n *NRZ) Close() error {
	err := n.dev.Halt()
	if n.port != nil {
		if cerr := n.port.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
