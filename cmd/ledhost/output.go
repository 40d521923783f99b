package main

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/wippyai/ledhost/config"
	"github.com/wippyai/ledhost/led"
	"github.com/wippyai/ledhost/sink"
	"github.com/wippyai/ledhost/status"
	"github.com/wippyai/ledhost/strip"
)

// output is the configured sink plus what has to be released with it.
type output struct {
	sink   led.Sink
	frames status.FrameSource // nil when nothing local holds the frame
	closer io.Closer
}

func (o *output) Close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer.Close()
}

func openOutput(cfg *config.Config, log *zap.Logger) (*output, error) {
	count := cfg.LEDs.Count

	switch cfg.Sink.Kind {
	case config.SinkTerminal:
		t := strip.NewTerminal(os.Stdout, count)
		return &output{sink: sink.NewStrip(t), frames: t}, nil

	case config.SinkStrip:
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("periph host init: %w", err)
		}
		freq, err := cfg.Strip.Freq()
		if err != nil {
			return nil, err
		}
		n, err := strip.OpenNRZ(cfg.Strip.SPIPort, count, freq)
		if err != nil {
			return nil, err
		}
		log.Info("strip attached",
			zap.String("port", cfg.Strip.SPIPort),
			zap.Stringer("freq", freq),
			zap.Int("leds", count))
		return &output{sink: sink.NewStrip(n), frames: n, closer: n}, nil

	case config.SinkI2C:
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("periph host init: %w", err)
		}
		bus, err := i2creg.Open(cfg.I2C.Bus)
		if err != nil {
			return nil, fmt.Errorf("open i2c bus %q: %w", cfg.I2C.Bus, err)
		}
		s, err := sink.NewI2C(bus, count,
			sink.WithAddress(cfg.I2C.Address),
			sink.WithTimeout(cfg.I2C.Timeout))
		if err != nil {
			_ = bus.Close()
			return nil, err
		}
		log.Info("i2c bus attached",
			zap.String("bus", bus.String()),
			zap.Uint16("addr", cfg.I2C.Address))
		return &output{sink: s, closer: bus}, nil

	default:
		return nil, fmt.Errorf("unknown sink kind %q", cfg.Sink.Kind)
	}
}
