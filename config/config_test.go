package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/wippyai/ledhost/errors"
	"github.com/wippyai/ledhost/sink"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 88, cfg.LEDs.Count)
	assert.Equal(t, 10*time.Millisecond, cfg.Tick.Interval)
	assert.Equal(t, uint16(0x10), cfg.I2C.Address)
	assert.Equal(t, sink.PolicyAbort, cfg.Policy())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledhost.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
leds:
  count: 60
tick:
  interval: 20ms
transport:
  listen: ""
  connect: 192.168.4.250:5000
sink:
  kind: i2c
  on_error: skip
i2c:
  address: 0x22
  timeout: 15ms
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.LEDs.Count)
	assert.Equal(t, 20*time.Millisecond, cfg.Tick.Interval)
	assert.Equal(t, "192.168.4.250:5000", cfg.Transport.Connect)
	assert.Empty(t, cfg.Transport.Listen)
	assert.Equal(t, SinkI2C, cfg.Sink.Kind)
	assert.Equal(t, sink.PolicySkip, cfg.Policy())
	assert.Equal(t, uint16(0x22), cfg.I2C.Address)
	assert.Equal(t, 15*time.Millisecond, cfg.I2C.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Transport.ReconnectDelay, "unset keys keep defaults")
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("LEDHOST_LEDS_COUNT", "30")
	t.Setenv("LEDHOST_SINK_KIND", "strip")
	t.Setenv("LEDHOST_STRIP_FREQUENCY", "400kHz")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.LEDs.Count)
	assert.Equal(t, SinkStrip, cfg.Sink.Kind)

	f, err := cfg.Strip.Freq()
	require.NoError(t, err)
	assert.Equal(t, 400*physic.KiloHertz, f)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, errors.ErrConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero leds", func(c *Config) { c.LEDs.Count = 0 }},
		{"too many leds", func(c *Config) { c.LEDs.Count = 128 }},
		{"zero interval", func(c *Config) { c.Tick.Interval = 0 }},
		{"zero max frame", func(c *Config) { c.Protocol.MaxFrame = 0 }},
		{"both endpoints", func(c *Config) { c.Transport.Connect = "host:5000" }},
		{"no endpoint", func(c *Config) { c.Transport.Listen = "" }},
		{"zero reconnect delay", func(c *Config) { c.Transport.ReconnectDelay = 0 }},
		{"unknown policy", func(c *Config) { c.Sink.OnError = "retry" }},
		{"unknown sink", func(c *Config) { c.Sink.Kind = "dmx" }},
		{"bad frequency", func(c *Config) { c.Sink.Kind = SinkStrip; c.Strip.Frequency = "fast" }},
		{"wide address", func(c *Config) { c.Sink.Kind = SinkI2C; c.I2C.Address = 0x80 }},
		{"zero bus timeout", func(c *Config) { c.Sink.Kind = SinkI2C; c.I2C.Timeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), errors.ErrConfig)
		})
	}
}
