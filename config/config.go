package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"periph.io/x/conn/v3/physic"

	"github.com/wippyai/ledhost/errors"
	"github.com/wippyai/ledhost/led"
	"github.com/wippyai/ledhost/sink"
)

// EnvPrefix prefixes environment overrides, e.g. LEDHOST_LEDS_COUNT.
const EnvPrefix = "LEDHOST"

// Sink kinds.
const (
	SinkTerminal = "terminal"
	SinkStrip    = "strip"
	SinkI2C      = "i2c"
)

// Config is the controller configuration.
type Config struct {
	Transport Transport `mapstructure:"transport"`
	Sink      Sink      `mapstructure:"sink"`
	Strip     Strip     `mapstructure:"strip"`
	I2C       I2C       `mapstructure:"i2c"`
	Network   Network   `mapstructure:"network"`
	Status    Status    `mapstructure:"status"`
	Log       Log       `mapstructure:"log"`
	LEDs      LEDs      `mapstructure:"leds"`
	Tick      Tick      `mapstructure:"tick"`
	Engine    Engine    `mapstructure:"engine"`
	Protocol  Protocol  `mapstructure:"protocol"`
}

type LEDs struct {
	Count int `mapstructure:"count"`
}

type Tick struct {
	Interval time.Duration `mapstructure:"interval"`
}

type Engine struct {
	MemoryLimitPages uint32 `mapstructure:"memory_limit_pages"`
	WASI             bool   `mapstructure:"wasi"`
}

type Protocol struct {
	MaxFrame uint32 `mapstructure:"max_frame"`
}

// Transport selects how the command channel is established. Exactly one
// of Connect and Listen must be set.
type Transport struct {
	Connect        string        `mapstructure:"connect"`
	Listen         string        `mapstructure:"listen"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
}

type Sink struct {
	Kind    string `mapstructure:"kind"`
	OnError string `mapstructure:"on_error"`
}

type Strip struct {
	SPIPort   string `mapstructure:"spi_port"`
	Frequency string `mapstructure:"frequency"`
}

type I2C struct {
	Bus     string        `mapstructure:"bus"`
	Address uint16        `mapstructure:"address"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Network struct {
	SSID string `mapstructure:"ssid"`
	PSK  string `mapstructure:"psk"`
}

// Status configures the HTTP status surface; an empty Listen disables it.
type Status struct {
	Listen string `mapstructure:"listen"`
}

type Log struct {
	Level string `mapstructure:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LEDs:     LEDs{Count: 88},
		Tick:     Tick{Interval: 10 * time.Millisecond},
		Engine:   Engine{MemoryLimitPages: 16},
		Protocol: Protocol{MaxFrame: 1 << 20},
		Transport: Transport{
			Listen:         ":5000",
			ReconnectDelay: 2 * time.Second,
		},
		Sink:   Sink{Kind: SinkTerminal, OnError: string(sink.PolicyAbort)},
		Strip:  Strip{Frequency: "800kHz"},
		I2C:    I2C{Address: sink.DefaultAddress, Timeout: sink.DefaultTimeout},
		Status: Status{Listen: ""},
		Log:    Log{Level: "info"},
	}
}

// Load reads defaults, then path (if set), then LEDHOST_* environment
// variables, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.New(errors.PhaseConfig, errors.KindConfig).
				Path(path).
				Detail("read config file").
				Cause(err).
				Build()
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindConfig, err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("leds.count", d.LEDs.Count)
	v.SetDefault("tick.interval", d.Tick.Interval)
	v.SetDefault("engine.memory_limit_pages", d.Engine.MemoryLimitPages)
	v.SetDefault("engine.wasi", d.Engine.WASI)
	v.SetDefault("protocol.max_frame", d.Protocol.MaxFrame)
	v.SetDefault("transport.connect", d.Transport.Connect)
	v.SetDefault("transport.listen", d.Transport.Listen)
	v.SetDefault("transport.reconnect_delay", d.Transport.ReconnectDelay)
	v.SetDefault("sink.kind", d.Sink.Kind)
	v.SetDefault("sink.on_error", d.Sink.OnError)
	v.SetDefault("strip.spi_port", d.Strip.SPIPort)
	v.SetDefault("strip.frequency", d.Strip.Frequency)
	v.SetDefault("i2c.bus", d.I2C.Bus)
	v.SetDefault("i2c.address", d.I2C.Address)
	v.SetDefault("i2c.timeout", d.I2C.Timeout)
	v.SetDefault("network.ssid", d.Network.SSID)
	v.SetDefault("network.psk", d.Network.PSK)
	v.SetDefault("status.listen", d.Status.Listen)
	v.SetDefault("log.level", d.Log.Level)
}

// Validate checks ranges and combinations viper cannot express.
func (c *Config) Validate() error {
	if c.LEDs.Count < 1 || c.LEDs.Count > led.MaxCount {
		return errors.InvalidConfig("leds.count", fmt.Sprintf("must be 1..%d, got %d", led.MaxCount, c.LEDs.Count))
	}
	if c.Tick.Interval <= 0 {
		return errors.InvalidConfig("tick.interval", "must be positive")
	}
	if c.Protocol.MaxFrame == 0 {
		return errors.InvalidConfig("protocol.max_frame", "must be positive")
	}
	if (c.Transport.Connect == "") == (c.Transport.Listen == "") {
		return errors.InvalidConfig("transport", "set exactly one of transport.connect and transport.listen")
	}
	if c.Transport.ReconnectDelay <= 0 {
		return errors.InvalidConfig("transport.reconnect_delay", "must be positive")
	}
	if _, err := sink.ParsePolicy(c.Sink.OnError); err != nil {
		return err
	}

	switch c.Sink.Kind {
	case SinkTerminal:
	case SinkStrip:
		if _, err := c.Strip.Freq(); err != nil {
			return err
		}
	case SinkI2C:
		if c.I2C.Address > 0x7f {
			return errors.InvalidConfig("i2c.address", fmt.Sprintf("0x%x is not a 7-bit address", c.I2C.Address))
		}
		if c.I2C.Timeout <= 0 {
			return errors.InvalidConfig("i2c.timeout", "must be positive")
		}
	default:
		return errors.InvalidConfig("sink.kind", fmt.Sprintf("must be %s, %s or %s, got %q", SinkTerminal, SinkStrip, SinkI2C, c.Sink.Kind))
	}
	return nil
}

// Policy returns the parsed sink failure policy.
func (c *Config) Policy() sink.Policy {
	p, _ := sink.ParsePolicy(c.Sink.OnError)
	return p
}

// Freq parses Frequency, e.g. "800kHz".
func (s Strip) Freq() (physic.Frequency, error) {
	var f physic.Frequency
	if err := f.Set(s.Frequency); err != nil {
		return 0, errors.InvalidConfig("strip.frequency", err.Error())
	}
	return f, nil
}
