package client

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Scene is a scripted sequence of commands, loaded from YAML:
//
//	loop: true
//	steps:
//	  - color: "#200000"
//	    hold: 500ms
//	  - load: rainbow.wasm
//	    hold: 10s
//	  - input: "faster"
//	  - stop: true
type Scene struct {
	Steps []Step `yaml:"steps"`
	Loop  bool   `yaml:"loop"`

	dir string
}

// Step is one command followed by an optional pause. Exactly one command
// field must be set.
type Step struct {
	Color    string        `yaml:"color,omitempty"`
	Load     string        `yaml:"load,omitempty"`
	Input    string        `yaml:"input,omitempty"`
	InputHex string        `yaml:"input_hex,omitempty"`
	Hold     time.Duration `yaml:"hold,omitempty"`
	Stop     bool          `yaml:"stop,omitempty"`
}

// LoadScene reads a scene file. Module paths are resolved relative to it.
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	s, err := ParseScene(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.dir = filepath.Dir(path)
	return s, nil
}

// ParseScene decodes and validates a scene.
func ParseScene(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("scene has no steps")
	}
	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &s, nil
}

func (st Step) validate() error {
	n := 0
	for _, set := range []bool{st.Color != "", st.Load != "", st.Input != "", st.InputHex != "", st.Stop} {
		if set {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("want exactly one of color, load, input, input_hex, stop; got %d", n)
	}
	if st.Color != "" {
		if _, err := ParseColor(st.Color); err != nil {
			return err
		}
	}
	if st.InputHex != "" {
		if _, err := hex.DecodeString(st.InputHex); err != nil {
			return fmt.Errorf("input_hex: %w", err)
		}
	}
	if st.Hold < 0 {
		return fmt.Errorf("negative hold %s", st.Hold)
	}
	return nil
}

// Play sends the scene through c, once or until ctx is done when Loop is
// set.
func (s *Scene) Play(ctx context.Context, c *Client) error {
	for {
		for i, st := range s.Steps {
			if err := s.run(c, st); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
			if st.Hold > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(st.Hold):
				}
			} else if err := ctx.Err(); err != nil {
				return err
			}
		}
		if !s.Loop {
			return nil
		}
	}
}

func (s *Scene) run(c *Client, st Step) error {
	switch {
	case st.Color != "":
		col, err := ParseColor(st.Color)
		if err != nil {
			return err
		}
		return c.SetColor(col)
	case st.Load != "":
		path := st.Load
		if !filepath.IsAbs(path) && s.dir != "" {
			path = filepath.Join(s.dir, path)
		}
		return c.LoadFile(path)
	case st.Input != "":
		return c.Feed([]byte(st.Input))
	case st.InputHex != "":
		data, err := hex.DecodeString(st.InputHex)
		if err != nil {
			return err
		}
		return c.Feed(data)
	default:
		return c.Stop()
	}
}
