package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"go-drumpad/kit"
)

// ControllerType identifies the kind of controller
type ControllerType string

const (
	ControllerLaunchpadX ControllerType = "launchpad-x"
	ControllerKeyboard   ControllerType = "keyboard"
)

// ControllerConfig defines a known controller
type ControllerConfig struct {
	PortName    string         `json:"portName" yaml:"portName" toml:"portName"`
	Type        ControllerType `json:"type" yaml:"type" toml:"type"`
	AutoConnect bool           `json:"autoConnect" yaml:"autoConnect" toml:"autoConnect"`
}

// AudioConfig controls the output device
type AudioConfig struct {
	SampleRate    int  `json:"sampleRate,omitempty" yaml:"sampleRate,omitempty" toml:"sampleRate,omitempty"`
	LatencyMillis int  `json:"latencyMillis,omitempty" yaml:"latencyMillis,omitempty" toml:"latencyMillis,omitempty"`
	Mute          bool `json:"mute,omitempty" yaml:"mute,omitempty" toml:"mute,omitempty"`
}

// InputConfig tunes synthesized releases and hold-to-repeat
type InputConfig struct {
	HoldMillis   int `json:"holdMillis,omitempty" yaml:"holdMillis,omitempty" toml:"holdMillis,omitempty"`       // pad stays lit this long after a key press
	RepeatMillis int `json:"repeatMillis,omitempty" yaml:"repeatMillis,omitempty" toml:"repeatMillis,omitempty"` // volume button repeat while held
}

// Config is the main configuration structure
type Config struct {
	Kit         string             `json:"kit" yaml:"kit" toml:"kit"`
	Kits        []kit.Kit          `json:"kits,omitempty" yaml:"kits,omitempty" toml:"kits,omitempty"` // user kits, looked up before built-ins
	Volume      int                `json:"volume" yaml:"volume" toml:"volume"`
	Palette     string             `json:"palette,omitempty" yaml:"palette,omitempty" toml:"palette,omitempty"` // GPL file, embedded default when empty
	Debug       bool               `json:"debug,omitempty" yaml:"debug,omitempty" toml:"debug,omitempty"`
	Audio       AudioConfig        `json:"audio" yaml:"audio" toml:"audio"`
	Input       InputConfig        `json:"input" yaml:"input" toml:"input"`
	Controllers []ControllerConfig `json:"controllers,omitempty" yaml:"controllers,omitempty" toml:"controllers,omitempty"`
}

var ErrUnknownKit = errors.New("unknown kit")

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Kit:    kit.DefaultKit,
		Volume: 80,
		Audio: AudioConfig{
			SampleRate:    44100,
			LatencyMillis: 30,
		},
		Input: InputConfig{
			HoldMillis:   150,
			RepeatMillis: 60,
		},
		Controllers: []ControllerConfig{
			{
				PortName:    "Launchpad X LPX MIDI",
				Type:        ControllerLaunchpadX,
				AutoConnect: true,
			},
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-drumpad"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from the default path, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. The format follows the extension
// (.json, .yaml/.yml or .toml). Missing fields keep their defaults; a
// missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := unmarshal(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects out of range values and broken user kits
func (c *Config) Validate() error {
	if c.Volume < 0 || c.Volume > 100 {
		return fmt.Errorf("volume %d out of range 0-100", c.Volume)
	}
	if c.Input.HoldMillis <= 0 {
		return fmt.Errorf("holdMillis must be positive")
	}
	if c.Input.RepeatMillis <= 0 {
		return fmt.Errorf("repeatMillis must be positive")
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("sampleRate must be positive")
	}
	if c.Audio.LatencyMillis <= 0 {
		return fmt.Errorf("latencyMillis must be positive")
	}
	for _, k := range c.Kits {
		if err := k.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := marshal(path, c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func unmarshal(path string, data []byte, c *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, c)
	case ".toml":
		_, err := toml.Decode(string(data), c)
		return err
	}
	return json.Unmarshal(data, c)
}

func marshal(path string, c *Config) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Marshal(c)
	case ".toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return json.MarshalIndent(c, "", "  ")
}

// ResolveKit finds the selected kit, user kits first, and validates it
func (c *Config) ResolveKit() (kit.Kit, error) {
	for _, k := range c.Kits {
		if k.Name == c.Kit {
			return k.Clone(), k.Validate()
		}
	}
	if k, ok := kit.Get(c.Kit); ok {
		return k, k.Validate()
	}
	return kit.Kit{}, fmt.Errorf("%w %q", ErrUnknownKit, c.Kit)
}

// FindController finds a controller config by port name
func (c *Config) FindController(portName string) *ControllerConfig {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == portName {
			return &c.Controllers[i]
		}
	}
	return nil
}

// ShouldConnect reports whether a port may be opened. Unknown ports are
// allowed; known ones follow their autoConnect flag.
func (c *Config) ShouldConnect(portName string) bool {
	if ctrl := c.FindController(portName); ctrl != nil {
		return ctrl.AutoConnect
	}
	return true
}

func (c *Config) HoldDuration() time.Duration {
	return time.Duration(c.Input.HoldMillis) * time.Millisecond
}

func (c *Config) RepeatInterval() time.Duration {
	return time.Duration(c.Input.RepeatMillis) * time.Millisecond
}

func (c *Config) Latency() time.Duration {
	return time.Duration(c.Audio.LatencyMillis) * time.Millisecond
}
