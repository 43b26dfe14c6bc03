package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"dacdial/gain"
	"dacdial/tlv320"
)

// Config is the top-level YAML configuration for the dacdial daemon.
//
// The config file is the primary configuration surface; flags exist for
// small overrides and for environments where a file is awkward. Defaults and
// validation live here so the rest of the code can assume a well-formed
// config.
type Config struct {
	// Codec hardware configuration
	Codec CodecConfig `yaml:"codec"`

	// Interactive control loop configuration
	Control ControlConfig `yaml:"control"`

	// IPC configuration
	IPC IPCConfig `yaml:"ipc"`

	// State WebSocket server configuration
	StateWS StateWSConfig `yaml:"statews"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

type CodecConfig struct {
	I2CBus     int  `yaml:"i2c_bus"`
	I2CAddr    int  `yaml:"i2c_addr"`
	SampleRate int  `yaml:"sample_rate"`
	BitDepth   int  `yaml:"bit_depth"`
	LineLevel  bool `yaml:"line_level"`

	// MaxDV narrows the digital volume ceiling below the codec's nominal
	// +24 dB. Raising this makes headphone output dangerously loud.
	MaxDV float64 `yaml:"max_dv"`
}

type ControlConfig struct {
	PollIntervalMS int     `yaml:"poll_interval_ms"`
	DVStepDB       float64 `yaml:"dv_step_db"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path"`
}

type StateWSConfig struct {
	Port int `yaml:"port"` // 0 disables the server
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go defaults and current CLI defaults.
func DefaultConfig() Config {
	return Config{
		Codec: CodecConfig{
			I2CBus:     defaultI2CBus,
			I2CAddr:    tlv320.DefaultAddr,
			SampleRate: defaultSampleRate,
			BitDepth:   defaultBitDepth,
			LineLevel:  false,
			MaxDV:      defaultMaxDV,
		},
		Control: ControlConfig{
			PollIntervalMS: defaultPollIntervalMS,
			DVStepDB:       defaultDVStepDB,
		},
		IPC: IPCConfig{
			SocketPath: "/tmp/dacdial.sock",
		},
		StateWS: StateWSConfig{
			Port: 3002,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file.
//
// Unknown fields are rejected (helps catch typos) via KnownFields(true), and
// trailing documents are an error.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides carries flag values to apply on top of a loaded config.
// Each override is only applied when its pointer is non-nil.
type FlagOverrides struct {
	I2CBus     *int
	I2CAddr    *int
	SampleRate *int
	BitDepth   *int
	LineLevel  *bool
	MaxDV      *float64

	PollIntervalMS *int
	DVStepDB       *float64

	IPCSocketPath *string
	StateWSPort   *int

	LogLevel *string
}

// Apply merges the overrides into cfg. Nil pointers are ignored; non-nil
// values are applied even when they equal the zero value.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.I2CBus != nil {
		cfg.Codec.I2CBus = *o.I2CBus
	}
	if o.I2CAddr != nil {
		cfg.Codec.I2CAddr = *o.I2CAddr
	}
	if o.SampleRate != nil {
		cfg.Codec.SampleRate = *o.SampleRate
	}
	if o.BitDepth != nil {
		cfg.Codec.BitDepth = *o.BitDepth
	}
	if o.LineLevel != nil {
		cfg.Codec.LineLevel = *o.LineLevel
	}
	if o.MaxDV != nil {
		cfg.Codec.MaxDV = *o.MaxDV
	}

	if o.PollIntervalMS != nil {
		cfg.Control.PollIntervalMS = *o.PollIntervalMS
	}
	if o.DVStepDB != nil {
		cfg.Control.DVStepDB = *o.DVStepDB
	}

	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.StateWSPort != nil {
		cfg.StateWS.Port = *o.StateWSPort
	}

	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// This is intended to be called after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	if c.Codec.I2CBus < 0 {
		return errors.New("codec.i2c_bus must be >= 0")
	}
	if c.Codec.I2CAddr <= 0 || c.Codec.I2CAddr > 0x7F {
		return errors.New("codec.i2c_addr must be a 7-bit I2C address")
	}
	if c.Codec.SampleRate <= 0 {
		return errors.New("codec.sample_rate must be > 0")
	}
	if c.Codec.BitDepth != 16 && c.Codec.BitDepth != 32 {
		return errors.New("codec.bit_depth must be 16 or 32")
	}
	if c.Codec.MaxDV < gain.DACVolume.MinDB || c.Codec.MaxDV > gain.DACVolume.MaxDB {
		return fmt.Errorf("codec.max_dv must be within [%.1f, %.1f]",
			gain.DACVolume.MinDB, gain.DACVolume.MaxDB)
	}

	if c.Control.PollIntervalMS <= 0 || c.Control.PollIntervalMS > 1000 {
		return errors.New("control.poll_interval_ms must be between 1 and 1000")
	}
	if c.Control.DVStepDB <= 0 {
		return errors.New("control.dv_step_db must be > 0")
	}

	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}
	if c.StateWS.Port < 0 || c.StateWS.Port > 65535 {
		return errors.New("statews.port must be a valid TCP port (0 disables)")
	}

	if c.Logging.Level == "" {
		return errors.New("logging.level must not be empty")
	}

	return nil
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
