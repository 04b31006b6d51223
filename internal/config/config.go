// Package config loads and watches tilescout configuration: engine
// tuning knobs, scoring presets, and logging settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/solmere/tilescout/internal/engine"
)

// Config is the root configuration.
type Config struct {
	Engine  EngineConfig    `yaml:"engine"`
	Presets []engine.Preset `yaml:"presets"`
	Logging LoggingConfig   `yaml:"logging"`
}

// EngineConfig holds search engine tuning.
type EngineConfig struct {
	// MaxResults caps the ranked result list.
	MaxResults int `yaml:"max_results"`

	// MaxCandidates bounds the aggregation stage's output; 0 keeps the
	// default, -1 disables truncation.
	MaxCandidates int `yaml:"max_candidates"`

	// MinCandidates is the adaptive threshold's minimum survivor target.
	MinCandidates int `yaml:"min_candidates"`

	// StepIterations is the per-tick stage-B candidate budget.
	StepIterations int `yaml:"step_iterations"`

	// Preset names the active scoring preset.
	Preset string `yaml:"preset"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level"`

	// File is the log file path. Empty disables file logging.
	File string `yaml:"file"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{
		Engine: EngineConfig{
			MaxResults:     25,
			MaxCandidates:  1000,
			MinCandidates:  30,
			StepIterations: 250,
			Preset:         "balanced",
		},
		Presets: engine.BuiltinPresets(),
		Logging: LoggingConfig{Level: "info"},
	}
	return cfg
}

// Load reads configuration from a YAML file, filling unset fields with
// defaults and validating the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes configuration from YAML bytes.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *Config) ApplyDefaults() {
	def := Default()
	if c.Engine.MaxResults == 0 {
		c.Engine.MaxResults = def.Engine.MaxResults
	}
	if c.Engine.MaxCandidates == 0 {
		c.Engine.MaxCandidates = def.Engine.MaxCandidates
	}
	if c.Engine.MinCandidates == 0 {
		c.Engine.MinCandidates = def.Engine.MinCandidates
	}
	if c.Engine.StepIterations == 0 {
		c.Engine.StepIterations = def.Engine.StepIterations
	}
	if c.Engine.Preset == "" {
		c.Engine.Preset = def.Engine.Preset
	}
	if len(c.Presets) == 0 {
		c.Presets = def.Presets
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
}

// Validate checks consistency across fields.
func (c *Config) Validate() error {
	if c.Engine.MaxResults <= 0 {
		return fmt.Errorf("engine.max_results must be positive, got %d", c.Engine.MaxResults)
	}
	if c.Engine.MinCandidates <= 0 {
		return fmt.Errorf("engine.min_candidates must be positive, got %d", c.Engine.MinCandidates)
	}
	if c.Engine.StepIterations < engine.MinStepIterations {
		return fmt.Errorf("engine.step_iterations must be at least %d, got %d",
			engine.MinStepIterations, c.Engine.StepIterations)
	}
	seen := make(map[string]struct{}, len(c.Presets))
	for _, p := range c.Presets {
		if p.Name == "" {
			return fmt.Errorf("preset with empty name")
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("duplicate preset %q", p.Name)
		}
		seen[p.Name] = struct{}{}
		if p.KappaScale <= 0 || p.KappaMin <= 0 || p.KappaMax < p.KappaMin {
			return fmt.Errorf("preset %q has invalid kappa bounds", p.Name)
		}
	}
	if _, ok := c.Preset(c.Engine.Preset); !ok {
		return fmt.Errorf("engine.preset %q not found in presets", c.Engine.Preset)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

// Preset looks up a scoring preset by name.
func (c *Config) Preset(name string) (engine.Preset, bool) {
	for _, p := range c.Presets {
		if p.Name == name {
			return p, true
		}
	}
	return engine.Preset{}, false
}

// ActivePreset returns the preset named by engine.preset. Validate
// guarantees it exists for loaded configs; falls back to the built-in
// default otherwise.
func (c *Config) ActivePreset() engine.Preset {
	if p, ok := c.Preset(c.Engine.Preset); ok {
		return p
	}
	return engine.DefaultPreset()
}
