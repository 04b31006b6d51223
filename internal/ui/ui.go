// Package ui provides terminal progress display for searches: a
// bubbletea view for interactive terminals and a plain line printer for
// pipes and CI. The interactive view doubles as the host-tick scheduler,
// stepping the orchestrator once per frame.
package ui

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Config configures the search display.
type Config struct {
	// Output receives the rendered display.
	Output io.Writer

	// ForcePlain forces plain text output even on a TTY.
	ForcePlain bool

	// NoColor disables color output.
	NoColor bool

	// StepIterations is the per-tick candidate budget handed to the
	// orchestrator.
	StepIterations int
}

// ConfigOption modifies a Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) { c.ForcePlain = force }
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) { c.NoColor = noColor }
}

// WithStepIterations sets the per-tick candidate budget.
func WithStepIterations(n int) ConfigOption {
	return func(c *Config) {
		if n > 0 {
			c.StepIterations = n
		}
	}
}

// NewConfig creates a Config with the given output and options.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{
		Output:         output,
		StepIterations: 250,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor checks if the NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, set := os.LookupEnv("NO_COLOR")
	return set
}
