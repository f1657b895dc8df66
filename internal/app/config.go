package app

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/algogrid/internal/pipeline"
)

// Config holds all the necessary configuration for an App instance.
type Config struct {
	SpecPath   string   // pipeline spec document (.yaml, .yml or .hcl)
	Inputs     []string // input container specifiers, "path[#scope]"
	Outputs    []string // requested output elements
	OutputFile string
	ParamsPath string

	LogFormat   string
	LogLevel    string
	MetricsPort int

	// LogOutput receives log records. When nil, logs share the App's
	// output writer.
	LogOutput io.Writer
}

// NewConfig validates cfg and returns a copy with defaults applied.
func NewConfig(cfg Config) (*Config, error) {
	var problems []string

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		problems = append(problems, "invalid log-format: must be 'text' or 'json'")
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, "invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		problems = append(problems, fmt.Sprintf("invalid metrics-port %d", cfg.MetricsPort))
	}
	if cfg.SpecPath != "" && (len(cfg.Inputs) > 0 || len(cfg.Outputs) > 0 || cfg.OutputFile != "") {
		problems = append(problems, "a spec document cannot be combined with --input, --output or --output-file")
	}
	if cfg.OutputFile != "" && len(cfg.Outputs) == 0 {
		problems = append(problems, "--output-file requires at least one --output element")
	}

	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, "; "))
	}
	return &cfg, nil
}

// Spec returns the pipeline spec the configuration describes. A params
// path given alongside a spec document replaces the document's own.
func (c *Config) Spec() (*pipeline.Spec, error) {
	if c.SpecPath == "" {
		return pipeline.FromArgs(c.Inputs, c.Outputs, c.OutputFile, c.ParamsPath), nil
	}
	spec, err := pipeline.LoadSpec(c.SpecPath)
	if err != nil {
		return nil, err
	}
	if c.ParamsPath != "" {
		// Relative to the working directory, not to the spec document.
		abs, err := filepath.Abs(c.ParamsPath)
		if err != nil {
			return nil, err
		}
		spec.ParamsFile = abs
	}
	return spec, nil
}
