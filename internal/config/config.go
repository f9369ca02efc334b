// Package config loads tool configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Balfin/code-analysis-multi-agent/internal/gen"
	"github.com/Balfin/code-analysis-multi-agent/internal/source"
)

// DefaultFileName is the config file looked up in the working
// directory when no explicit path is given.
const DefaultFileName = "codeanalyzer.yaml"

// Duration is a time.Duration that unmarshals from strings like "90s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds the tool's settings.
type Config struct {
	LedgerDir         string   `yaml:"ledger_dir"`
	IgnorePatterns    []string `yaml:"ignore_patterns"`
	MaxFileSize       int64    `yaml:"max_file_size"`
	Model             string   `yaml:"model"`
	UseGeneration     bool     `yaml:"use_generation"`
	GenerationTimeout Duration `yaml:"generation_timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LedgerDir:         "./issues",
		MaxFileSize:       source.DefaultMaxFileSize,
		Model:             gen.DefaultModel,
		UseGeneration:     true,
		GenerationTimeout: Duration(gen.DefaultTimeout),
	}
}

// Load reads configuration from path, falling back to DefaultFileName
// when path is empty. A missing file yields the defaults; a malformed
// file is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFileName
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg.applyEnv()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnv overlays environment variable overrides. Env vars win over
// file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("CODEANALYZER_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("CODEANALYZER_LEDGER_DIR"); v != "" {
		c.LedgerDir = v
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.LedgerDir == "" {
		return fmt.Errorf("ledger_dir is required")
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive (got %d)", c.MaxFileSize)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("generation_timeout must be positive")
	}
	return nil
}
