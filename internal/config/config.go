// Package config loads infersema.yaml, the optional per-project settings of
// the checker.
package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/impalago/infersema/internal/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	FileName    = "infersema.yaml"
	AltFileName = "infersema.yml"

	DefaultMaxPasses = 100
)

type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

type Config struct {
	// MaxPasses caps the number of inference passes
	MaxPasses int `yaml:"max_passes,omitempty"`
	// LogLevel is one of debug, info, warn, error
	LogLevel string    `yaml:"log_level,omitempty"`
	Color    ColorMode `yaml:"color,omitempty"`
}

// Default is the configuration used when no file is found
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses the contents of a config file. path is only used in
// error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if err := cfg.Validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// FindConfig looks for a config file in dir and then in each of its
// parents. It returns "" when there is none.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrap(err, "resolving directory")
	}
	for {
		for _, name := range []string{FileName, AltFileName} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// ForFile loads the config governing the program at path, or the default
// one if there is none
func ForFile(path string) (*Config, string, error) {
	found, err := FindConfig(filepath.Dir(path))
	if err != nil {
		return nil, "", err
	}
	if found == "" {
		return Default(), "", nil
	}
	cfg, err := LoadConfig(found)
	return cfg, found, err
}

// Validate reports the first invalid setting. path names where the settings
// came from.
func (c *Config) Validate(path string) error {
	if c.MaxPasses < 0 {
		return errors.Errorf("%s: max_passes must be positive, got %d", path, c.MaxPasses)
	}
	if c.LogLevel != "" {
		if _, err := log.ParseLevel(c.LogLevel); err != nil {
			return errors.Errorf("%s: unknown log_level %q", path, c.LogLevel)
		}
	}
	switch c.Color {
	case "", ColorAuto, ColorAlways, ColorNever:
	default:
		return errors.Errorf("%s: color must be one of auto, always, never, got %q", path, c.Color)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.MaxPasses == 0 {
		c.MaxPasses = DefaultMaxPasses
	}
	if c.LogLevel == "" {
		c.LogLevel = "error"
	}
	if c.Color == "" {
		c.Color = ColorAuto
	}
}

// Level is LogLevel parsed. It is only valid on a validated config.
func (c *Config) Level() slog.Level {
	l, _ := log.ParseLevel(c.LogLevel)
	return l
}
