package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Reposoft/repos-deltav-sub000/vfile"
	"github.com/Reposoft/repos-deltav-sub000/xdiff"
	"github.com/goccy/go-yaml"
)

// Config is the deltav configuration file.
type Config struct {
	// Store is the url of the index store. See openStore.
	Store string `yaml:"store"`
	// Repo is the git repository holding the indexed documents.
	Repo string `yaml:"repo"`
	Ref  string `yaml:"ref"`

	// Parallel bounds the number of documents indexed at once.
	Parallel int    `yaml:"parallel"`
	LogLevel string `yaml:"logLevel"`

	Compare CompareConfig `yaml:"compare"`
	// VerifyTargets checks every addressed index node against the
	// compared document. Defaults to true.
	VerifyTargets *bool `yaml:"verifyTargets"`

	Gops bool `yaml:"gops"`
}

// CompareConfig mirrors xdiff.Config.
type CompareConfig struct {
	KeepWhitespace bool `yaml:"keepWhitespace"`
	TrimText       bool `yaml:"trimText"`
	IgnoreComments bool `yaml:"ignoreComments"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Store:    "file://.deltav",
		Repo:     ".",
		Ref:      "HEAD",
		Parallel: 4,
		LogLevel: "info",
	}
}

// LoadConfig reads the yaml file at path over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error
	if c.Store == "" {
		errs = append(errs, errors.New("store is required"))
	}
	if c.Parallel < 0 {
		errs = append(errs, fmt.Errorf("parallel must not be negative, got %d", c.Parallel))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("logLevel: %w", err)
	}
	return l, nil
}

// IndexOptions returns the index options the configuration implies.
func (c *Config) IndexOptions(log *slog.Logger) []vfile.Option {
	opts := []vfile.Option{
		vfile.WithCompare(xdiff.Config{
			KeepWhitespace: c.Compare.KeepWhitespace,
			TrimText:       c.Compare.TrimText,
			IgnoreComments: c.Compare.IgnoreComments,
		}),
		vfile.WithLogger(log),
	}
	if c.VerifyTargets != nil {
		opts = append(opts, vfile.WithVerifyTargets(*c.VerifyTargets))
	}
	return opts
}
