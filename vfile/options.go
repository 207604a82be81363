package vfile

import (
	"log/slog"

	"github.com/Reposoft/repos-deltav-sub000/xdiff"
)

// Option configures an Index.
type Option func(*config)

type config struct {
	compare       xdiff.Config
	verifyTargets bool
	log           *slog.Logger
}

func newConfig(opts []Option) config {
	c := config{
		compare:       xdiff.DefaultConfig(),
		verifyTargets: true,
	}
	for _, o := range opts {
		o(&c)
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// WithCompare sets the comparison configuration. Documents given to
// the index are prepared with it before they are compared or recorded.
func WithCompare(cfg xdiff.Config) Option {
	return func(c *config) {
		c.compare = cfg
	}
}

// WithVerifyTargets controls whether the node resolved for a scheduled
// change must match the control node it was reported for. It is on by
// default.
func WithVerifyTargets(v bool) Option {
	return func(c *config) {
		c.verifyTargets = v
	}
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}
