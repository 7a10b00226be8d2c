// Package config describes the configuration of a journal, built by applying
// options and, optionally, reading environment variables.
package config

import (
	"os"

	"github.com/dogmatiq/crowdcontrol/internal/telemetry"
)

const (
	// DefaultMaxSegmentSize is the default maximum size of a segment file.
	DefaultMaxSegmentSize = 64 << 20

	// MinSegmentSize is the smallest permitted maximum segment size.
	MinSegmentSize = 512
)

// Config encapsulates the configuration of a journal.
type Config struct {
	UseEnv         bool
	MaxSegmentSize uint64
	Telemetry      *telemetry.Provider

	// Sync durably persists a file's content. It is replaced in tests to
	// simulate storage failures.
	Sync func(*os.File) error
}

// New returns a new configuration built by applying the given options.
func New[Option ~func(*Config)](options []Option) Config {
	c := Config{
		Telemetry: &telemetry.Provider{},
	}

	for _, opt := range options {
		opt(&c)
	}

	c.finalize()

	return c
}

func (c *Config) finalize() {
	c.finalizeSegments()

	if c.Sync == nil {
		c.Sync = (*os.File).Sync
	}
}
