package config

import (
	"github.com/dogmatiq/ferrite"
)

var (
	maxSegmentSize = ferrite.
			Unsigned[uint64]("CROWDCONTROL_MAX_SEGMENT_SIZE", "the maximum size of a journal segment file, in bytes").
			WithMinimum(MinSegmentSize).
			Optional()

	journalDir = ferrite.
			String("CROWDCONTROL_JOURNAL_DIR", "the directory that contains the journal's segment files").
			WithDefault("journal").
			Required()

	debug = ferrite.
		Bool("CROWDCONTROL_DEBUG", "enable debug logging").
		WithDefault(false).
		Required()
)

// JournalDir returns the journal directory specified by the environment.
func JournalDir() string {
	return journalDir.Value()
}

// Debug returns true if debug logging is enabled by the environment.
func Debug() bool {
	return debug.Value()
}

func (c *Config) finalizeSegments() {
	if c.MaxSegmentSize == 0 && c.UseEnv {
		if n, ok := maxSegmentSize.Value(); ok {
			c.MaxSegmentSize = n
		}
	}

	if c.MaxSegmentSize == 0 {
		c.MaxSegmentSize = DefaultMaxSegmentSize
	}
}
