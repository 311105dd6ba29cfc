package persist

import "time"

// Config carries the tunables of the Batched Persistence component (C5),
// sourced from the process configuration under the "persist" key.
type Config struct {
	// FlushInterval is the period of the time-triggered flush.
	FlushInterval time.Duration `cfg:"flush_interval"`
	// BatchSizeThreshold triggers an out-of-band flush once the peer-update
	// buffer reaches this many entries.
	BatchSizeThreshold int `cfg:"batch_size_threshold"`
	// MaxBufferSize bounds the peer-update buffer; once exceeded, the oldest
	// unread entries are overwritten (and counted) rather than the buffer
	// growing without bound.
	MaxBufferSize int `cfg:"max_buffer_size"`
	// MaxRowsPerStatement caps how many rows a single upsert statement
	// carries, to stay under the sink's parameter-count limit.
	MaxRowsPerStatement int `cfg:"max_rows_per_statement"`
	// ShutdownGrace bounds the final flush attempted at shutdown.
	ShutdownGrace time.Duration `cfg:"shutdown_grace"`
}

const (
	defaultFlushInterval       = 3 * time.Second
	defaultBatchSizeThreshold  = 1000
	defaultMaxBufferSize       = 100_000
	defaultMaxRowsPerStatement = 6500
	defaultShutdownGrace       = 10 * time.Second
)

// WithDefaults returns cfg with zero-valued fields replaced by the
// tracker's documented defaults.
func (c Config) WithDefaults() Config {
	if c.FlushInterval <= 0 {
		c.FlushInterval = defaultFlushInterval
	}
	if c.BatchSizeThreshold <= 0 {
		c.BatchSizeThreshold = defaultBatchSizeThreshold
	}
	if c.MaxBufferSize <= 0 {
		c.MaxBufferSize = defaultMaxBufferSize
	}
	if c.MaxRowsPerStatement <= 0 {
		c.MaxRowsPerStatement = defaultMaxRowsPerStatement
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = defaultShutdownGrace
	}
	return c
}
