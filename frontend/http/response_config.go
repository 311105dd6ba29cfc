package http

import "time"

// ResponseConfig carries the interval fields of an announce response, kept
// separate from Config since they describe tracker policy rather than
// transport settings.
type ResponseConfig struct {
	Interval    time.Duration `cfg:"default_interval_secs"`
	MinInterval time.Duration `cfg:"min_interval_secs"`
}

const (
	defaultInterval    = 1800 * time.Second
	defaultMinInterval = 900 * time.Second
)

// WithDefaults fills in zero-valued fields with the tracker's documented
// defaults.
func (c ResponseConfig) WithDefaults() ResponseConfig {
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}
	if c.MinInterval <= 0 {
		c.MinInterval = defaultMinInterval
	}
	return c
}
