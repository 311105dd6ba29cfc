package http

import (
	"time"

	"github.com/vaultseed/tracker/bittorrent"
)

// Config carries the HTTP frontend's own settings plus the Request Decoder
// bounds of §4.1, which are per-frontend rather than global.
type Config struct {
	Addr           string        `cfg:"addr"`
	ReusePort      bool          `cfg:"reuse_port"`
	RequestTimeout time.Duration `cfg:"request_timeout"`
	ReadTimeout    time.Duration `cfg:"read_timeout"`
	WriteTimeout   time.Duration `cfg:"write_timeout"`

	DefaultNumWant  uint32 `cfg:"default_numwant"`
	MaxNumWant      uint32 `cfg:"max_numwant"`
	MaxScrapeHashes int    `cfg:"max_scrape_hashes"`

	RequirePasskey bool `cfg:"require_passkey"`
}

const (
	defaultRequestTimeout = 30 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 10 * time.Second
)

// WithDefaults fills in zero-valued fields with the tracker's documented
// defaults (§4, configuration table).
func (c Config) WithDefaults() Config {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.DefaultNumWant <= 0 {
		c.DefaultNumWant = bittorrent.DefaultDecodeConfig.DefaultNumWant
	}
	if c.MaxNumWant <= 0 {
		c.MaxNumWant = bittorrent.DefaultDecodeConfig.MaxNumWant
	}
	if c.MaxScrapeHashes <= 0 {
		c.MaxScrapeHashes = bittorrent.DefaultDecodeConfig.MaxScrapeHashes
	}
	return c
}

func (c Config) decodeConfig() bittorrent.DecodeConfig {
	return bittorrent.DecodeConfig{
		DefaultNumWant:  c.DefaultNumWant,
		MaxNumWant:      c.MaxNumWant,
		MaxScrapeHashes: c.MaxScrapeHashes,
	}
}
