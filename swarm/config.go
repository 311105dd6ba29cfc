package swarm

import "time"

// Config carries the tunables of the swarm index (C3), sourced from the
// process configuration (see pkg/conf) under the "swarm" key.
type Config struct {
	// ShardCount is the number of independently-locked shards the index is
	// split into. Mirrors the teacher's memory-storage ShardCount knob.
	ShardCount int `cfg:"shard_count"`
	// PeerTTL is how long a peer may go without announcing before the
	// sweeper removes it.
	PeerTTL time.Duration `cfg:"peer_ttl"`
	// EmptySwarmTTL is how long a swarm may sit empty before the sweeper
	// evicts it from its shard.
	EmptySwarmTTL time.Duration `cfg:"empty_swarm_ttl"`
	// SweepInterval is the period between sweeper passes.
	SweepInterval time.Duration `cfg:"sweep_interval"`
}

const (
	defaultShardCount    = 1024
	defaultPeerTTL       = 1800 * time.Second
	defaultEmptySwarmTTL = 3600 * time.Second
	defaultSweepInterval = 60 * time.Second
)

// WithDefaults returns cfg with zero-valued fields replaced by the tracker's
// documented defaults.
func (c Config) WithDefaults() Config {
	if c.ShardCount <= 0 {
		c.ShardCount = defaultShardCount
	}
	if c.PeerTTL <= 0 {
		c.PeerTTL = defaultPeerTTL
	}
	if c.EmptySwarmTTL <= 0 {
		c.EmptySwarmTTL = defaultEmptySwarmTTL
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = defaultSweepInterval
	}
	return c
}
