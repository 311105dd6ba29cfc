package swarm

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/vaultseed/tracker/bittorrent"
	"github.com/vaultseed/tracker/pkg/log"
)

var logger = log.NewLogger("swarm")

// Index is the process-wide swarm index (C3): a fixed number of
// independently-locked shards, each holding a map of InfoHash to *Swarm. A
// shard's lock is only ever held for the lookup-or-create step; the
// returned *Swarm owns its own mutex for every subsequent operation, so no
// operation on one swarm ever waits on another (§4.3.7).
type Index struct {
	shards []shard
}

type shard struct {
	mu     sync.RWMutex
	swarms map[bittorrent.InfoHash]*Swarm
}

// NewIndex builds an Index with cfg's shard count, applying defaults for any
// zero-valued field.
func NewIndex(cfg Config) *Index {
	cfg = cfg.WithDefaults()
	idx := &Index{shards: make([]shard, cfg.ShardCount)}
	for i := range idx.shards {
		idx.shards[i].swarms = make(map[bittorrent.InfoHash]*Swarm)
	}
	return idx
}

func (x *Index) shardFor(ih bittorrent.InfoHash) *shard {
	h := xxhash.Sum64String(ih.RawString())
	return &x.shards[h%uint64(len(x.shards))]
}

// GetOrCreate returns the swarm for ih, creating and registering an empty
// one if none exists yet (§4.3.2 step 1).
func (x *Index) GetOrCreate(ih bittorrent.InfoHash) *Swarm {
	sh := x.shardFor(ih)

	sh.mu.RLock()
	sw, ok := sh.swarms[ih]
	sh.mu.RUnlock()
	if ok {
		return sw
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sw, ok = sh.swarms[ih]; ok {
		return sw
	}
	sw = newSwarm()
	sh.swarms[ih] = sw
	return sw
}

// Get returns the swarm for ih without creating it. The scrape handler uses
// this: an info hash nobody has ever announced has no swarm, and scrape
// reports zeros for it rather than materializing empty state.
func (x *Index) Get(ih bittorrent.InfoHash) (*Swarm, bool) {
	sh := x.shardFor(ih)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	sw, ok := sh.swarms[ih]
	return sw, ok
}

// Len reports the number of swarms currently tracked, across all shards.
// Intended for the observability gauge, not the hot path.
func (x *Index) Len() int {
	n := 0
	for i := range x.shards {
		x.shards[i].mu.RLock()
		n += len(x.shards[i].swarms)
		x.shards[i].mu.RUnlock()
	}
	return n
}
