package swarm

import (
	"time"

	"github.com/vaultseed/tracker/bittorrent"
	"github.com/vaultseed/tracker/pkg/stop"
	"github.com/vaultseed/tracker/pkg/timecache"
)

// Sweep implements §4.3.6: it walks every shard, removing peers whose
// last_seen exceeds peerTTL and evicting swarms that have been empty for
// longer than emptySwarmTTL. Each shard is read-locked only long enough to copy
// out its swarm references; the per-swarm passes and the eviction pass both
// take their own, narrower locks, so a sweep in progress never blocks an
// announce for longer than a single swarm's own operation would.
func (x *Index) Sweep(now time.Time, peerTTL, emptySwarmTTL time.Duration) (peersRemoved, swarmsEvicted int) {
	peerCutoff := now.Add(-peerTTL)
	swarmCutoff := now.Add(-emptySwarmTTL)

	for i := range x.shards {
		sh := &x.shards[i]

		sh.mu.RLock()
		entries := make([]shardEntry, 0, len(sh.swarms))
		for ih, sw := range sh.swarms {
			entries = append(entries, shardEntry{infoHash: ih, swarm: sw})
		}
		sh.mu.RUnlock()

		var evictable []bittorrent.InfoHash
		for _, e := range entries {
			peersRemoved += e.swarm.sweepExpired(peerCutoff, now)
			if e.swarm.IsEmptySince(swarmCutoff) {
				evictable = append(evictable, e.infoHash)
			}
		}

		if len(evictable) == 0 {
			continue
		}
		sh.mu.Lock()
		for _, ih := range evictable {
			if sw, ok := sh.swarms[ih]; ok && sw.IsEmptySince(swarmCutoff) {
				delete(sh.swarms, ih)
				swarmsEvicted++
			}
		}
		sh.mu.Unlock()
	}
	return peersRemoved, swarmsEvicted
}

type shardEntry struct {
	infoHash bittorrent.InfoHash
	swarm    *Swarm
}

// sweeper adapts a periodic Sweep loop to the stop.Stopper interface used
// for coordinated shutdown.
type sweeper struct {
	done    chan struct{}
	stopped chan struct{}
}

// StartSweeper launches a background goroutine that calls Sweep on every
// tick of cfg.SweepInterval, using clock rather than time.Now for the
// current-time argument. Call Stop on the returned stop.Stopper to end it.
func (x *Index) StartSweeper(cfg Config, clock *timecache.Cache) stop.Stopper {
	cfg = cfg.WithDefaults()
	sw := &sweeper{done: make(chan struct{}), stopped: make(chan struct{})}

	go func() {
		defer close(sw.stopped)
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				now := clock.Now()
				removed, evicted := x.Sweep(now, cfg.PeerTTL, cfg.EmptySwarmTTL)
				logger.Debug().
					Int("peersRemoved", removed).
					Int("swarmsEvicted", evicted).
					Msg("swarm sweep complete")
			case <-sw.done:
				return
			}
		}
	}()

	return sw
}

// Stop implements stop.Stopper.
func (s *sweeper) Stop() stop.Result {
	c := make(stop.Channel)
	go func() {
		close(s.done)
		<-s.stopped
		close(c)
	}()
	return c.Result()
}
