// Package swarm implements the Swarm Index (C3): the per-info-hash peer
// sets, their seeder/leecher/completed counters, and the selection policy
// used to build announce responses.
package swarm

import (
	"net/netip"
	"sync"
	"time"
)

// Swarm holds every peer currently announced against a single info hash. Its
// seeders/leechers counters always agree with the partition of peers by
// IsSeeder; every mutating method maintains that invariant under the same
// lock that guards the map.
type Swarm struct {
	mu        sync.Mutex
	peers     map[netip.AddrPort]Record
	seeders   int
	leechers  int
	completed uint64
	// idleSince is the time the swarm last became empty; zero while the
	// swarm holds at least one peer.
	idleSince time.Time
}

func newSwarm() *Swarm {
	return &Swarm{peers: make(map[netip.AddrPort]Record)}
}

// Upsert implements §4.3.2: insert a new peer or overwrite an existing one
// at the same endpoint, adjusting the seeder/leecher counters for any
// transition across left == 0. rec.LastSeen and rec.IsSeeder are set from
// now and rec.Left, overriding whatever the caller passed in.
func (s *Swarm) Upsert(endpoint netip.AddrPort, rec Record, now time.Time) {
	rec.LastSeen = now
	rec.IsSeeder = rec.Left == 0

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.peers[endpoint]; ok {
		if old.IsSeeder != rec.IsSeeder {
			s.shiftCounters(rec.IsSeeder)
		}
	} else {
		s.bumpCounter(rec.IsSeeder)
	}
	s.peers[endpoint] = rec
	s.idleSince = time.Time{}
}

// Remove implements §4.3.3.
func (s *Swarm) Remove(endpoint netip.AddrPort, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.peers[endpoint]
	if !ok {
		return
	}
	delete(s.peers, endpoint)
	s.dropCounter(old.IsSeeder)
	if len(s.peers) == 0 {
		s.idleSince = now
	}
}

// IncrementCompleted implements §4.3.4: it never inserts or removes a peer.
func (s *Swarm) IncrementCompleted() {
	s.mu.Lock()
	s.completed++
	s.mu.Unlock()
}

// Stats is a consistent snapshot of a swarm's counters.
type Stats struct {
	Seeders   int
	Leechers  int
	Completed uint64
}

// Stats returns the swarm's current counters, read under its lock so they
// agree with each other at the instant of the call.
func (s *Swarm) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Seeders: s.seeders, Leechers: s.leechers, Completed: s.completed}
}

// Len reports the current peer count.
func (s *Swarm) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}

// IsEmptySince reports whether the swarm is currently empty and has been so
// since strictly before cutoff, for the sweeper's eviction decision.
func (s *Swarm) IsEmptySince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers) == 0 && !s.idleSince.IsZero() && s.idleSince.Before(cutoff)
}

// sweepExpired removes every peer whose LastSeen precedes cutoff, returning
// the count removed. Holding the lock for the whole pass is fine: the
// concurrency contract (§4.3.7) only forbids one swarm's sweep blocking on
// another's, not a swarm blocking on itself.
func (s *Swarm) sweepExpired(cutoff, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for ep, p := range s.peers {
		if p.LastSeen.Before(cutoff) {
			delete(s.peers, ep)
			s.dropCounter(p.IsSeeder)
			removed++
		}
	}
	if len(s.peers) == 0 && removed > 0 {
		s.idleSince = now
	}
	return removed
}

// bumpCounter, dropCounter, and shiftCounters must only be called while
// holding s.mu.
func (s *Swarm) bumpCounter(isSeeder bool) {
	if isSeeder {
		s.seeders++
	} else {
		s.leechers++
	}
}

func (s *Swarm) dropCounter(isSeeder bool) {
	if isSeeder {
		s.seeders--
	} else {
		s.leechers--
	}
}

func (s *Swarm) shiftCounters(becameSeeder bool) {
	if becameSeeder {
		s.seeders++
		s.leechers--
	} else {
		s.leechers++
		s.seeders--
	}
}

type peerEntry struct {
	endpoint netip.AddrPort
	rec      Record
}
