package swarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIndex_GetOrCreate_ReturnsSameSwarm(t *testing.T) {
	idx := NewIndex(Config{ShardCount: 4})
	h := ih(7)

	a := idx.GetOrCreate(h)
	b := idx.GetOrCreate(h)
	require.Same(t, a, b)
}

func TestIndex_Get_UnknownReturnsFalse(t *testing.T) {
	idx := NewIndex(Config{ShardCount: 4})
	_, ok := idx.Get(ih(9))
	require.False(t, ok)
}

// TestSweep_RemovesStalePeer covers invariant 13: a peer whose last_seen
// exceeds peer_ttl_secs is absent from the next selection after a sweep.
func TestSweep_RemovesStalePeer(t *testing.T) {
	idx := NewIndex(Config{ShardCount: 4})
	h := ih(3)
	sw := idx.GetOrCreate(h)

	now := time.Now()
	sw.Upsert(endpoint("192.0.2.2:6881"), Record{ID: mustPeerID(2), Left: 100}, now)

	later := now.Add(2 * time.Hour)
	removed, evicted := idx.Sweep(later, 1800*time.Second, 3600*time.Second)
	require.Equal(t, 1, removed)
	require.Equal(t, 0, evicted, "swarm is empty but has not been empty for the full TTL yet")

	peers := sw.Select(endpoint("192.0.2.1:6881"), h, mustPeerID(1), false, 50, later)
	require.Empty(t, peers)
}

func TestSweep_EvictsEmptySwarm(t *testing.T) {
	idx := NewIndex(Config{ShardCount: 4})
	h := ih(4)
	sw := idx.GetOrCreate(h)

	now := time.Now()
	ep := endpoint("192.0.2.2:6881")
	sw.Upsert(ep, Record{ID: mustPeerID(2), Left: 100}, now)
	sw.Remove(ep, now)

	later := now.Add(2 * time.Hour)
	_, evicted := idx.Sweep(later, 1800*time.Second, 3600*time.Second)
	require.Equal(t, 1, evicted)

	_, ok := idx.Get(h)
	require.False(t, ok)
}
