package swarm

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vaultseed/tracker/bittorrent"
)

func mustPeerID(fill byte) bittorrent.PeerID {
	b := make([]byte, bittorrent.PeerIDLen)
	for i := range b {
		b[i] = fill
	}
	id, err := bittorrent.NewPeerID(b)
	if err != nil {
		panic(err)
	}
	return id
}

func endpoint(s string) netip.AddrPort {
	return netip.MustParseAddrPort(s)
}

func TestUpsert_NewLeecher(t *testing.T) {
	s := newSwarm()
	now := time.Now()

	s.Upsert(endpoint("192.0.2.1:6881"), Record{ID: mustPeerID(1), Left: 1000}, now)

	stats := s.Stats()
	require.Equal(t, 0, stats.Seeders)
	require.Equal(t, 1, stats.Leechers)
	require.Equal(t, 1, s.Len())
}

func TestUpsert_TransitionToSeeder(t *testing.T) {
	s := newSwarm()
	now := time.Now()
	ep := endpoint("192.0.2.1:6881")

	s.Upsert(ep, Record{ID: mustPeerID(1), Left: 1000}, now)
	s.Upsert(ep, Record{ID: mustPeerID(1), Left: 0}, now.Add(time.Second))

	stats := s.Stats()
	require.Equal(t, 1, stats.Seeders)
	require.Equal(t, 0, stats.Leechers)
	require.Equal(t, 1, s.Len(), "transition overwrites in place, it does not add a second entry")
}

// TestUpsert_DuplicateAnnounceIdempotent covers invariant 8: two identical
// announces from the same endpoint, with no intervening stopped, leave the
// swarm equivalent to a single announce.
func TestUpsert_DuplicateAnnounceIdempotent(t *testing.T) {
	s := newSwarm()
	now := time.Now()
	ep := endpoint("192.0.2.1:6881")
	rec := Record{ID: mustPeerID(1), Left: 500, Uploaded: 10}

	s.Upsert(ep, rec, now)
	s.Upsert(ep, rec, now.Add(time.Second))

	stats := s.Stats()
	require.Equal(t, 0, stats.Seeders)
	require.Equal(t, 1, stats.Leechers)
	require.Equal(t, 1, s.Len())
}

// TestRemove_ThenReannounce covers invariant 4: a stopped event immediately
// removes the peer, and a subsequent announce reinserts it.
func TestRemove_ThenReannounce(t *testing.T) {
	s := newSwarm()
	now := time.Now()
	ep := endpoint("192.0.2.1:6881")

	s.Upsert(ep, Record{ID: mustPeerID(1), Left: 1000}, now)
	s.Remove(ep, now.Add(time.Second))
	require.Equal(t, 0, s.Len())
	require.True(t, s.IsEmptySince(now.Add(time.Hour)))

	s.Upsert(ep, Record{ID: mustPeerID(1), Left: 900}, now.Add(2*time.Second))
	require.Equal(t, 1, s.Len())
	require.False(t, s.IsEmptySince(now.Add(time.Hour)), "re-announce clears idleSince")
}

// TestCompleted_Monotonic covers invariant 3.
func TestCompleted_Monotonic(t *testing.T) {
	s := newSwarm()
	s.IncrementCompleted()
	s.IncrementCompleted()
	require.EqualValues(t, 2, s.Stats().Completed)
	require.Equal(t, 0, s.Len(), "completed neither inserts nor removes a peer")
}

// TestCounterInvariant covers invariants 1 and 2 across a mixed sequence of
// operations: seeders + leechers must always equal the peer count, and must
// agree with the partition by IsSeeder.
func TestCounterInvariant(t *testing.T) {
	s := newSwarm()
	now := time.Now()

	eps := []netip.AddrPort{
		endpoint("192.0.2.1:1"),
		endpoint("192.0.2.2:2"),
		endpoint("192.0.2.3:3"),
	}
	s.Upsert(eps[0], Record{ID: mustPeerID(1), Left: 0}, now)
	s.Upsert(eps[1], Record{ID: mustPeerID(2), Left: 100}, now)
	s.Upsert(eps[2], Record{ID: mustPeerID(3), Left: 100}, now)

	stats := s.Stats()
	require.Equal(t, stats.Seeders+stats.Leechers, s.Len())
	require.Equal(t, 1, stats.Seeders)
	require.Equal(t, 2, stats.Leechers)

	s.Remove(eps[1], now)
	stats = s.Stats()
	require.Equal(t, stats.Seeders+stats.Leechers, s.Len())
	require.Equal(t, 1, stats.Seeders)
	require.Equal(t, 1, stats.Leechers)
}

// TestSelect_ExcludesSelf covers invariant 5.
func TestSelect_ExcludesSelf(t *testing.T) {
	s := newSwarm()
	now := time.Now()
	self := endpoint("192.0.2.1:6881")

	s.Upsert(self, Record{ID: mustPeerID(1), Left: 100}, now)
	s.Upsert(endpoint("192.0.2.2:6881"), Record{ID: mustPeerID(2), Left: 100}, now)

	peers := s.Select(self, ih(1), mustPeerID(1), false, 50, now)
	require.Len(t, peers, 1)
	require.NotEqual(t, self, peers[0].AddrPort)
}

// TestSelect_FamilyMatch covers invariant 6: an IPv4 requester only ever
// receives IPv4 peers, even when IPv6 peers are present in the swarm.
func TestSelect_FamilyMatch(t *testing.T) {
	s := newSwarm()
	now := time.Now()
	self := endpoint("192.0.2.1:6881")

	s.Upsert(endpoint("192.0.2.2:6881"), Record{ID: mustPeerID(2), Left: 100}, now)
	s.Upsert(endpoint("[2001:db8::1]:6881"), Record{ID: mustPeerID(3), Left: 100}, now)

	peers := s.Select(self, ih(1), mustPeerID(1), false, 50, now)
	require.Len(t, peers, 1)
	require.True(t, peers[0].Addr().Is4())
}

// TestSelect_NumWantZero covers invariant 10.
func TestSelect_NumWantZero(t *testing.T) {
	s := newSwarm()
	now := time.Now()
	s.Upsert(endpoint("192.0.2.2:6881"), Record{ID: mustPeerID(2), Left: 100}, now)

	peers := s.Select(endpoint("192.0.2.1:6881"), ih(1), mustPeerID(1), false, 0, now)
	require.Empty(t, peers)
}

// TestSelect_NumWantExceedsSwarm covers invariant 11: numwant far larger
// than the swarm yields every eligible peer rather than an error.
func TestSelect_NumWantExceedsSwarm(t *testing.T) {
	s := newSwarm()
	now := time.Now()
	self := endpoint("192.0.2.1:6881")
	for i := 2; i < 5; i++ {
		s.Upsert(endpoint(ipv4At(i)), Record{ID: mustPeerID(byte(i)), Left: 100}, now)
	}

	peers := s.Select(self, ih(1), mustPeerID(1), false, 5000, now)
	require.Len(t, peers, 3)
}

// TestSelect_SeederExcludesOtherSeeders checks that a seeder requester's
// response is filtered down to leechers only, even when numWant is large
// enough to fit every other peer in the swarm.
func TestSelect_SeederExcludesOtherSeeders(t *testing.T) {
	s := newSwarm()
	now := time.Now()
	self := endpoint("192.0.2.1:6881")

	s.Upsert(endpoint("192.0.2.2:6881"), Record{ID: mustPeerID(2), Left: 0}, now)
	s.Upsert(endpoint("192.0.2.3:6881"), Record{ID: mustPeerID(3), Left: 100}, now)

	peers := s.Select(self, ih(1), mustPeerID(1), true, 50, now)
	require.Len(t, peers, 1, "other seeders must be excluded, not just reordered after leechers")
	require.Equal(t, endpoint("192.0.2.3:6881"), peers[0].AddrPort)
}

// TestSelect_SeederGetsEmptyResponseInAllSeederSwarm checks that a seeder
// requester facing a swarm of only other seeders gets no peers back, rather
// than falling back to returning seeders because none were leechers.
func TestSelect_SeederGetsEmptyResponseInAllSeederSwarm(t *testing.T) {
	s := newSwarm()
	now := time.Now()
	self := endpoint("192.0.2.1:6881")

	s.Upsert(endpoint("192.0.2.2:6881"), Record{ID: mustPeerID(2), Left: 0}, now)
	s.Upsert(endpoint("192.0.2.3:6881"), Record{ID: mustPeerID(3), Left: 0}, now)

	peers := s.Select(self, ih(1), mustPeerID(1), true, 50, now)
	require.Empty(t, peers)
}

func ih(fill byte) bittorrent.InfoHash {
	b := make([]byte, bittorrent.InfoHashV1Len)
	for i := range b {
		b[i] = fill
	}
	h, err := bittorrent.NewInfoHash(b)
	if err != nil {
		panic(err)
	}
	return h
}

func ipv4At(last int) string {
	switch last {
	case 2:
		return "192.0.2.2:6881"
	case 3:
		return "192.0.2.3:6881"
	case 4:
		return "192.0.2.4:6881"
	default:
		panic("unsupported")
	}
}
