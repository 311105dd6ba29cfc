package swarm

import (
	"math/rand/v2"
	"net/netip"
	"time"

	"github.com/vaultseed/tracker/bittorrent"
)

// isV6 reports whether addr should be treated as an IPv6 endpoint for
// family-matching purposes. Peer and Record endpoints are always stored
// unmapped (see bittorrent.Peer.Addr), so this only needs to guard against
// IPv4-mapped IPv6 addresses that reach Select from elsewhere.
func isV6(addr netip.Addr) bool {
	return addr.Is6() && !addr.Is4In6()
}

// Select implements the peer selection policy of §4.3.5. It takes the
// swarm's lock exactly once, so the candidate set and the counters it was
// drawn from agree with each other, and returns up to numWant peers:
//   - family-matched to self (no IPv4/IPv6 mixing),
//   - never including self,
//   - seeders excluded entirely when the requester is itself a seeder (it
//     has nothing to gain from another seeder's address), which may leave
//     the response empty,
//   - otherwise in pseudo-random order.
func (s *Swarm) Select(
	self netip.AddrPort,
	infoHash bittorrent.InfoHash,
	requesterID bittorrent.PeerID,
	requesterIsSeeder bool,
	numWant uint32,
	now time.Time,
) []bittorrent.Peer {
	if numWant == 0 {
		return nil
	}
	wantV6 := isV6(self.Addr())

	s.mu.Lock()
	candidates := make([]peerEntry, 0, len(s.peers))
	for ep, rec := range s.peers {
		if ep == self {
			continue
		}
		if isV6(ep.Addr()) != wantV6 {
			continue
		}
		candidates = append(candidates, peerEntry{endpoint: ep, rec: rec})
	}
	s.mu.Unlock()

	if len(candidates) == 0 {
		return nil
	}

	v0, v1 := deriveEntropy(infoHash, requesterID, now)
	rng := rand.New(rand.NewPCG(v0, v1))
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	if requesterIsSeeder {
		candidates = onlyLeechers(candidates)
	}

	if uint32(len(candidates)) > numWant {
		candidates = candidates[:numWant]
	}

	out := make([]bittorrent.Peer, len(candidates))
	for i, c := range candidates {
		out[i] = bittorrent.Peer{ID: c.rec.ID, AddrPort: c.endpoint}
	}
	return out
}

// onlyLeechers drops seeder candidates: a seeder doesn't need other seeders'
// addresses, so a seeder requester's response is filtered down to leechers
// only, even if that leaves it empty (§4.3.5). This is distinct from the
// "never exclude if they're the only peers" guard, which applies to a
// leecher's response, not a seeder's.
func onlyLeechers(candidates []peerEntry) []peerEntry {
	out := make([]peerEntry, 0, len(candidates))
	for _, c := range candidates {
		if !c.rec.IsSeeder {
			out = append(out, c)
		}
	}
	return out
}
