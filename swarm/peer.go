package swarm

import (
	"time"

	"github.com/vaultseed/tracker/bittorrent"
)

// Record is the swarm-internal representation of a peer's membership in a
// single swarm. Unlike bittorrent.Peer, which is only an (ID, endpoint) pair
// for wire purposes, a Record carries the bookkeeping the index needs to
// maintain the seeder/leecher invariants and to feed the persistence sink.
type Record struct {
	ID         bittorrent.PeerID
	UserID     string
	Uploaded   uint64
	Downloaded uint64
	Left       uint64
	IsSeeder   bool
	LastSeen   time.Time
	UserAgent  string
}
