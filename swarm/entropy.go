package swarm

import (
	"encoding/binary"
	"time"

	"github.com/vaultseed/tracker/bittorrent"
)

// deriveEntropy generates 2*64 bits of pseudo-random state from the fields
// of a peer-selection request. Selection needs a random source per request,
// but math/rand's global functions share one lock across every goroutine;
// seeding a local generator from the request itself avoids that contention
// without reaching for crypto/rand, which this use has no need for.
//
// Mixing in now keeps repeated announces from the same peer against an
// unchanged swarm from reshuffling identically every time.
func deriveEntropy(infoHash bittorrent.InfoHash, id bittorrent.PeerID, now time.Time) (v0, v1 uint64) {
	ih := []byte(infoHash.TruncateV1())
	v0 = binary.BigEndian.Uint64(ih[:8]) ^ binary.BigEndian.Uint64(ih[8:16])
	v1 = binary.BigEndian.Uint64(id[:8]) ^ binary.BigEndian.Uint64(id[8:16]) ^ uint64(now.UnixNano())
	return
}
