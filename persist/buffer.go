package persist

import (
	"sync"
	"sync/atomic"
	"unsafe"

	diodes "code.cloudfoundry.org/go-diodes"

	"github.com/vaultseed/tracker/bittorrent"
)

// peerUpdateBuffer is the lock-free hot-path buffer of §4.5.1. It is backed
// by a diode (a ring buffer with no locks on the write path): once full,
// the oldest unread entry is overwritten and the overflow count increments,
// rather than blocking the announce handler that's appending to it.
type peerUpdateBuffer struct {
	d        *diodes.ManyToOne
	approx   atomic.Int64
	overflow atomic.Uint64
}

func newPeerUpdateBuffer(maxSize int) *peerUpdateBuffer {
	b := &peerUpdateBuffer{}
	b.d = diodes.NewManyToOne(maxSize, diodes.AlertFunc(func(missed int) {
		b.overflow.Add(uint64(missed))
	}))
	return b
}

// append is safe to call concurrently from every announce handler.
func (b *peerUpdateBuffer) append(u PeerUpdate) {
	up := u
	b.d.Set(diodes.GenericDataType(unsafe.Pointer(&up)))
	b.approx.Add(1)
}

// drain removes and returns every buffered update. Only the flusher calls
// this, so it never races with itself.
func (b *peerUpdateBuffer) drain() []PeerUpdate {
	b.approx.Store(0)
	var out []PeerUpdate
	for {
		data, ok := b.d.TryNext()
		if !ok {
			break
		}
		out = append(out, *(*PeerUpdate)(unsafe.Pointer(data)))
	}
	return out
}

func (b *peerUpdateBuffer) approxLen() int {
	return int(b.approx.Load())
}

func (b *peerUpdateBuffer) overflowCount() uint64 {
	return b.overflow.Load()
}

// torrentUpdateBuffer is the map-keyed accumulator of §4.5.1's second
// buffer: Seeders/Leechers are last-writer-wins, CompletedDelta is
// additive. A plain mutex is sufficient here — a map write is cheap enough
// to happen on every non-stopped announce, and the lock is held only for
// that single write.
type torrentUpdateBuffer struct {
	mu      sync.Mutex
	entries map[bittorrent.InfoHash]TorrentUpdate
}

func newTorrentUpdateBuffer() *torrentUpdateBuffer {
	return &torrentUpdateBuffer{entries: make(map[bittorrent.InfoHash]TorrentUpdate)}
}

func (b *torrentUpdateBuffer) merge(u TorrentUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := b.entries[u.InfoHash]
	e.InfoHash = u.InfoHash
	e.Seeders = u.Seeders
	e.Leechers = u.Leechers
	e.CompletedDelta += u.CompletedDelta
	b.entries[u.InfoHash] = e
}

func (b *torrentUpdateBuffer) detach() []TorrentUpdate {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]TorrentUpdate, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e)
	}
	b.entries = make(map[bittorrent.InfoHash]TorrentUpdate)
	return out
}
