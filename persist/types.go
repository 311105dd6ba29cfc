// Package persist implements the Batched Persistence component (C5): the
// hot-path buffers described in §4.5 (a lock-free peer-update ring and a
// mutex-guarded torrent-stats map) and a periodic flusher that
// collapses and upserts them into a relational sink without ever blocking
// an announce on a database round trip.
package persist

import (
	"context"
	"net/netip"
	"time"

	"github.com/vaultseed/tracker/bittorrent"
	"github.com/vaultseed/tracker/pkg/log"
)

var logger = log.NewLogger("persist")

// PeerUpdate is one observation of a peer's state, appended on every
// non-stopped announce. Duplicates for the same (InfoHash, Endpoint) are
// legal; the flusher collapses them, keeping the newest.
type PeerUpdate struct {
	InfoHash   bittorrent.InfoHash
	Endpoint   netip.AddrPort
	UserID     string
	Uploaded   uint64
	Downloaded uint64
	Left       uint64
	IsSeeder   bool
	UserAgent  string
	LastSeen   time.Time
}

// TorrentUpdate is the latest (seeders, leechers) snapshot for an info hash
// plus the completed-event delta accumulated since the last flush.
// CompletedDelta is additive across merges; Seeders/Leechers are
// last-writer-wins.
type TorrentUpdate struct {
	InfoHash       bittorrent.InfoHash
	Seeders        int
	Leechers       int
	CompletedDelta uint64
}

// Sink is the persistence backend a Flusher writes collapsed batches to.
// Implementations must treat every call as best-effort: a Sink error is
// logged and counted by the Flusher, never surfaced to a client.
type Sink interface {
	FlushPeers(ctx context.Context, updates []PeerUpdate) error
	FlushTorrents(ctx context.Context, updates []TorrentUpdate) error
}

// Observer receives batch-flush telemetry. The stats package's
// prometheus-backed StatisticsSink implements this.
type Observer interface {
	RecordBatchFlush(rowCount int, duration time.Duration, err error)
	SetGauge(name string, value float64)
}
