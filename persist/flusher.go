package persist

import (
	"context"
	"net/netip"
	"time"

	"github.com/vaultseed/tracker/bittorrent"
	"github.com/vaultseed/tracker/pkg/stop"
)

// Flusher owns the two buffers of §4.5.1 and drives the flush policy of
// §4.5.2–§4.5.5: a periodic flush, a size-triggered flush coalesced with
// any flush already running, and a bounded final flush at shutdown.
type Flusher struct {
	cfg      Config
	sink     Sink
	observer Observer

	peers    *peerUpdateBuffer
	torrents *torrentUpdateBuffer

	trigger chan struct{}
	done    chan struct{}
	stopped chan struct{}
}

// NewFlusher builds a Flusher. observer may be nil.
func NewFlusher(cfg Config, sink Sink, observer Observer) *Flusher {
	cfg = cfg.WithDefaults()
	return &Flusher{
		cfg:      cfg,
		sink:     sink,
		observer: observer,
		peers:    newPeerUpdateBuffer(cfg.MaxBufferSize),
		torrents: newTorrentUpdateBuffer(),
		trigger:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// AppendPeer enqueues a peer observation. Called from every non-stopped
// announce handler (§4.6 step 7); must never block.
func (f *Flusher) AppendPeer(ih bittorrent.InfoHash, endpoint netip.AddrPort, userID string, uploaded, downloaded, left uint64, isSeeder bool, userAgent string, now time.Time) {
	f.peers.append(PeerUpdate{
		InfoHash:   ih,
		Endpoint:   endpoint,
		UserID:     userID,
		Uploaded:   uploaded,
		Downloaded: downloaded,
		Left:       left,
		IsSeeder:   isSeeder,
		UserAgent:  userAgent,
		LastSeen:   now,
	})
	if f.peers.approxLen() >= f.cfg.BatchSizeThreshold {
		f.requestFlush()
	}
}

// AppendTorrent enqueues a torrent stats snapshot alongside an additive
// completed-event delta. Called alongside AppendPeer.
func (f *Flusher) AppendTorrent(ih bittorrent.InfoHash, seeders, leechers int, completedDelta uint64) {
	f.torrents.merge(TorrentUpdate{InfoHash: ih, Seeders: seeders, Leechers: leechers, CompletedDelta: completedDelta})
}

// requestFlush signals the run loop; a signal already pending means a flush
// is already queued, so this one is coalesced into it (§4.5.2).
func (f *Flusher) requestFlush() {
	select {
	case f.trigger <- struct{}{}:
	default:
	}
}

// OverflowCount reports how many peer updates have been dropped because
// the buffer exceeded MaxBufferSize (§4.5.5), for the observability gauge.
func (f *Flusher) OverflowCount() uint64 {
	return f.peers.overflowCount()
}

// Run drives the flush loop until Stop is called. It is meant to run in its
// own goroutine for the lifetime of the process.
func (f *Flusher) Run() {
	ticker := time.NewTicker(f.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.flush(context.Background())
		case <-f.trigger:
			f.flush(context.Background())
		case <-f.done:
			ctx, cancel := context.WithTimeout(context.Background(), f.cfg.ShutdownGrace)
			f.flush(ctx)
			cancel()
			close(f.stopped)
			return
		}
	}
}

// Stop implements stop.Stopper: it asks the run loop to perform one final,
// bounded flush and waits for it to finish.
func (f *Flusher) Stop() stop.Result {
	c := make(stop.Channel)
	go func() {
		close(f.done)
		<-f.stopped
		close(c)
	}()
	return c.Result()
}

// flush implements §4.5.3. A failure is absorbed entirely here: it is
// logged and counted, never propagated, per §4.5.4's explicit loss
// tolerance.
func (f *Flusher) flush(ctx context.Context) {
	peerUpdates := collapsePeers(f.peers.drain())
	torrentUpdates := f.torrents.detach()

	if len(peerUpdates) == 0 && len(torrentUpdates) == 0 {
		return
	}

	start := time.Now()
	var err error
	for _, chunk := range chunkPeers(peerUpdates, f.cfg.MaxRowsPerStatement) {
		if err = f.sink.FlushPeers(ctx, chunk); err != nil {
			break
		}
	}
	if err == nil {
		for _, chunk := range chunkTorrents(torrentUpdates, f.cfg.MaxRowsPerStatement) {
			if err = f.sink.FlushTorrents(ctx, chunk); err != nil {
				break
			}
		}
	}
	duration := time.Since(start)
	rows := len(peerUpdates) + len(torrentUpdates)

	if err != nil {
		logger.Error().Err(err).Int("rows", rows).Dur("duration", duration).
			Msg("batch flush failed, buffered updates discarded")
	} else {
		logger.Debug().Int("rows", rows).Dur("duration", duration).Msg("batch flush complete")
	}
	if f.observer != nil {
		f.observer.RecordBatchFlush(rows, duration, err)
		f.observer.SetGauge("persist_buffer_overflow_total", float64(f.peers.overflowCount()))
	}
}

// peerKey identifies a peer update for collapsing purposes.
type peerKey struct {
	infoHash bittorrent.InfoHash
	endpoint netip.AddrPort
}

// collapsePeers implements §4.5.3 step 2: retain only the newest
// observation per (info_hash, endpoint), preserving first-seen order so
// collapsing is deterministic given the same input order.
func collapsePeers(updates []PeerUpdate) []PeerUpdate {
	if len(updates) == 0 {
		return nil
	}
	latest := make(map[peerKey]PeerUpdate, len(updates))
	order := make([]peerKey, 0, len(updates))
	for _, u := range updates {
		k := peerKey{infoHash: u.InfoHash, endpoint: u.Endpoint}
		if _, seen := latest[k]; !seen {
			order = append(order, k)
		}
		latest[k] = u
	}
	out := make([]PeerUpdate, len(order))
	for i, k := range order {
		out[i] = latest[k]
	}
	return out
}

func chunkPeers(updates []PeerUpdate, size int) [][]PeerUpdate {
	if len(updates) == 0 {
		return nil
	}
	var chunks [][]PeerUpdate
	for i := 0; i < len(updates); i += size {
		end := min(i+size, len(updates))
		chunks = append(chunks, updates[i:end])
	}
	return chunks
}

func chunkTorrents(updates []TorrentUpdate, size int) [][]TorrentUpdate {
	if len(updates) == 0 {
		return nil
	}
	var chunks [][]TorrentUpdate
	for i := 0; i < len(updates); i += size {
		end := min(i+size, len(updates))
		chunks = append(chunks, updates[i:end])
	}
	return chunks
}
