package http

import (
	"net"
	"net/netip"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/vaultseed/tracker/bittorrent"
	"github.com/vaultseed/tracker/swarm"
)

const requestTypeAnnounce = "announce"

// handleAnnounce implements §4.6's announce handler.
func (f *Frontend) handleAnnounce(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		f.recordOutcome(requestTypeAnnounce, outcome, start)
	}()

	clientIP, ok := clientAddr(ctx)
	if !ok {
		outcome = "client_error"
		WriteError(ctx, bittorrent.ClientError("unable to determine client address"))
		return
	}

	req, err := bittorrent.ParseAnnounce(ctx.QueryArgs(), clientIP, f.cfg.decodeConfig())
	if err != nil {
		outcome = "client_error"
		WriteError(ctx, err)
		return
	}

	identity, err := f.auth.Authenticate(ctx, req.Passkey)
	if err != nil {
		outcome = "unauthorized"
		WriteError(ctx, err)
		return
	}

	now := f.clock.Now()
	endpoint := req.AddrPort
	sw := f.swarms.GetOrCreate(req.InfoHash)

	if req.Event == bittorrent.Stopped {
		sw.Remove(endpoint, now)
		f.respondMinimal(ctx)
		return
	}

	if req.Event == bittorrent.Completed {
		sw.IncrementCompleted()
	}

	rec := swarm.Record{
		ID:         req.ID,
		UserID:     identity.UserID,
		Uploaded:   req.Uploaded,
		Downloaded: req.Downloaded,
		Left:       req.Left,
		UserAgent:  req.UserAgent,
	}
	sw.Upsert(endpoint, rec, now)

	f.flusher.AppendPeer(req.InfoHash, endpoint, identity.UserID, req.Uploaded, req.Downloaded, req.Left, req.Left == 0, req.UserAgent, now)
	st := sw.Stats()
	f.flusher.AppendTorrent(req.InfoHash, st.Seeders, st.Leechers, completedDelta(req.Event))

	isV6 := endpoint.Addr().Is6() && !endpoint.Addr().Is4In6()
	peers := sw.Select(endpoint, req.InfoHash, req.ID, req.Left == 0, req.NumWant, now)

	resp := &bittorrent.AnnounceResponse{
		Interval:    f.respCfg.Interval,
		MinInterval: f.respCfg.MinInterval,
		Complete:    uint32(st.Seeders),
		Incomplete:  uint32(st.Leechers),
		Peers:       peers,
		IsIPv6:      isV6,
	}

	if err = WriteAnnounceResponse(ctx, resp); err != nil {
		outcome = "internal_error"
		logger.Error().Err(err).Msg("failed to encode announce response")
	}
}

// respondMinimal emits the minimal body §4.6 step 5 calls for on a stopped
// event: no peer list or counters are computed since the peer is leaving
// the swarm.
func (f *Frontend) respondMinimal(ctx *fasthttp.RequestCtx) {
	if err := WriteMinimalAnnounceResponse(ctx, f.respCfg.Interval); err != nil {
		logger.Error().Err(err).Msg("failed to encode stopped-event response")
	}
}

func completedDelta(event bittorrent.Event) uint64 {
	if event == bittorrent.Completed {
		return 1
	}
	return 0
}

func (f *Frontend) recordOutcome(requestType, outcome string, start time.Time) {
	if f.stats == nil {
		return
	}
	f.stats.RecordLatency(requestType, time.Since(start))
	f.stats.RecordOutcome(requestType, outcome)
}

// clientAddr extracts the observed client address from the connection,
// unmapped to a plain IPv4 or IPv6 netip.Addr.
func clientAddr(ctx *fasthttp.RequestCtx) (netip.Addr, bool) {
	addr, ok := ctx.RemoteAddr().(*net.TCPAddr)
	if !ok {
		return netip.Addr{}, false
	}
	a, ok := netip.AddrFromSlice(addr.IP)
	if !ok {
		return netip.Addr{}, false
	}
	return a.Unmap(), true
}
