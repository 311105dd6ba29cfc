package http

import (
	"errors"
	"net"
	"time"

	"github.com/anacrolix/torrent/bencode"
	"github.com/valyala/fasthttp"

	"github.com/vaultseed/tracker/auth"
	"github.com/vaultseed/tracker/bittorrent"
	"github.com/vaultseed/tracker/pkg/bytepool"
	"github.com/vaultseed/tracker/pkg/log"
)

var writerLogger = log.NewLogger("frontend.http.writer")

const bencodeContentType = "text/plain"

// compactPeerPool reuses the byte buffer WriteAnnounceResponse builds the
// compact peer list in, sized for a typical full page of IPv6 peers so the
// common case never grows it.
var compactPeerPool = bytepool.NewBytePool(128 * (net.IPv6len + 2))

// WriteError communicates a failure to a BitTorrent client per §4.4.4: a
// bencoded failure-reason dictionary, sent with HTTP 401 for
// auth.ErrUnauthorized and HTTP 400 for every other failure.
func WriteError(ctx *fasthttp.RequestCtx, err error) {
	message := "internal server error"
	var clientErr bittorrent.ClientError
	if errors.As(err, &clientErr) {
		message = clientErr.Error()
	} else {
		writerLogger.Error().Err(err).Msg("internal error serving request")
	}

	if errors.Is(err, auth.ErrUnauthorized) {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	} else {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
	}
	ctx.SetContentType(bencodeContentType)
	if err = bencode.NewEncoder(ctx).Encode(map[string]any{
		"failure reason": message,
	}); err != nil {
		writerLogger.Error().Err(err).Msg("unable to encode failure reason")
	}
}

// WriteAnnounceResponse implements §4.4.2: compact is the only supported
// peer format, and a single response never mixes address families.
func WriteAnnounceResponse(ctx *fasthttp.RequestCtx, resp *bittorrent.AnnounceResponse) error {
	bdict := map[string]any{
		"complete":     resp.Complete,
		"incomplete":   resp.Incomplete,
		"interval":     int64(resp.Interval.Seconds()),
		"min interval": int64(resp.MinInterval.Seconds()),
	}

	peerKey := "peers"
	if resp.IsIPv6 {
		peerKey = "peers6"
	}

	compact := compactPeerPool.Get()
	defer compactPeerPool.Put(compact)
	for _, peer := range resp.Peers {
		*compact = append(*compact, compactPeer(peer, resp.IsIPv6)...)
	}
	bdict[peerKey] = *compact

	ctx.SetContentType(bencodeContentType)
	return bencode.NewEncoder(ctx).Encode(bdict)
}

// WriteMinimalAnnounceResponse emits the interval-only body §4.6 step 5
// calls for on a stopped event: the peer has left, so there is no peer list
// or counters worth computing for it.
func WriteMinimalAnnounceResponse(ctx *fasthttp.RequestCtx, interval time.Duration) error {
	ctx.SetContentType(bencodeContentType)
	return bencode.NewEncoder(ctx).Encode(map[string]any{
		"interval": int64(interval.Seconds()),
	})
}

// WriteScrapeResponse implements §4.4.3.
func WriteScrapeResponse(ctx *fasthttp.RequestCtx, resp *bittorrent.ScrapeResponse) error {
	filesDict := make(map[string]any, len(resp.Files))
	for _, scrape := range resp.Files {
		filesDict[scrape.InfoHash.RawString()] = map[string]any{
			"complete":   scrape.Complete,
			"incomplete": scrape.Incomplete,
			"downloaded": scrape.Downloaded,
		}
	}

	ctx.SetContentType(bencodeContentType)
	return bencode.NewEncoder(ctx).Encode(map[string]any{
		"files": filesDict,
	})
}

func compactPeer(peer bittorrent.Peer, isV6 bool) []byte {
	var ipBytes []byte
	if isV6 {
		ip := peer.Addr().As16()
		ipBytes = ip[:]
	} else {
		ip := peer.Addr().As4()
		ipBytes = ip[:]
	}
	port := peer.Port()
	buf := make([]byte, 0, len(ipBytes)+2)
	buf = append(buf, ipBytes...)
	buf = append(buf, byte(port>>8), byte(port&0xff))
	return buf
}
