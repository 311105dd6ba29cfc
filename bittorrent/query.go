package bittorrent

import (
	"net/netip"
	"strconv"

	"github.com/valyala/fasthttp"
)

// DecodeConfig carries the configurable bounds the Request Decoder enforces;
// it is populated from the process configuration (see pkg/conf) and passed
// into ParseAnnounce/ParseScrape by the HTTP frontend.
type DecodeConfig struct {
	DefaultNumWant  uint32
	MaxNumWant      uint32
	MaxScrapeHashes int
}

// DefaultDecodeConfig mirrors the defaults named in the tracker's
// configuration table.
var DefaultDecodeConfig = DecodeConfig{
	DefaultNumWant:  50,
	MaxNumWant:      200,
	MaxScrapeHashes: 100,
}

// ParseAnnounce decodes and validates an announce query string into an
// AnnounceRequest. clientIP is the address observed by the network layer,
// used unless the request's own "ip" parameter overrides it.
func ParseAnnounce(args *fasthttp.Args, clientIP netip.Addr, cfg DecodeConfig) (*AnnounceRequest, error) {
	infoHash, err := NewInfoHash(args.Peek("info_hash"))
	if err != nil {
		return nil, ClientError("invalid info_hash: " + err.Error())
	}

	peerIDBytes := args.Peek("peer_id")
	peerID, err := NewPeerID(peerIDBytes)
	if err != nil {
		return nil, ClientError("invalid peer_id: " + err.Error())
	}

	port, err := args.GetUint("port")
	if err != nil || port <= 0 || port > 65535 {
		return nil, ClientError("invalid port")
	}

	addr := clientIP
	ipProvided := false
	if raw := args.Peek("ip"); len(raw) > 0 {
		if parsed, perr := netip.ParseAddr(string(raw)); perr == nil {
			addr = parsed
			ipProvided = true
		}
	}
	if !addr.IsValid() {
		return nil, ClientError("unable to determine peer address")
	}

	req := &AnnounceRequest{
		Peer: Peer{
			ID:       peerID,
			AddrPort: netip.AddrPortFrom(addr.Unmap(), uint16(port)),
		},
		InfoHash:   infoHash,
		Passkey:    string(args.Peek("passkey")),
		Uploaded:   getUintOrZero(args, "uploaded"),
		Downloaded: getUintOrZero(args, "downloaded"),
		Left:       getUintOrZero(args, "left"),
		UserAgent:  string(args.Peek("user_agent")),
		IPProvided: ipProvided,
	}

	if raw := args.Peek("event"); len(raw) > 0 {
		req.Event = ParseEvent(string(raw))
		req.EventProvided = true
	}

	req.NumWant = cfg.DefaultNumWant
	if raw := args.Peek("numwant"); len(raw) > 0 {
		if n, perr := strconv.Atoi(string(raw)); perr == nil {
			req.NumWantProvided = true
			if n < 0 {
				n = 0
			}
			req.NumWant = uint32(n)
		}
	}
	if req.NumWant > cfg.MaxNumWant {
		req.NumWant = cfg.MaxNumWant
	}

	return req, nil
}

// getUintOrZero treats a missing or unparseable query value as zero rather
// than an error: "missing ⇒ 0".
func getUintOrZero(args *fasthttp.Args, key string) uint64 {
	raw := args.Peek(key)
	if len(raw) == 0 {
		return 0
	}
	v, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseScrape decodes and validates a scrape query string into a
// ScrapeRequest. Individually malformed info_hash values are dropped; the
// request only fails if none remain valid.
func ParseScrape(args *fasthttp.Args, cfg DecodeConfig) (*ScrapeRequest, error) {
	raw := args.PeekMulti("info_hash")
	if len(raw) > cfg.MaxScrapeHashes {
		return nil, ClientError("too many info_hashes")
	}

	hashes := make([]InfoHash, 0, len(raw))
	for _, b := range raw {
		ih, err := NewInfoHash(b)
		if err != nil {
			continue
		}
		hashes = append(hashes, ih)
	}

	if len(hashes) == 0 {
		return nil, ClientError("no valid info_hash provided")
	}

	return &ScrapeRequest{InfoHashes: hashes}, nil
}
