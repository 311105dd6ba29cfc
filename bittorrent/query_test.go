package bittorrent

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

// rawInfoHash returns a 20-byte raw (non-hex) info hash string, as an actual
// BitTorrent client would send it (percent-decoded by the HTTP layer before
// ParseAnnounce ever sees it).
func rawInfoHash(fill byte) string {
	b := make([]byte, InfoHashV1Len)
	for i := range b {
		b[i] = fill
	}
	return string(b)
}

func rawPeerIDStr(fill byte) string {
	b := make([]byte, PeerIDLen)
	for i := range b {
		b[i] = fill
	}
	return string(b)
}

func TestParseAnnounce_Valid(t *testing.T) {
	var args fasthttp.Args
	args.Set("info_hash", rawInfoHash(1))
	args.Set("peer_id", rawPeerIDStr(2))
	args.Set("port", "6881")
	args.Set("left", "1000")
	args.Set("event", "started")

	req, err := ParseAnnounce(&args, netip.MustParseAddr("192.0.2.10"), DefaultDecodeConfig)
	require.NoError(t, err)
	require.Equal(t, Started, req.Event)
	require.True(t, req.EventProvided)
	require.EqualValues(t, 1000, req.Left)
	require.EqualValues(t, 6881, req.Port())
	require.EqualValues(t, DefaultDecodeConfig.DefaultNumWant, req.NumWant)
}

func TestParseAnnounce_InvalidPort(t *testing.T) {
	var args fasthttp.Args
	args.Set("info_hash", rawInfoHash(1))
	args.Set("peer_id", rawPeerIDStr(2))
	args.Set("port", "0")

	_, err := ParseAnnounce(&args, netip.MustParseAddr("192.0.2.10"), DefaultDecodeConfig)
	require.Error(t, err)
}

func TestParseAnnounce_NumWantClamped(t *testing.T) {
	var args fasthttp.Args
	args.Set("info_hash", rawInfoHash(1))
	args.Set("peer_id", rawPeerIDStr(2))
	args.Set("port", "6881")
	args.Set("numwant", "-5")

	req, err := ParseAnnounce(&args, netip.MustParseAddr("192.0.2.10"), DefaultDecodeConfig)
	require.NoError(t, err)
	require.EqualValues(t, 0, req.NumWant)

	args.Set("numwant", "9000")
	req, err = ParseAnnounce(&args, netip.MustParseAddr("192.0.2.10"), DefaultDecodeConfig)
	require.NoError(t, err)
	require.EqualValues(t, DefaultDecodeConfig.MaxNumWant, req.NumWant)
}

func TestParseAnnounce_IPOverride(t *testing.T) {
	var args fasthttp.Args
	args.Set("info_hash", rawInfoHash(1))
	args.Set("peer_id", rawPeerIDStr(2))
	args.Set("port", "6881")
	args.Set("ip", "198.51.100.7")

	req, err := ParseAnnounce(&args, netip.MustParseAddr("192.0.2.10"), DefaultDecodeConfig)
	require.NoError(t, err)
	require.True(t, req.IPProvided)
	require.Equal(t, "198.51.100.7", req.Addr().String())
}

func TestParseScrape_TooMany(t *testing.T) {
	var args fasthttp.Args
	cfg := DecodeConfig{MaxScrapeHashes: 1}
	args.Add("info_hash", rawInfoHash(1))
	args.Add("info_hash", rawInfoHash(2))

	_, err := ParseScrape(&args, cfg)
	require.Error(t, err)
}

func TestParseScrape_DropsMalformedKeepsValid(t *testing.T) {
	var args fasthttp.Args
	args.Add("info_hash", "not-20-bytes")
	args.Add("info_hash", rawInfoHash(1))

	req, err := ParseScrape(&args, DefaultDecodeConfig)
	require.NoError(t, err)
	require.Len(t, req.InfoHashes, 1)
}

func TestParseScrape_NoneValid(t *testing.T) {
	var args fasthttp.Args
	args.Add("info_hash", "nope")

	_, err := ParseScrape(&args, DefaultDecodeConfig)
	require.Error(t, err)
}
