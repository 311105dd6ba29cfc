package persist

import (
	"context"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vaultseed/tracker/bittorrent"
)

type fakeSink struct {
	mu       sync.Mutex
	peers    []PeerUpdate
	torrents []TorrentUpdate
	err      error
}

func (f *fakeSink) FlushPeers(_ context.Context, updates []PeerUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.peers = append(f.peers, updates...)
	return nil
}

func (f *fakeSink) FlushTorrents(_ context.Context, updates []TorrentUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.torrents = append(f.torrents, updates...)
	return nil
}

func testInfoHash(fill byte) bittorrent.InfoHash {
	b := make([]byte, bittorrent.InfoHashV1Len)
	for i := range b {
		b[i] = fill
	}
	h, err := bittorrent.NewInfoHash(b)
	if err != nil {
		panic(err)
	}
	return h
}

func TestCollapsePeers_KeepsNewestPerKey(t *testing.T) {
	ep := netip.MustParseAddrPort("192.0.2.1:6881")
	ih := testInfoHash(1)
	now := time.Now()

	updates := []PeerUpdate{
		{InfoHash: ih, Endpoint: ep, Uploaded: 1, LastSeen: now},
		{InfoHash: ih, Endpoint: ep, Uploaded: 2, LastSeen: now.Add(time.Second)},
	}

	out := collapsePeers(updates)
	require.Len(t, out, 1)
	require.EqualValues(t, 2, out[0].Uploaded)
}

func TestChunkPeers_RespectsSize(t *testing.T) {
	updates := make([]PeerUpdate, 10)
	chunks := chunkPeers(updates, 3)
	require.Len(t, chunks, 4)
	require.Len(t, chunks[0], 3)
	require.Len(t, chunks[3], 1)
}

func TestFlusher_AppendAndFlush(t *testing.T) {
	sink := &fakeSink{}
	f := NewFlusher(Config{FlushInterval: time.Hour}, sink, nil)

	ih := testInfoHash(1)
	ep := netip.MustParseAddrPort("192.0.2.1:6881")
	f.AppendPeer(ih, ep, "user-1", 0, 0, 1000, false, "test/1.0", time.Now())
	f.AppendTorrent(ih, 0, 1, 0)

	f.flush(context.Background())

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.peers, 1)
	require.Len(t, sink.torrents, 1)
	require.Equal(t, "user-1", sink.peers[0].UserID)
}

func TestFlusher_SinkFailureIsAbsorbed(t *testing.T) {
	sink := &fakeSink{err: errBoom}
	f := NewFlusher(Config{FlushInterval: time.Hour}, sink, nil)

	ih := testInfoHash(1)
	ep := netip.MustParseAddrPort("192.0.2.1:6881")
	f.AppendPeer(ih, ep, "user-1", 0, 0, 1000, false, "", time.Now())

	require.NotPanics(t, func() { f.flush(context.Background()) })
}

func TestFlusher_BatchThresholdTriggersFlush(t *testing.T) {
	sink := &fakeSink{}
	f := NewFlusher(Config{FlushInterval: time.Hour, BatchSizeThreshold: 2}, sink, nil)

	ih := testInfoHash(1)
	for i := 0; i < 2; i++ {
		ep := netip.MustParseAddrPort("192.0.2.1:6881")
		f.AppendPeer(ih, ep, "user-1", 0, 0, 1000, false, "", time.Now())
	}

	select {
	case <-f.trigger:
	case <-time.After(time.Second):
		t.Fatal("expected a flush trigger once the batch threshold is reached")
	}
}

var errBoom = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
