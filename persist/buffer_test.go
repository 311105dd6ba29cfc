package persist

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPeerUpdateBuffer_AppendDrain(t *testing.T) {
	b := newPeerUpdateBuffer(16)
	ep := netip.MustParseAddrPort("192.0.2.1:6881")
	ih := testInfoHash(1)

	b.append(PeerUpdate{InfoHash: ih, Endpoint: ep, UserID: "a"})
	b.append(PeerUpdate{InfoHash: ih, Endpoint: ep, UserID: "b"})
	require.Equal(t, 2, b.approxLen())

	out := b.drain()
	require.Len(t, out, 2)
	require.Equal(t, "a", out[0].UserID)
	require.Equal(t, "b", out[1].UserID)
	require.Equal(t, 0, b.approxLen())
	require.Empty(t, b.drain())
}

func TestPeerUpdateBuffer_OverflowCounted(t *testing.T) {
	b := newPeerUpdateBuffer(2)
	ep := netip.MustParseAddrPort("192.0.2.1:6881")
	ih := testInfoHash(1)

	for i := 0; i < 5; i++ {
		b.append(PeerUpdate{InfoHash: ih, Endpoint: ep})
	}
	b.drain()
	require.Positive(t, b.overflowCount())
}

func TestTorrentUpdateBuffer_MergeIsAdditiveForCompleted(t *testing.T) {
	b := newTorrentUpdateBuffer()
	ih := testInfoHash(2)

	b.merge(TorrentUpdate{InfoHash: ih, Seeders: 1, Leechers: 2, CompletedDelta: 1})
	b.merge(TorrentUpdate{InfoHash: ih, Seeders: 3, Leechers: 4, CompletedDelta: 2})

	out := b.detach()
	require.Len(t, out, 1)
	require.EqualValues(t, 3, out[0].Seeders)
	require.EqualValues(t, 4, out[0].Leechers)
	require.EqualValues(t, 3, out[0].CompletedDelta)
}

func TestTorrentUpdateBuffer_DetachResets(t *testing.T) {
	b := newTorrentUpdateBuffer()
	ih := testInfoHash(3)
	b.merge(TorrentUpdate{InfoHash: ih, Seeders: 1})

	require.Len(t, b.detach(), 1)
	require.Empty(t, b.detach())
}
