package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDenyStore_DenyAllowRoundTrip(t *testing.T) {
	ds, err := OpenDenyStore(t.TempDir() + "/deny.mdb")
	require.NoError(t, err)
	defer ds.Close()

	require.False(t, ds.IsDenied("user-1"))

	require.NoError(t, ds.Deny("user-1"))
	require.True(t, ds.IsDenied("user-1"))

	require.NoError(t, ds.Allow("user-1"))
	require.False(t, ds.IsDenied("user-1"))
}

func TestDenyStore_NilIsSafe(t *testing.T) {
	var ds *DenyStore
	require.False(t, ds.IsDenied("user-1"))
	require.NoError(t, ds.Close())
}
