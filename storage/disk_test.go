package storage

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"duo-chat/errors"
)

func newStoreUnderTest(t *testing.T) *DiskBlobStore {
	t.Helper()
	store, err := NewDiskBlobStore(t.TempDir(), slog.Default())
	require.NoError(t, err)
	return store
}

func TestBlobs_Save_Then_Open_Round_Trip(t *testing.T) {
	req := require.New(t)
	store := newStoreUnderTest(t)

	payload := []byte("not really a png")
	ref, err := store.Save("photo.png", payload)
	req.NoError(err)
	req.True(strings.HasSuffix(ref, ".png"), "ref %q should keep the declared extension", ref)

	got, err := store.Open(ref)
	req.NoError(err)
	req.Equal(payload, got)
}

func TestBlobs_Extension_Is_Sniffed_When_Name_Has_None(t *testing.T) {
	req := require.New(t)
	store := newStoreUnderTest(t)

	// Minimal PNG signature is enough for content sniffing.
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	ref, err := store.Save("pasted-image", png)
	req.NoError(err)
	req.True(strings.HasSuffix(ref, ".png"), "ref %q should carry a sniffed extension", ref)
}

func TestBlobs_Same_Millisecond_Saves_Get_Distinct_Refs(t *testing.T) {
	req := require.New(t)
	store := newStoreUnderTest(t)

	a, err := store.Save("a.txt", []byte("a"))
	req.NoError(err)
	b, err := store.Save("b.txt", []byte("b"))
	req.NoError(err)
	req.NotEqual(a, b)
}

func TestBlobs_Open_Rejects_Path_Like_Refs(t *testing.T) {
	store := newStoreUnderTest(t)
	for _, ref := range []string{"", "../outside.txt", "/etc/passwd", "sub/dir.txt"} {
		_, err := store.Open(ref)
		require.ErrorIs(t, err, errors.ErrBlobOutsideStore, "ref %q", ref)
	}
}
