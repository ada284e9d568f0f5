package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFSStore_PutOpenDelete(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "attachments")
	store, err := NewFSStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "a1", strings.NewReader("hello"), 5, "text/plain"))

	rc, err := store.Open(ctx, "a1")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "hello", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file should be renamed away")

	require.NoError(t, store.Delete(ctx, "a1"))
	_, err = store.Open(ctx, "a1")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, store.Delete(ctx, "a1"), ErrNotFound)
}

func TestFSStore_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "..", "../x", "a/b", `a\b`} {
		require.ErrorIs(t, store.Put(ctx, key, strings.NewReader("x"), 1, ""), ErrInvalidKey, key)
		_, err := store.Open(ctx, key)
		require.ErrorIs(t, err, ErrInvalidKey, key)
	}
}
