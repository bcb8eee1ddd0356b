package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(filepath.Join(t.TempDir(), "uploads"))

	path, err := store.Upload(ctx, "doc.pdf", []byte("contenuto"), "application/pdf")
	require.NoError(t, err)
	assert.FileExists(t, path)

	data, err := store.Download(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("contenuto"), data)

	require.NoError(t, store.Delete(ctx, path))
	_, err = store.Download(ctx, path)
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting twice is not an error
	assert.NoError(t, store.Delete(ctx, path))
}

func TestLocalStoreStripsDirectoryFromName(t *testing.T) {
	ctx := context.Background()
	base := filepath.Join(t.TempDir(), "uploads")
	store := NewLocalStore(base)

	path, err := store.Upload(ctx, "../../etc/passwd", []byte("x"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, base, filepath.Dir(path))
}

func TestRouterFallsBackToLocalWithoutS3(t *testing.T) {
	ctx := context.Background()
	router := NewRouter(nil, NewLocalStore(t.TempDir()))

	path, err := router.Upload(ctx, "doc.pdf", []byte("x"), "application/pdf")
	require.NoError(t, err)

	data, err := router.Download(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
}

// Paths without the S3 key prefix always resolve locally, even when an S3
// store is configured: rows written before the bucket was enabled must keep
// working.
func TestRouterRoutesByPathPrefix(t *testing.T) {
	ctx := context.Background()
	local := NewLocalStore(t.TempDir())
	router := NewRouter(&S3Store{}, local)

	localPath, err := local.Upload(ctx, "old.pdf", []byte("vecchio"), "application/pdf")
	require.NoError(t, err)
	require.False(t, len(localPath) >= len(S3KeyPrefix) && localPath[:len(S3KeyPrefix)] == S3KeyPrefix)

	data, err := router.Download(ctx, localPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("vecchio"), data)

	require.NoError(t, router.Delete(ctx, localPath))
	_, statErr := os.Stat(localPath)
	assert.True(t, os.IsNotExist(statErr))
}
