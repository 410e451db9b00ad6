package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/api/files/")
	require.NoError(t, err)

	info, err := store.Save(context.Background(), "rc/123_test.pdf", strings.NewReader("hello"), "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, "/api/files/rc/123_test.pdf", info.URL)
	assert.Equal(t, "123_test.pdf", info.FileName)
	assert.Equal(t, int64(5), info.FileSize)
	assert.Equal(t, "application/pdf", info.FileType)

	data, err := os.ReadFile(filepath.Join(dir, "rc", "123_test.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, store.Delete(context.Background(), "rc/123_test.pdf"))
	_, err = os.Stat(filepath.Join(dir, "rc", "123_test.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStoreDeleteMissingFile(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/api/files")
	require.NoError(t, err)

	assert.NoError(t, store.Delete(context.Background(), "nope/missing.pdf"))
}

func TestLocalStoreURLJoins(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/api/files/")
	require.NoError(t, err)

	assert.Equal(t, "/api/files/photos/a.png", store.URL("photos/a.png"))
	assert.Equal(t, "/api/files/photos/a.png", store.URL("/photos/a.png"))
}
