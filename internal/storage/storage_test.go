package storage_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wondrlab/crosssell-api/internal/config"
	"github.com/wondrlab/crosssell-api/internal/storage"
	"go.uber.org/zap"
)

func TestStorageInterfaceCompliance(t *testing.T) {
	var _ storage.Storage = (*storage.LocalStorage)(nil)
	var _ storage.Storage = (*storage.AzureBlobStorage)(nil)
	var _ storage.Storage = (*storage.S3Storage)(nil)
}

func TestNewLocalStorage_CreatesDirectory(t *testing.T) {
	basePath := filepath.Join(t.TempDir(), "archive")

	ls, err := storage.NewLocalStorage(basePath)

	require.NoError(t, err)
	assert.NotNil(t, ls)
	info, err := os.Stat(basePath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ls, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	content := []byte("name,industry\r\nAcme,Retail\r\n")
	key := "imports/clients/2026/01/02/abc-clients.csv"

	size, err := ls.Upload(ctx, key, "text/csv", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), size)

	rc, err := ls.Download(ctx, key)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, content, got)

	require.NoError(t, ls.Delete(ctx, key))
	_, err = ls.Download(ctx, key)
	assert.Error(t, err)

	// deleting twice is not an error
	assert.NoError(t, ls.Delete(ctx, key))
}

func TestLocalStorage_KeysStayInsideBasePath(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	ls, err := storage.NewLocalStorage(base)
	require.NoError(t, err)

	_, err = ls.Upload(ctx, "../../escape.csv", "text/csv", strings.NewReader("x"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(base, "escape.csv"))
	assert.NoError(t, err)

	_, err = ls.Upload(ctx, "", "text/csv", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestArchiveKey(t *testing.T) {
	now := time.Date(2026, 3, 4, 22, 0, 0, 0, time.UTC)

	key := storage.ArchiveKey(storage.FolderImports, "clients", `C:\uploads\clients.csv`, now)
	assert.True(t, strings.HasPrefix(key, "imports/clients/2026/03/04/"), key)
	assert.True(t, strings.HasSuffix(key, "-clients.csv"), key)

	other := storage.ArchiveKey(storage.FolderImports, "clients", "clients.csv", now)
	assert.NotEqual(t, key, other)

	fallback := storage.ArchiveKey(storage.FolderExports, "tasks", "", now)
	assert.True(t, strings.HasSuffix(fallback, "-tasks.csv"), fallback)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "text/csv", storage.ContentTypeFor("a.CSV"))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", storage.ContentTypeFor("m.xlsx"))
	assert.Equal(t, "application/octet-stream", storage.ContentTypeFor("notes"))
}

func TestNewStorage(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	s, err := storage.NewStorage(ctx, &config.StorageConfig{Mode: "local", LocalBasePath: t.TempDir()}, logger)
	require.NoError(t, err)
	assert.IsType(t, &storage.LocalStorage{}, s)

	_, err = storage.NewStorage(ctx, &config.StorageConfig{Mode: "azure"}, logger)
	assert.Error(t, err)

	_, err = storage.NewStorage(ctx, &config.StorageConfig{Mode: "s3"}, logger)
	assert.Error(t, err)

	_, err = storage.NewStorage(ctx, &config.StorageConfig{Mode: "ftp"}, logger)
	assert.Error(t, err)
}
