package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"quest-go/internal/config"
)

func TestLocalStorageUploadAndDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	svc, err := NewLocalStorageService(config.StorageConfig{LocalPath: dir, BaseURL: "/uploads/"})
	require.NoError(t, err)

	ctx := context.Background()
	info, err := svc.UploadFile(ctx, strings.NewReader("hello quest"), 11, "Notes.TXT", "text/plain")
	require.NoError(t, err)
	require.Equal(t, "Notes.TXT", info.FileName)
	require.Equal(t, int64(11), info.Size)
	require.True(t, strings.HasPrefix(info.URL, "/uploads/"))
	require.True(t, strings.HasSuffix(info.Path, ".txt"))

	data, err := os.ReadFile(info.Path)
	require.NoError(t, err)
	require.Equal(t, "hello quest", string(data))

	require.NoError(t, svc.DeleteFile(ctx, info.Path))
	_, err = os.Stat(info.Path)
	require.True(t, os.IsNotExist(err))

	// 再次删除不报错
	require.NoError(t, svc.DeleteFile(ctx, info.Path))
}

func TestLocalStorageRejectsSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewLocalStorageService(config.StorageConfig{LocalPath: dir, BaseURL: "/uploads"})
	require.NoError(t, err)

	_, err = svc.UploadFile(context.Background(), strings.NewReader("short"), 100, "a.pdf", "application/pdf")
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "partial file should be removed")
}

func TestLocalStorageRefusesPathsOutsideRoot(t *testing.T) {
	root := t.TempDir()
	svc, err := NewLocalStorageService(config.StorageConfig{LocalPath: filepath.Join(root, "uploads")})
	require.NoError(t, err)

	outside := filepath.Join(root, "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))
	require.Error(t, svc.DeleteFile(context.Background(), outside))
	_, err = os.Stat(outside)
	require.NoError(t, err)
}

func TestStoredNameInfersExtensionFromMime(t *testing.T) {
	name := storedName("README", "application/pdf")
	require.True(t, strings.HasSuffix(name, ".pdf"), name)
}

func TestStrToUint(t *testing.T) {
	v, err := StrToUint("42")
	require.NoError(t, err)
	require.Equal(t, uint(42), v)

	_, err = StrToUint("0")
	require.Error(t, err)
	_, err = StrToUint("abc")
	require.Error(t, err)
}

func TestBuildDSN(t *testing.T) {
	dsn := BuildDSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", DBName: "quests", SSLMode: "disable"})
	require.Equal(t, "host=db port=5432 user=u dbname=quests sslmode=disable", dsn)

	dsn = BuildDSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "quests", SSLMode: "require"})
	require.Contains(t, dsn, "password=p")
}
