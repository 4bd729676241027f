package storage_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/careerdesk/pkg/storage"
)

func TestNewLocalBackend(t *testing.T) {
	t.Parallel()

	t.Run("creates root", func(t *testing.T) {
		t.Parallel()
		root := filepath.Join(t.TempDir(), "nested", "uploads")

		b, err := storage.NewLocalBackend(root)
		require.NoError(t, err)
		require.Equal(t, root, b.Root())

		info, err := os.Stat(root)
		require.NoError(t, err)
		require.True(t, info.IsDir())
	})

	t.Run("empty root", func(t *testing.T) {
		t.Parallel()
		_, err := storage.NewLocalBackend("")
		require.ErrorIs(t, err, storage.ErrInvalidConfig)
	})

	t.Run("root is a file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

		_, err := storage.NewLocalBackend(filepath.Join(path, "uploads"))
		require.ErrorIs(t, err, storage.ErrIOFailure)
	})
}

func TestLocalBackend_Write(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("writes with configured permissions", func(t *testing.T) {
		t.Parallel()
		b, err := storage.NewLocalBackend(t.TempDir(), storage.WithFilePerm(0o600), storage.WithDirPerm(0o700))
		require.NoError(t, err)

		n, err := b.Write(ctx, "u1", "a.pdf", "application/pdf", strings.NewReader("hello"))
		require.NoError(t, err)
		require.Equal(t, int64(5), n)

		info, err := os.Stat(filepath.Join(b.Root(), "u1", "a.pdf"))
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		dirInfo, err := os.Stat(filepath.Join(b.Root(), "u1"))
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())
	})

	t.Run("overwrites existing key", func(t *testing.T) {
		t.Parallel()
		b, err := storage.NewLocalBackend(t.TempDir())
		require.NoError(t, err)

		_, err = b.Write(ctx, "u1", "a.pdf", "", strings.NewReader("old"))
		require.NoError(t, err)
		_, err = b.Write(ctx, "u1", "a.pdf", "", strings.NewReader("new"))
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(b.Root(), "u1", "a.pdf"))
		require.NoError(t, err)
		require.Equal(t, "new", string(data))
	})

	t.Run("failed write leaves nothing", func(t *testing.T) {
		t.Parallel()
		b, err := storage.NewLocalBackend(t.TempDir())
		require.NoError(t, err)

		_, err = b.Write(ctx, "u1", "a.pdf", "", io.MultiReader(strings.NewReader("partial"), &failingReader{err: io.ErrUnexpectedEOF}))
		require.ErrorIs(t, err, storage.ErrIOFailure)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)

		require.NoDirExists(t, filepath.Join(b.Root(), "u1"))
		entries, err := os.ReadDir(b.StagingDir())
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("stages data outside the owner directory", func(t *testing.T) {
		t.Parallel()
		b, err := storage.NewLocalBackend(t.TempDir())
		require.NoError(t, err)

		var ownerDirSeen bool
		var staged []os.DirEntry
		r := &inspectReader{
			data: []byte("payload"),
			inspect: func() {
				_, statErr := os.Stat(filepath.Join(b.Root(), "u1"))
				ownerDirSeen = statErr == nil
				staged, _ = os.ReadDir(b.StagingDir())
			},
		}

		_, err = b.Write(ctx, "u1", "a.pdf", "", r)
		require.NoError(t, err)
		require.False(t, ownerDirSeen, "owner directory must not exist while streaming")
		require.Len(t, staged, 1)

		ok, err := b.Exists(ctx, "u1", staged[0].Name())
		require.NoError(t, err)
		require.False(t, ok)

		entries, err := os.ReadDir(b.StagingDir())
		require.NoError(t, err)
		require.Empty(t, entries)
		require.FileExists(t, filepath.Join(b.Root(), "u1", "a.pdf"))
	})

	t.Run("rejects unsafe address", func(t *testing.T) {
		t.Parallel()
		b, err := storage.NewLocalBackend(t.TempDir())
		require.NoError(t, err)

		_, err = b.Write(ctx, "u1", "../escape.pdf", "", strings.NewReader("x"))
		require.ErrorIs(t, err, storage.ErrInvalidKey)
		_, err = b.Write(ctx, "a/b", "x.pdf", "", strings.NewReader("x"))
		require.ErrorIs(t, err, storage.ErrInvalidOwner)
	})
}

func TestLocalBackend_ExistsOpenRemove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b, err := storage.NewLocalBackend(t.TempDir())
	require.NoError(t, err)

	_, err = b.Write(ctx, "u1", "a.pdf", "", strings.NewReader("data"))
	require.NoError(t, err)

	ok, err := b.Exists(ctx, "u1", "a.pdf")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = b.Exists(ctx, "u1", "b.pdf")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, os.Mkdir(filepath.Join(b.Root(), "u1", "dir.pdf"), 0o750))
	ok, err = b.Exists(ctx, "u1", "dir.pdf")
	require.NoError(t, err)
	require.False(t, ok, "directories are not files")

	rc, err := b.Open(ctx, "u1", "a.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "data", string(data))

	_, err = b.Open(ctx, "u1", ".a.pdf-123.tmp")
	require.ErrorIs(t, err, storage.ErrNotFound)

	inFlight := filepath.Join(b.Root(), "u1", ".a.pdf-123.tmp")
	require.NoError(t, os.WriteFile(inFlight, []byte("x"), 0o600))
	ok, err = b.Exists(ctx, "u1", ".a.pdf-123.tmp")
	require.NoError(t, err)
	require.False(t, ok, "temp files are not stored files")
	require.NoError(t, b.Remove(ctx, "u1", ".a.pdf-123.tmp"))
	require.FileExists(t, inFlight)

	require.NoError(t, b.Remove(ctx, "u1", "a.pdf"))
	require.NoError(t, b.Remove(ctx, "u1", "a.pdf"))

	_, err = b.Open(ctx, "u1", "a.pdf")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLocalBackend_RemoveAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b, err := storage.NewLocalBackend(t.TempDir())
	require.NoError(t, err)

	_, err = b.Write(ctx, "u1", "a.pdf", "", strings.NewReader("data"))
	require.NoError(t, err)

	require.NoError(t, b.RemoveAll(ctx, "u1"))
	_, err = os.Stat(filepath.Join(b.Root(), "u1"))
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, b.RemoveAll(ctx, "never-stored"))
	require.ErrorIs(t, b.RemoveAll(ctx, ".."), storage.ErrInvalidOwner)
}

// inspectReader calls inspect once, on the first read, before returning data.
type inspectReader struct {
	inspect func()
	data    []byte
	done    bool
}

func (r *inspectReader) Read(p []byte) (int, error) {
	if !r.done {
		r.done = true
		r.inspect()
	}
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestLocalBackend_StagingDirIsNotAnOwner(t *testing.T) {
	t.Parallel()

	b, err := storage.NewLocalBackend(t.TempDir())
	require.NoError(t, err)

	_, err = b.Write(context.Background(), storage.StagingDir, "a.pdf", "", strings.NewReader("x"))
	require.ErrorIs(t, err, storage.ErrInvalidOwner)
	require.ErrorIs(t, b.RemoveAll(context.Background(), storage.StagingDir), storage.ErrInvalidOwner)
}
