package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/careerdesk/pkg/storage"
)

func writeAged(t *testing.T, path string, age time.Duration) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	mod := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestSweeper_Sweep(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	staging := filepath.Join(root, storage.StagingDir)
	stale := filepath.Join(staging, ".abc.pdf-111.tmp")
	fresh := filepath.Join(staging, ".def.pdf-222.tmp")
	oldFile := filepath.Join(root, "u1", "abc.pdf")
	hiddenNonTemp := filepath.Join(staging, ".keep")
	ownerTempName := filepath.Join(root, "u2", ".old.pdf-333.tmp")

	writeAged(t, stale, 2*time.Hour)
	writeAged(t, fresh, time.Minute)
	writeAged(t, oldFile, 48*time.Hour)
	writeAged(t, hiddenNonTemp, 48*time.Hour)
	writeAged(t, ownerTempName, 48*time.Hour)

	s := storage.NewSweeper(root, time.Hour, nil)
	n, err := s.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoFileExists(t, stale)
	require.FileExists(t, fresh)
	require.FileExists(t, oldFile)
	require.FileExists(t, hiddenNonTemp)
	require.FileExists(t, ownerTempName, "owner directories are never swept")
}

func TestSweeper_MissingRoot(t *testing.T) {
	t.Parallel()

	s := storage.NewSweeper(filepath.Join(t.TempDir(), "absent"), 0, nil)
	n, err := s.Sweep(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestSweeper_CancelledContext(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeAged(t, filepath.Join(root, storage.StagingDir, ".a.pdf-1.tmp"), 2*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := storage.NewSweeper(root, time.Hour, nil).Sweep(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
