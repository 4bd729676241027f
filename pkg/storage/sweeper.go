package storage

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTempTTL is how old an in-flight temp file must be before the
// sweeper treats it as abandoned.
const DefaultTempTTL = time.Hour

// Sweeper removes temp files abandoned by interrupted writes under a local
// storage root. Completed files are never touched.
type Sweeper struct {
	logger *slog.Logger
	now    func() time.Time
	root   string
	ttl    time.Duration
}

// NewSweeper creates a sweeper for root. A non-positive ttl uses DefaultTempTTL.
func NewSweeper(root string, ttl time.Duration, logger *slog.Logger) *Sweeper {
	if ttl <= 0 {
		ttl = DefaultTempTTL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sweeper{
		root:   root,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Sweep walks the staging directory under the root once and returns how many
// temp files were removed. A missing directory is not an error.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.ttl)
	removed := 0

	err := filepath.WalkDir(filepath.Join(s.root, StagingDir), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !isTempName(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}

		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.WarnContext(ctx, "failed to remove stale temp file",
				slog.String("path", path),
				slog.Any("error", err),
			)
			return nil
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, ioFailure("sweep temp files", err)
	}

	if removed > 0 {
		s.logger.InfoContext(ctx, "stale temp files removed", slog.Int("count", removed))
	}
	return removed, nil
}

// isTempName matches names produced by LocalBackend.Write for in-flight data.
func isTempName(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, tempSuffix)
}
