package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/dmitrymomot/careerdesk/pkg/sanitizer"
)

// Manager stores validated uploads in owner-scoped namespaces.
// It holds no mutable state besides the backend, so it is safe for
// concurrent use.
type Manager struct {
	backend         Backend
	validator       *Validator
	logger          *slog.Logger
	observer        Observer
	displayName     func(string) string
	sem             *semaphore.Weighted
	publicPrefix    string
	maxConcurrentIO int
}

// NewManager creates a Manager over backend.
func NewManager(backend Backend, opts ...Option) (*Manager, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: backend is required", ErrInvalidConfig)
	}

	m := &Manager{
		backend:         backend,
		validator:       NewValidator(),
		logger:          slog.New(slog.DiscardHandler),
		displayName:     sanitizer.DisplayName,
		publicPrefix:    DefaultPublicPrefix,
		maxConcurrentIO: DefaultMaxConcurrentIO,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.sem = semaphore.NewWeighted(int64(m.maxConcurrentIO))

	return m, nil
}

// Validator returns the validator applied by Store.
func (m *Manager) Validator() *Validator {
	return m.validator
}

// Store validates and persists an upload for ownerID.
// originalName is the filename as the caller sent it: the allow-list check
// and the stored extension use it unchanged, while the recorded OriginalName
// is its display form.
// size is the declared size, or -1 when unknown; the ceiling is enforced
// while streaming either way. Rejected uploads leave no artifact.
func (m *Manager) Store(ctx context.Context, ownerID string, r io.Reader, declaredMIME, originalName string, size int64) (_ *File, err error) {
	defer m.observe(OpStore, time.Now(), &err)

	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	if err := ValidateOwnerID(ownerID); err != nil {
		return nil, err
	}
	if err := m.validator.Validate(declaredMIME, originalName, size); err != nil {
		m.logger.InfoContext(ctx, "upload rejected",
			slog.String("owner_id", ownerID),
			slog.String("reason", err.Error()),
		)
		return nil, err
	}

	ext := Ext(originalName)
	key := uuid.NewString() + ext

	if err := m.acquire(ctx); err != nil {
		return nil, err
	}
	defer m.sem.Release(1)

	limit := m.validator.MaxSize()
	body := &capReader{r: io.LimitReader(r, limit+1), limit: limit}

	n, err := m.backend.Write(ctx, ownerID, key, normalizeMIME(declaredMIME), body)
	if err != nil {
		var verr *FileValidationError
		if errors.As(err, &verr) {
			m.logger.InfoContext(ctx, "upload rejected while streaming",
				slog.String("owner_id", ownerID),
				slog.Int64("limit", limit),
			)
			return nil, verr
		}
		m.logger.ErrorContext(ctx, "upload write failed",
			slog.String("owner_id", ownerID),
			slog.String("key", key),
			slog.Any("error", err),
		)
		return nil, err
	}

	m.logger.InfoContext(ctx, "file stored",
		slog.String("owner_id", ownerID),
		slog.String("key", key),
		slog.Int64("size", n),
	)

	return &File{
		OwnerID:      ownerID,
		Key:          key,
		OriginalName: m.displayName(originalName),
		ContentType:  normalizeMIME(declaredMIME),
		Extension:    ext,
		Size:         n,
	}, nil
}

// Exists reports whether ownerID has a file stored under key.
// A missing file is (false, nil).
func (m *Manager) Exists(ctx context.Context, ownerID, key string) (_ bool, err error) {
	defer m.observe(OpExists, time.Now(), &err)

	if err := checkAddress(ownerID, key); err != nil {
		return false, err
	}
	if err := m.acquire(ctx); err != nil {
		return false, err
	}
	defer m.sem.Release(1)

	return m.backend.Exists(ctx, ownerID, key)
}

// Open returns the contents of ownerID's file. Missing files yield ErrNotFound.
// The caller must close the returned reader.
func (m *Manager) Open(ctx context.Context, ownerID, key string) (_ io.ReadCloser, err error) {
	defer m.observe(OpOpen, time.Now(), &err)

	if err := checkAddress(ownerID, key); err != nil {
		return nil, err
	}
	if err := m.acquire(ctx); err != nil {
		return nil, err
	}
	defer m.sem.Release(1)

	return m.backend.Open(ctx, ownerID, key)
}

// Delete removes ownerID's file. Deleting a missing file succeeds.
func (m *Manager) Delete(ctx context.Context, ownerID, key string) (err error) {
	defer m.observe(OpDelete, time.Now(), &err)

	if err := checkAddress(ownerID, key); err != nil {
		return err
	}
	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.sem.Release(1)

	if err := m.backend.Remove(ctx, ownerID, key); err != nil {
		m.logger.ErrorContext(ctx, "file delete failed",
			slog.String("owner_id", ownerID),
			slog.String("key", key),
			slog.Any("error", err),
		)
		return err
	}

	m.logger.InfoContext(ctx, "file deleted",
		slog.String("owner_id", ownerID),
		slog.String("key", key),
	)
	return nil
}

// DeleteOwner removes every file ownerID has stored, e.g. on account deletion.
func (m *Manager) DeleteOwner(ctx context.Context, ownerID string) (err error) {
	defer m.observe(OpDeleteOwner, time.Now(), &err)

	if ownerID == "" {
		return ErrUnauthenticated
	}
	if err := ValidateOwnerID(ownerID); err != nil {
		return err
	}
	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.sem.Release(1)

	if err := m.backend.RemoveAll(ctx, ownerID); err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "owner files deleted", slog.String("owner_id", ownerID))
	return nil
}

// URL returns the public reference "<prefix>/<ownerID>/<key>".
// It does not touch the backend and does not imply the file exists.
func (m *Manager) URL(ownerID, key string) (string, error) {
	if err := checkAddress(ownerID, key); err != nil {
		return "", err
	}
	prefix := strings.TrimSuffix(m.publicPrefix, "/")
	return prefix + "/" + url.PathEscape(ownerID) + "/" + url.PathEscape(key), nil
}

// acquire takes an I/O slot, giving up when ctx is done.
func (m *Manager) acquire(ctx context.Context) error {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("storage: waiting for i/o slot: %w", err)
	}
	return nil
}

func (m *Manager) observe(op string, start time.Time, err *error) {
	if m.observer != nil {
		m.observer(op, *err, time.Since(start))
	}
}

// checkAddress validates an (owner, key) pair, mapping an empty owner to
// ErrUnauthenticated.
func checkAddress(ownerID, key string) error {
	if ownerID == "" {
		return ErrUnauthenticated
	}
	if err := ValidateOwnerID(ownerID); err != nil {
		return err
	}
	return ValidateKey(key)
}

// capReader fails with a too-large validation error once more than limit
// bytes have been read. Wrap the source in io.LimitReader(limit+1) so at most
// one byte past the ceiling is consumed.
type capReader struct {
	r     io.Reader
	n     int64
	limit int64
}

func (c *capReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.n > c.limit {
		return n, tooLargeError(c.limit, c.n)
	}
	return n, err
}
