package storage

import (
	"context"
	"io"
	"time"
)

// Backend persists owner-scoped files.
// Manager validates owner ids and keys before calling a backend, so
// implementations can trust both arguments.
type Backend interface {
	// Write streams r to (ownerID, key), creating the owner namespace on demand.
	// It returns the number of bytes written. A failed write leaves nothing
	// at the final location.
	Write(ctx context.Context, ownerID, key, contentType string, r io.Reader) (int64, error)

	// Exists reports whether (ownerID, key) holds a file.
	Exists(ctx context.Context, ownerID, key string) (bool, error)

	// Open returns the file contents. Missing files yield ErrNotFound.
	Open(ctx context.Context, ownerID, key string) (io.ReadCloser, error)

	// Remove deletes a single file. Missing files are not an error.
	Remove(ctx context.Context, ownerID, key string) error

	// RemoveAll deletes the owner's whole namespace. Missing is not an error.
	RemoveAll(ctx context.Context, ownerID string) error
}

// File is the record of a stored upload.
type File struct {
	// OwnerID is the caller identity the file belongs to.
	OwnerID string `json:"owner_id"`

	// Key is the on-disk name: a fresh UUID plus the original extension.
	Key string `json:"key"`

	// OriginalName is the caller-supplied filename, kept for display only.
	OriginalName string `json:"original_name"`

	// ContentType is the declared MIME type accepted by the validator.
	ContentType string `json:"content_type"`

	// Extension is the lowercased original extension.
	Extension string `json:"extension"`

	// Size is the number of bytes written.
	Size int64 `json:"size"`
}

// Operation names reported to an Observer.
const (
	OpStore       = "store"
	OpExists      = "exists"
	OpOpen        = "open"
	OpDelete      = "delete"
	OpDeleteOwner = "delete_owner"
)

// Observer receives the outcome of every manager operation.
// err is nil on success.
type Observer func(op string, err error, elapsed time.Duration)
