package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Default permissions for local storage.
const (
	DefaultDirPerm  os.FileMode = 0o750
	DefaultFilePerm os.FileMode = 0o640
)

// StagingDir is the directory under the storage root that holds in-flight
// writes. It is reserved and can never be used as an owner id.
const StagingDir = ".staging"

// tempSuffix marks in-flight writes. Files carrying it are never served and
// are collected by the Sweeper when stale.
const tempSuffix = ".tmp"

func isTempKey(key string) bool {
	return strings.HasSuffix(key, tempSuffix)
}

// LocalBackend stores files on the local filesystem as <root>/<owner>/<key>.
type LocalBackend struct {
	resolver *Resolver
	dirPerm  os.FileMode
	filePerm os.FileMode
}

// LocalOption configures a LocalBackend.
type LocalOption func(*LocalBackend)

// WithDirPerm sets the permission bits for owner directories.
func WithDirPerm(perm os.FileMode) LocalOption {
	return func(b *LocalBackend) {
		b.dirPerm = perm
	}
}

// WithFilePerm sets the permission bits for stored files.
func WithFilePerm(perm os.FileMode) LocalOption {
	return func(b *LocalBackend) {
		b.filePerm = perm
	}
}

// NewLocalBackend creates the storage root if absent and returns a backend
// rooted there.
func NewLocalBackend(root string, opts ...LocalOption) (*LocalBackend, error) {
	resolver, err := NewResolver(root)
	if err != nil {
		return nil, err
	}

	b := &LocalBackend{
		resolver: resolver,
		dirPerm:  DefaultDirPerm,
		filePerm: DefaultFilePerm,
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := os.MkdirAll(resolver.Root(), b.dirPerm); err != nil {
		return nil, ioFailure("create storage root", err)
	}

	return b, nil
}

// Root returns the absolute storage root.
func (b *LocalBackend) Root() string {
	return b.resolver.Root()
}

// StagingDir returns the directory holding in-flight writes.
func (b *LocalBackend) StagingDir() string {
	return filepath.Join(b.resolver.Root(), StagingDir)
}

// Resolver returns the path resolver used by the backend.
func (b *LocalBackend) Resolver() *Resolver {
	return b.resolver
}

// Write streams r into a temp file under the staging directory, syncs it,
// then moves it into the owner directory. The owner directory is only created
// once the data is complete, so a rejected stream leaves it untouched.
func (b *LocalBackend) Write(_ context.Context, ownerID, key, _ string, r io.Reader) (int64, error) {
	dst, err := b.resolver.Resolve(ownerID, key)
	if err != nil {
		return 0, err
	}

	staging := b.StagingDir()
	if err := os.MkdirAll(staging, b.dirPerm); err != nil {
		return 0, ioFailure("create staging directory", err)
	}

	tmp, err := os.CreateTemp(staging, "."+key+"-*"+tempSuffix)
	if err != nil {
		return 0, ioFailure("create temp file", err)
	}
	tmpPath := tmp.Name()

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return 0, ioFailure("write file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return 0, ioFailure("sync file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, ioFailure("close file", err)
	}
	if err := os.Chmod(tmpPath, b.filePerm); err != nil {
		os.Remove(tmpPath)
		return 0, ioFailure("chmod file", err)
	}

	// Concurrent first writes for the same owner both succeed here.
	if err := os.MkdirAll(filepath.Dir(dst), b.dirPerm); err != nil {
		os.Remove(tmpPath)
		return 0, ioFailure("create owner directory", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return 0, ioFailure("rename file", err)
	}

	return n, nil
}

// Exists reports whether a regular file is stored at (ownerID, key).
func (b *LocalBackend) Exists(_ context.Context, ownerID, key string) (bool, error) {
	if isTempKey(key) {
		return false, nil
	}
	path, err := b.resolver.Resolve(ownerID, key)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, ioFailure("stat file", err)
	}
	return info.Mode().IsRegular(), nil
}

// Open opens the stored file for reading.
func (b *LocalBackend) Open(_ context.Context, ownerID, key string) (io.ReadCloser, error) {
	if isTempKey(key) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	path, err := b.resolver.Resolve(ownerID, key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, ioFailure("open file", err)
	}
	return f, nil
}

// Remove deletes the file. A missing file is not an error.
func (b *LocalBackend) Remove(_ context.Context, ownerID, key string) error {
	if isTempKey(key) {
		return nil
	}
	path, err := b.resolver.Resolve(ownerID, key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ioFailure("remove file", err)
	}
	return nil
}

// RemoveAll deletes the owner directory recursively.
func (b *LocalBackend) RemoveAll(_ context.Context, ownerID string) error {
	dir, err := b.resolver.OwnerDir(ownerID)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(dir); err != nil {
		return ioFailure("remove owner directory", err)
	}
	return nil
}

// Ensure LocalBackend implements Backend.
var _ Backend = (*LocalBackend)(nil)
