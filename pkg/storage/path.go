package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Resolver maps (owner, key) pairs to absolute paths under a storage root.
// Every path it returns lives in the owner's own directory, so two owners
// can never resolve to the same file.
type Resolver struct {
	root string
}

// NewResolver creates a resolver rooted at dir.
// The root is made absolute; it is not created here.
func NewResolver(dir string) (*Resolver, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: storage root is empty", ErrInvalidConfig)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: storage root: %v", ErrInvalidConfig, err)
	}
	return &Resolver{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute storage root.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve returns <root>/<ownerID>/<key>.
// Owner ids and keys carrying separators or traversal sequences are rejected,
// never rewritten.
func (r *Resolver) Resolve(ownerID, key string) (string, error) {
	if err := ValidateOwnerID(ownerID); err != nil {
		return "", err
	}
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(r.root, ownerID, key), nil
}

// OwnerDir returns <root>/<ownerID>.
func (r *Resolver) OwnerDir(ownerID string) (string, error) {
	if err := ValidateOwnerID(ownerID); err != nil {
		return "", err
	}
	return filepath.Join(r.root, ownerID), nil
}

// ValidateOwnerID reports whether id is usable as a directory name.
// StagingDir is reserved.
func ValidateOwnerID(id string) error {
	if !isSafeSegment(id) || id == StagingDir {
		return fmt.Errorf("%w: %q", ErrInvalidOwner, id)
	}
	return nil
}

// ValidateKey reports whether key is usable as a file name.
func ValidateKey(key string) error {
	if !isSafeSegment(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// isSafeSegment accepts a single non-empty path element with no separators,
// NUL bytes, or ".." sequences.
func isSafeSegment(s string) bool {
	if s == "" || s == "." {
		return false
	}
	if strings.Contains(s, "..") {
		return false
	}
	return !strings.ContainsAny(s, "/\\\x00")
}
