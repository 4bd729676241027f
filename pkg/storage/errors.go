package storage

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Sentinel errors for storage operations.
var (
	// Configuration errors.
	ErrInvalidConfig = errors.New("storage: invalid configuration")

	// Identity and addressing errors.
	ErrUnauthenticated = errors.New("storage: caller identity is missing")
	ErrInvalidOwner    = errors.New("storage: invalid owner id")
	ErrInvalidKey      = errors.New("storage: invalid storage key")

	// Validation errors. Returned wrapped in *FileValidationError.
	ErrInvalidType = errors.New("storage: file type not allowed")
	ErrTooLarge    = errors.New("storage: file exceeds size limit")

	// Backend errors.
	ErrNotFound     = errors.New("storage: file not found")
	ErrIOFailure    = errors.New("storage: i/o failure")
	ErrAccessDenied = errors.New("storage: access denied")
)

// ioFailure wraps a filesystem or network error with ErrIOFailure.
// The cause stays reachable through errors.Is/As.
func ioFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIOFailure, op, err)
}

// wrapS3Error maps S3 errors onto the package sentinels.
// It checks both API error codes and typed errors.
// Uses %v for the original error so callers match on sentinels with errors.Is,
// not on AWS types with errors.As.
func wrapS3Error(err error, op string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %s: %v", ErrAccessDenied, op, err)
		}
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	return fmt.Errorf("%w: %s: %v", ErrIOFailure, op, err)
}
