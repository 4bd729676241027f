package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrInvalidConfig,
		ErrUnauthenticated,
		ErrInvalidOwner,
		ErrInvalidKey,
		ErrInvalidType,
		ErrTooLarge,
		ErrNotFound,
		ErrIOFailure,
		ErrAccessDenied,
	}

	seen := make(map[string]bool)
	for _, err := range sentinels {
		msg := err.Error()
		require.False(t, seen[msg], "duplicate error message: %s", msg)
		seen[msg] = true
	}
}

func TestIOFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := ioFailure("write file", cause)

	require.ErrorIs(t, err, ErrIOFailure)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "write file")
}

// mockAPIError implements smithy.APIError for testing.
type mockAPIError struct {
	code    string
	message string
}

func (e *mockAPIError) ErrorCode() string             { return e.code }
func (e *mockAPIError) ErrorMessage() string          { return e.message }
func (e *mockAPIError) ErrorFault() smithy.ErrorFault { return smithy.FaultUnknown }
func (e *mockAPIError) Error() string                 { return fmt.Sprintf("%s: %s", e.code, e.message) }

func TestWrapS3Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"NoSuchKey code", &mockAPIError{code: "NoSuchKey"}, ErrNotFound},
		{"NotFound code", &mockAPIError{code: "NotFound"}, ErrNotFound},
		{"AccessDenied code", &mockAPIError{code: "AccessDenied"}, ErrAccessDenied},
		{"Forbidden code", &mockAPIError{code: "Forbidden"}, ErrAccessDenied},
		{"typed NoSuchKey", &types.NoSuchKey{}, ErrNotFound},
		{"typed NotFound", &types.NotFound{}, ErrNotFound},
		{"unknown code", &mockAPIError{code: "SlowDown"}, ErrIOFailure},
		{"plain error", errors.New("connection reset"), ErrIOFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, wrapS3Error(tt.err, "op"), tt.want)
		})
	}
}
