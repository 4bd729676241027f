package health

import "errors"

var (
	// ErrCheckFailed wraps failures reported by the built-in checks.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout is reported for a check still running when the probe
	// timeout expires.
	ErrCheckTimeout = errors.New("health: check timed out")
)
