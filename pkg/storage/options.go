package storage

import "log/slog"

// Option configures a Manager.
type Option func(*Manager)

// DefaultPublicPrefix is the URL prefix public file references are built on.
const DefaultPublicPrefix = "/uploads"

// DefaultMaxConcurrentIO bounds simultaneous backend operations.
const DefaultMaxConcurrentIO = 32

// WithValidator replaces the default upload validator.
func WithValidator(v *Validator) Option {
	return func(m *Manager) {
		if v != nil {
			m.validator = v
		}
	}
}

// WithPublicPrefix sets the prefix used by URL.
// Example: WithPublicPrefix("https://cdn.example.com/uploads")
func WithPublicPrefix(prefix string) Option {
	return func(m *Manager) {
		if prefix != "" {
			m.publicPrefix = prefix
		}
	}
}

// WithMaxConcurrentIO caps how many backend operations may run at once.
// Callers beyond the cap wait, honoring their context.
func WithMaxConcurrentIO(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxConcurrentIO = n
		}
	}
}

// WithLogger sets the logger for operation logging.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithObserver registers a hook that receives every operation outcome.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		m.observer = o
	}
}

// WithDisplayName sets how the caller's filename is turned into the recorded
// OriginalName. Validation and the stored extension always use the raw name.
// Default: sanitizer.DisplayName.
func WithDisplayName(fn func(string) string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.displayName = fn
		}
	}
}
