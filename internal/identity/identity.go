// Package identity carries the caller's owner id and subscription tier from
// trusted upstream headers into the request context.
package identity

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrymomot/careerdesk/pkg/feature"
	"github.com/dmitrymomot/careerdesk/pkg/logger"
)

// Default trusted header names.
const (
	DefaultUserHeader = "X-User-ID"
	DefaultTierHeader = "X-Subscription-Tier"
)

type ownerIDKey struct{}
type tierKey struct{}

// Config names the headers the identity provider sets.
type Config struct {
	UserHeader string `env:"USER_HEADER" envDefault:"X-User-ID"`
	TierHeader string `env:"TIER_HEADER" envDefault:"X-Subscription-Tier"`
}

// Middleware copies identity headers into the context. It never rejects a
// request: handlers that need an owner fail with 401 on their own, and a
// missing or empty tier means free.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	userHeader := cfg.UserHeader
	if userHeader == "" {
		userHeader = DefaultUserHeader
	}
	tierHeader := cfg.TierHeader
	if tierHeader == "" {
		tierHeader = DefaultTierHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if id := strings.TrimSpace(r.Header.Get(userHeader)); id != "" {
				ctx = WithOwnerID(ctx, id)
			}
			if t, err := feature.ParseTier(r.Header.Get(tierHeader)); err == nil {
				ctx = WithTier(ctx, t)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithOwnerID returns a context carrying the owner id.
func WithOwnerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ownerIDKey{}, id)
}

// OwnerID returns the caller's owner id, if any.
func OwnerID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ownerIDKey{}).(string)
	return id, ok && id != ""
}

// WithTier returns a context carrying the subscription tier.
func WithTier(ctx context.Context, t feature.Tier) context.Context {
	return context.WithValue(ctx, tierKey{}, t)
}

// Tier returns the caller's tier, defaulting to free.
func Tier(ctx context.Context) feature.Tier {
	if t, ok := ctx.Value(tierKey{}).(feature.Tier); ok && t != "" {
		return t
	}
	return feature.TierFree
}

// LogExtractor adds owner_id to log records.
func LogExtractor() logger.ContextExtractor {
	return logger.StringExtractor("owner_id", OwnerID)
}
