// Package api exposes the file vault and entitlement checks over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/careerdesk/internal/identity"
	"github.com/dmitrymomot/careerdesk/internal/metrics"
	"github.com/dmitrymomot/careerdesk/pkg/feature"
	"github.com/dmitrymomot/careerdesk/pkg/health"
	"github.com/dmitrymomot/careerdesk/pkg/storage"
)

// Server holds the dependencies shared by all handlers.
type Server struct {
	files    *storage.Manager
	policy   *feature.Policy
	logger   *slog.Logger
	metrics  *metrics.Metrics
	identity identity.Config
	checks   health.Checks

	uploadsPrefix string
	serveUploads  bool

	featureRoutes []featureRoute
}

// featureRoute is a handler mounted behind a feature guard.
type featureRoute struct {
	handler http.Handler
	pattern string
	feature feature.Feature
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics enables request metrics and mounts /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithIdentity overrides the trusted identity header names.
func WithIdentity(cfg identity.Config) Option {
	return func(s *Server) {
		s.identity = cfg
	}
}

// WithHealthChecks sets the checks run by /health/ready.
func WithHealthChecks(checks health.Checks) Option {
	return func(s *Server) {
		s.checks = checks
	}
}

// WithUploadServing mounts GET <prefix>/{owner}/{key}. Only path prefixes
// are mounted; a URL prefix pointing at a CDN is ignored.
func WithUploadServing(prefix string) Option {
	return func(s *Server) {
		prefix = "/" + strings.Trim(prefix, "/")
		if prefix != "/" {
			s.uploadsPrefix = prefix
			s.serveUploads = true
		}
	}
}

// WithFeatureRoute mounts h at pattern behind RequireFeature(f). The route
// sees the caller identity and tier like every other authenticated route.
func WithFeatureRoute(pattern string, f feature.Feature, h http.Handler) Option {
	return func(s *Server) {
		s.featureRoutes = append(s.featureRoutes, featureRoute{pattern: pattern, feature: f, handler: h})
	}
}

// New creates a Server.
func New(files *storage.Manager, policy *feature.Policy, opts ...Option) *Server {
	s := &Server{
		files:  files,
		policy: policy,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(s.requestLogger)
	r.Use(s.recoverer)

	r.NotFound(s.handle(func(http.ResponseWriter, *http.Request) error {
		return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
	}))
	r.MethodNotAllowed(s.handle(func(http.ResponseWriter, *http.Request) error {
		return NewHTTPError(http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	}))

	r.Get("/health/live", health.LivenessHandler())
	r.Get("/health/ready", health.ReadinessHandler(s.checks, health.WithLogger(s.logger)))
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	if s.serveUploads {
		r.Get(s.uploadsPrefix+"/{owner}/{key}", s.handle(s.serveUpload))
	}

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(s.identity))

		r.Post("/files", s.handle(s.uploadFile))
		r.Route("/files/{key}", func(r chi.Router) {
			r.Head("/", s.handle(s.headFile))
			r.Get("/", s.handle(s.getFile))
			r.Delete("/", s.handle(s.deleteFile))
			r.Get("/url", s.handle(s.fileURL))
		})

		r.Get("/features", s.handle(s.listFeatures))
		r.Get("/features/{feature}", s.handle(s.checkFeature))

		for _, fr := range s.featureRoutes {
			r.With(s.RequireFeature(fr.feature)).Mount(fr.pattern, fr.handler)
		}
	})

	return r
}

// handlerFunc is an http handler that reports failure by returning an error.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Server) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.writeError(w, r, err)
		}
	}
}

// canAccess consults the policy and records the decision. Tiers the policy
// does not know are labelled "other" to bound metric cardinality.
func (s *Server) canAccess(f feature.Feature, t feature.Tier) bool {
	allowed := s.policy.CanAccess(f, t)
	if s.metrics != nil {
		label := "other"
		if s.policy.KnownTier(t) {
			label = t.String()
		}
		s.metrics.ObserveFeatureCheck(f.String(), label, allowed)
	}
	return allowed
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.DebugContext(r.Context(), "failed to write response body",
			slog.Int("status", status),
			slog.Any("error", err),
		)
	}
}
