// Package app assembles the file vault, the entitlement policy and the HTTP
// surface from configuration and runs them until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/careerdesk/internal/api"
	"github.com/dmitrymomot/careerdesk/internal/config"
	"github.com/dmitrymomot/careerdesk/internal/metrics"
	"github.com/dmitrymomot/careerdesk/pkg/feature"
	"github.com/dmitrymomot/careerdesk/pkg/health"
	"github.com/dmitrymomot/careerdesk/pkg/storage"
)

// App is a fully wired process.
type App struct {
	cfg     config.Config
	logger  *slog.Logger
	files   *storage.Manager
	policy  *feature.Policy
	server  *http.Server
	sweeper *storage.Sweeper
}

// New builds an App from cfg. Nothing is started.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	backend, checks, err := newBackend(cfg.Storage)
	if err != nil {
		return nil, err
	}

	policy, err := loadPolicy(cfg.FeaturePolicyFile)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	managerOpts := []storage.Option{
		storage.WithLogger(logger),
		storage.WithValidator(newValidator(cfg.Storage)),
		storage.WithPublicPrefix(cfg.Storage.PublicPrefix),
		storage.WithMaxConcurrentIO(cfg.Storage.MaxConcurrentIO),
	}
	if cfg.MetricsEnabled {
		m = metrics.New()
		managerOpts = append(managerOpts, storage.WithObserver(m.ObserveStorage))
	}

	files, err := storage.NewManager(backend, managerOpts...)
	if err != nil {
		return nil, err
	}

	apiOpts := []api.Option{
		api.WithLogger(logger),
		api.WithIdentity(cfg.Identity),
		api.WithHealthChecks(checks),
	}
	if m != nil {
		apiOpts = append(apiOpts, api.WithMetrics(m))
	}
	if cfg.Storage.ServeUploads {
		apiOpts = append(apiOpts, api.WithUploadServing(cfg.Storage.PublicPrefix))
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
		files:  files,
		policy: policy,
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           api.New(files, policy, apiOpts...).Handler(),
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
	}

	if local, ok := backend.(*storage.LocalBackend); ok && cfg.Storage.SweepSchedule != config.SweepDisabled {
		a.sweeper = storage.NewSweeper(local.Root(), cfg.Storage.TempTTL, logger)
	}

	return a, nil
}

func newBackend(cfg config.StorageConfig) (storage.Backend, health.Checks, error) {
	switch cfg.Backend {
	case config.BackendS3:
		b, err := storage.NewS3Backend(storage.S3Config{
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			Prefix:    cfg.S3.Prefix,
			PathStyle: cfg.S3.PathStyle,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("app: s3 backend: %w", err)
		}
		return b, health.Checks{}, nil
	default:
		b, err := storage.NewLocalBackend(cfg.Root)
		if err != nil {
			return nil, nil, fmt.Errorf("app: local backend: %w", err)
		}
		return b, health.Checks{"storage": health.DirWritable(b.Root())}, nil
	}
}

func newValidator(cfg config.StorageConfig) *storage.Validator {
	return storage.NewValidator(
		storage.WithMaxSize(cfg.MaxSize),
		storage.WithAllowedMIMETypes(cfg.AllowedMIMETypes...),
		storage.WithAllowedExtensions(cfg.AllowedExtensions...),
	)
}

func loadPolicy(path string) (*feature.Policy, error) {
	if path == "" {
		return feature.NewPolicy(feature.DefaultTable())
	}
	p, err := feature.LoadPolicy(path)
	if err != nil {
		return nil, fmt.Errorf("app: feature policy: %w", err)
	}
	return p, nil
}

// Files returns the storage manager.
func (a *App) Files() *storage.Manager {
	return a.files
}

// Policy returns the entitlement policy.
func (a *App) Policy() *feature.Policy {
	return a.policy
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run listens on the configured address and blocks until ctx is cancelled
// or the server fails.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("app: listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the HTTP server on ln and the sweeper schedule, then shuts both
// down gracefully once ctx is done.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	var sched *cron.Cron
	if a.sweeper != nil {
		sched = cron.New()
		if _, err := sched.AddFunc(a.cfg.Storage.SweepSchedule, func() { a.sweep(ctx) }); err != nil {
			ln.Close()
			return fmt.Errorf("app: sweep schedule: %w", err)
		}
		sched.Start()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.shutdown(sched)
	})

	return g.Wait()
}

func (a *App) shutdown(sched *cron.Cron) error {
	a.logger.Info("shutting down server")

	timeout := a.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("app: http shutdown: %w", err))
	}
	if sched != nil {
		select {
		case <-sched.Stop().Done():
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("app: sweeper stop: %w", ctx.Err()))
		}
	}

	if len(errs) > 0 {
		a.logger.Error("shutdown completed with errors", slog.Any("error", errors.Join(errs...)))
		return errors.Join(errs...)
	}
	a.logger.Info("shutdown completed")
	return nil
}

func (a *App) sweep(ctx context.Context) {
	n, err := a.sweeper.Sweep(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.ErrorContext(ctx, "temp sweep failed", slog.Any("error", err))
		return
	}
	if n > 0 {
		a.logger.InfoContext(ctx, "temp sweep removed files", slog.Int("count", n))
	}
}
