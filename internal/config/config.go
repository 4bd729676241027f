// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/careerdesk/internal/identity"
	"github.com/dmitrymomot/careerdesk/pkg/logger"
)

// Storage backends.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// SweepDisabled as STORAGE_SWEEP_SCHEDULE turns the temp-file sweeper off.
const SweepDisabled = "off"

// ErrInvalid is returned for configuration that parses but cannot be used.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the full process configuration.
type Config struct {
	Addr              string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// FeaturePolicyFile points at a YAML entitlement table. Empty uses the
	// built-in default table.
	FeaturePolicyFile string `env:"FEATURE_POLICY_FILE"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	Log      logger.Config
	Identity identity.Config
	Storage  StorageConfig
}

// StorageConfig configures the file vault.
type StorageConfig struct {
	Backend string `env:"STORAGE_BACKEND" envDefault:"local"`

	// Root is the base directory for the local backend, created at startup.
	Root string `env:"STORAGE_ROOT" envDefault:"./uploads"`

	PublicPrefix string `env:"STORAGE_PUBLIC_PREFIX" envDefault:"/uploads"`

	// ServeUploads mounts GET <PublicPrefix>/{owner}/{key} for the local backend.
	ServeUploads bool `env:"STORAGE_SERVE_UPLOADS" envDefault:"false"`

	MaxSize           int64    `env:"UPLOAD_MAX_SIZE" envDefault:"5242880"`
	AllowedMIMETypes  []string `env:"UPLOAD_ALLOWED_MIME_TYPES" envSeparator:","`
	AllowedExtensions []string `env:"UPLOAD_ALLOWED_EXTENSIONS" envSeparator:","`

	MaxConcurrentIO int `env:"STORAGE_MAX_CONCURRENT_IO" envDefault:"32"`

	// SweepSchedule is a cron spec for removing abandoned temp files.
	// SweepDisabled turns the sweeper off.
	SweepSchedule string        `env:"STORAGE_SWEEP_SCHEDULE" envDefault:"@every 15m"`
	TempTTL       time.Duration `env:"STORAGE_TEMP_TTL" envDefault:"1h"`

	S3 S3Config
}

// S3Config configures the S3 backend.
type S3Config struct {
	Bucket    string `env:"S3_BUCKET"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	Endpoint  string `env:"S3_ENDPOINT"`
	Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	Prefix    string `env:"S3_PREFIX"`
	PathStyle bool   `env:"S3_PATH_STYLE" envDefault:"false"`
}

// Load reads .env from the working directory when present, then parses and
// validates the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	return Parse(env.ToMap(os.Environ()))
}

// Parse builds a Config from an explicit environment map.
func Parse(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c Config) Validate() error {
	var errs []error

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	s := c.Storage
	switch s.Backend {
	case BackendLocal:
		if s.Root == "" {
			errs = append(errs, fmt.Errorf("%w: STORAGE_ROOT is required for the local backend", ErrInvalid))
		}
	case BackendS3:
		if s.S3.Bucket == "" || s.S3.AccessKey == "" || s.S3.SecretKey == "" {
			errs = append(errs, fmt.Errorf("%w: S3_BUCKET, S3_ACCESS_KEY and S3_SECRET_KEY are required for the s3 backend", ErrInvalid))
		}
		if s.ServeUploads {
			errs = append(errs, fmt.Errorf("%w: STORAGE_SERVE_UPLOADS needs the local backend", ErrInvalid))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown STORAGE_BACKEND %q", ErrInvalid, s.Backend))
	}

	if s.MaxSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: UPLOAD_MAX_SIZE must be positive", ErrInvalid))
	}
	if s.MaxConcurrentIO <= 0 {
		errs = append(errs, fmt.Errorf("%w: STORAGE_MAX_CONCURRENT_IO must be positive", ErrInvalid))
	}
	if s.SweepSchedule != SweepDisabled {
		if _, err := cron.ParseStandard(s.SweepSchedule); err != nil {
			errs = append(errs, fmt.Errorf("%w: STORAGE_SWEEP_SCHEDULE: %v", ErrInvalid, err))
		}
	}

	return errors.Join(errs...)
}
