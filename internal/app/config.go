package app

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/synapse-directory/synapse/internal/directory"
	"github.com/synapse-directory/synapse/internal/platform/cache"
)

const (
	defaultListURL     = "https://ybsmlyja21.execute-api.ap-south-1.amazonaws.com/project_synapse/PS_VIEW"
	defaultCreateURL   = "https://mxfqlwa1ek.execute-api.ap-south-1.amazonaws.com/project_synapse/PS_INSERT"
	defaultUpdateURL   = "https://hzz9hr3re8.execute-api.ap-south-1.amazonaws.com/project_synapse/PS_UPDATE"
	defaultApprovalURL = "https://0wmmfash48.execute-api.ap-south-1.amazonaws.com/project_synapse/PS_Validation"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	DirectoryListURL     string        `envconfig:"DIRECTORY_LIST_URL"`
	DirectoryCreateURL   string        `envconfig:"DIRECTORY_CREATE_URL"`
	DirectoryUpdateURL   string        `envconfig:"DIRECTORY_UPDATE_URL"`
	DirectoryApprovalURL string        `envconfig:"DIRECTORY_APPROVAL_URL"`
	DirectoryTimeout     time.Duration `envconfig:"DIRECTORY_TIMEOUT" default:"15s"`

	ApprovalRefreshDelay time.Duration `envconfig:"APPROVAL_REFRESH_DELAY" default:"1s"`
	GuardTTL             time.Duration `envconfig:"GUARD_TTL" default:"30s"`

	GoogleMapsAPIKey string `envconfig:"GOOGLE_MAPS_API_KEY"`

	// Empty disables the decision history.
	PGDSN      string `envconfig:"PG_DSN"`
	PGMaxConns int32  `envconfig:"PG_MAX_CONNS" default:"4"`

	WorkerConcurrency int    `envconfig:"WORKER_CONCURRENCY" default:"4"`
	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`
	CensusSchedule    string `envconfig:"CENSUS_SCHEDULE" default:"@every 15m"`
}

// LoadConfig reads configuration from the environment, after loading a
// .env file from the working directory when one exists.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must be provided")
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if cfg.ApprovalRefreshDelay < 0 {
		return nil, errors.New("approval refresh delay must not be negative")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// DirectoryEndpoints returns the Directory API URLs, falling back to the
// hosted deployment for any that are unset.
func (c *Config) DirectoryEndpoints() directory.Endpoints {
	return directory.Endpoints{
		List:     orDefault(c.DirectoryListURL, defaultListURL),
		Create:   orDefault(c.DirectoryCreateURL, defaultCreateURL),
		Update:   orDefault(c.DirectoryUpdateURL, defaultUpdateURL),
		Approval: orDefault(c.DirectoryApprovalURL, defaultApprovalURL),
	}
}

// RedisOptions returns the connection settings shared by sessions, guards
// and the job queue.
func (c *Config) RedisOptions() cache.Options {
	return cache.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// HistoryEnabled reports whether decisions are stored in Postgres.
func (c *Config) HistoryEnabled() bool {
	return c != nil && c.PGDSN != ""
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
