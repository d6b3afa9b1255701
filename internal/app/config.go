package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/lumethik/tablero/internal/dashboard"
)

// Development defaults for the secrets. Production refuses to start with them.
const (
	devSessionSecret = "tablero-dev-session-secret"
	devCSRFSecret    = "tablero-dev-csrf-secret"
)

// Direction data sources.
const (
	SourceFixed    = "fixed"
	SourcePostgres = "postgres"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8050"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`
	AppFetchTimeout   time.Duration `envconfig:"APP_FETCH_TIMEOUT" default:"2s"`
	AppDebug          bool          `envconfig:"APP_DEBUG" default:"false"`
	AppTemplatesDir   string        `envconfig:"APP_TEMPLATES_DIR" default:"web"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	ValidUsername     string `envconfig:"VALID_USERNAME" default:"lumethik"`
	ValidPassword     string `envconfig:"VALID_PASSWORD" default:"2025"`
	ValidPasswordHash string `envconfig:"VALID_PASSWORD_HASH"`

	SessionSecret string        `envconfig:"SESSION_SECRET" default:"tablero-dev-session-secret"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	CSRFSecret    string        `envconfig:"CSRF_SECRET" default:"tablero-dev-csrf-secret"`

	RedisAddr string        `envconfig:"REDIS_ADDR"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"10m"`

	PGDSN string `envconfig:"PG_DSN"`

	DirectionSource string `envconfig:"DIRECTION_SOURCE" default:"fixed"`
	IndicatorSeed   int64  `envconfig:"INDICATOR_SEED" default:"0"`
	SectionSeed     int64  `envconfig:"SECTION_SEED" default:"42"`

	SheetID         string        `envconfig:"SHEET_ID"`
	SheetFile       string        `envconfig:"SHEET_FILE"`
	SheetWorksheet  string        `envconfig:"SHEET_WORKSHEET" default:"dataset_limpio"`
	SheetFormat     string        `envconfig:"SHEET_FORMAT" default:"csv"`
	SheetHistogramX string        `envconfig:"SHEET_HISTOGRAM_X" default:"Natural_Gas_Price"`
	SheetHistogramY string        `envconfig:"SHEET_HISTOGRAM_Y" default:"Crude_oil_Price"`
	SheetBins       int           `envconfig:"SHEET_BINS" default:"10"`
	SheetRefresh    time.Duration `envconfig:"SHEET_REFRESH" default:"5m"`

	RouteFallback string `envconfig:"ROUTE_FALLBACK" default:"home"`

	GotenbergURL string `envconfig:"GOTENBERG_URL"`

	WorkerConcurrency int    `envconfig:"WORKER_CONCURRENCY" default:"4"`
	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	if c.IsProduction() {
		if c.SessionSecret == "" || c.SessionSecret == devSessionSecret {
			errs = append(errs, errors.New("session secret must be provided"))
		}
		if c.CSRFSecret == "" || c.CSRFSecret == devCSRFSecret {
			errs = append(errs, errors.New("csrf secret must be provided"))
		}
	}
	if c.ValidUsername == "" {
		errs = append(errs, errors.New("valid username must be provided"))
	}
	if c.ValidPassword == "" && c.ValidPasswordHash == "" {
		errs = append(errs, errors.New("valid password or password hash must be provided"))
	}
	switch c.DirectionSource {
	case SourceFixed:
	case SourcePostgres:
		if c.PGDSN == "" {
			errs = append(errs, errors.New("PG_DSN is required when DIRECTION_SOURCE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown direction source %q", c.DirectionSource))
	}
	switch strings.ToLower(c.SheetFormat) {
	case "csv", "xlsx":
	default:
		errs = append(errs, fmt.Errorf("unknown sheet format %q", c.SheetFormat))
	}
	if _, err := dashboard.ParseFallback(c.RouteFallback); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// Fallback returns the parsed unknown-route policy.
func (c *Config) Fallback() dashboard.Fallback {
	fallback, _ := dashboard.ParseFallback(c.RouteFallback)
	return fallback
}

// SheetConfigured reports whether a spreadsheet source is set.
func (c *Config) SheetConfigured() bool {
	return c.SheetID != "" || c.SheetFile != ""
}
