package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/leadconsole/internal/logging"
)

// EnvConfigPath names the environment variable consulted when no --config
// flag was given.
const EnvConfigPath = "LEADCONSOLE_CONFIG"

const (
	SinkDir = "dir"
	SinkS3  = "s3"
)

// ExportConfig selects where snapshot exports are written.
type ExportConfig struct {
	Sink       string
	Dir        string
	Bucket     string
	Prefix     string
	Region     string
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Recipients []string
}

// Config holds runtime settings for the lead console.
//
// Durations are time.Duration; the file loaders accept "3s" style strings
// or integer nanoseconds.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration

	// APIToken is sent as-is when set. Otherwise a token is minted from
	// JWTSecret, when that is set.
	APIToken   string
	JWTSecret  string
	JWTSubject string
	JWTTTL     time.Duration

	// HealthAddr is a gRPC health endpoint. When empty the online watcher
	// probes the HTTP API instead.
	HealthAddr          string
	HealthService       string
	OnlineCheckInterval time.Duration

	ReportsDelay    time.Duration
	ValidateSchemas bool

	CanvasWidth  int
	CanvasHeight int

	JournalDriver string
	JournalDSN    string

	Export ExportConfig

	LogFile   string
	LogLevel  string
	LogFormat string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8000/api"
	c.RequestTimeout = 15 * time.Second
	c.JWTSubject = "operator"
	c.JWTTTL = time.Hour
	c.OnlineCheckInterval = 3 * time.Second
	c.ReportsDelay = 2 * time.Second
	c.ValidateSchemas = true
	c.CanvasWidth = 800
	c.CanvasHeight = 600
	c.JournalDriver = "sqlite"
	c.JournalDSN = "leadconsole-journal.db"
	c.Export = ExportConfig{Sink: SinkDir, Dir: "exports"}
	c.LogFile = "leadconsole.log"
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Defaults returns a Config with LoadDefaults applied.
func Defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api_base_url %q is not an absolute URL", c.APIBaseURL))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if c.OnlineCheckInterval <= 0 {
		errs = append(errs, errors.New("online_check_interval must be positive"))
	}
	if c.ReportsDelay < 0 {
		errs = append(errs, errors.New("reports_delay must not be negative"))
	}
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		errs = append(errs, fmt.Errorf("canvas size %dx%d must be positive", c.CanvasWidth, c.CanvasHeight))
	}
	switch c.Export.Sink {
	case SinkDir:
		if c.Export.Dir == "" {
			errs = append(errs, errors.New("export.dir is required for the dir sink"))
		}
	case SinkS3:
		if c.Export.Bucket == "" {
			errs = append(errs, errors.New("export.bucket is required for the s3 sink"))
		}
	default:
		errs = append(errs, fmt.Errorf("export.sink %q must be %q or %q", c.Export.Sink, SinkDir, SinkS3))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format %q must be text or json", c.LogFormat))
	}

	return errors.Join(errs...)
}
