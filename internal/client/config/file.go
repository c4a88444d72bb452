package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for config files. It decodes from strings
// such as "3s" and from integer nanoseconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		return d.UnmarshalText([]byte(s))
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid duration %s", b)
	}
	d.Duration = time.Duration(n)
	return nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		d.Duration = time.Duration(n)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", n.Line)
	}
	return d.UnmarshalText([]byte(n.Value))
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type exportFile struct {
	Sink       string   `json:"sink" toml:"sink" yaml:"sink"`
	Dir        string   `json:"dir" toml:"dir" yaml:"dir"`
	Bucket     string   `json:"bucket" toml:"bucket" yaml:"bucket"`
	Prefix     string   `json:"prefix" toml:"prefix" yaml:"prefix"`
	Region     string   `json:"region" toml:"region" yaml:"region"`
	Endpoint   string   `json:"endpoint" toml:"endpoint" yaml:"endpoint"`
	AccessKey  string   `json:"access_key" toml:"access_key" yaml:"access_key"`
	SecretKey  string   `json:"secret_key" toml:"secret_key" yaml:"secret_key"`
	Recipients []string `json:"recipients" toml:"recipients" yaml:"recipients"`
}

// fileConfig is the on-disk shape. It is seeded from the current Config
// before decoding, so keys missing from the file keep their earlier value.
type fileConfig struct {
	APIBaseURL          string     `json:"api_base_url" toml:"api_base_url" yaml:"api_base_url"`
	RequestTimeout      Duration   `json:"request_timeout" toml:"request_timeout" yaml:"request_timeout"`
	APIToken            string     `json:"api_token" toml:"api_token" yaml:"api_token"`
	JWTSecret           string     `json:"jwt_secret" toml:"jwt_secret" yaml:"jwt_secret"`
	JWTSubject          string     `json:"jwt_subject" toml:"jwt_subject" yaml:"jwt_subject"`
	JWTTTL              Duration   `json:"jwt_ttl" toml:"jwt_ttl" yaml:"jwt_ttl"`
	HealthAddr          string     `json:"health_addr" toml:"health_addr" yaml:"health_addr"`
	HealthService       string     `json:"health_service" toml:"health_service" yaml:"health_service"`
	OnlineCheckInterval Duration   `json:"online_check_interval" toml:"online_check_interval" yaml:"online_check_interval"`
	ReportsDelay        Duration   `json:"reports_delay" toml:"reports_delay" yaml:"reports_delay"`
	ValidateSchemas     bool       `json:"validate_schemas" toml:"validate_schemas" yaml:"validate_schemas"`
	CanvasWidth         int        `json:"canvas_width" toml:"canvas_width" yaml:"canvas_width"`
	CanvasHeight        int        `json:"canvas_height" toml:"canvas_height" yaml:"canvas_height"`
	JournalDriver       string     `json:"journal_driver" toml:"journal_driver" yaml:"journal_driver"`
	JournalDSN          string     `json:"journal_dsn" toml:"journal_dsn" yaml:"journal_dsn"`
	Export              exportFile `json:"export" toml:"export" yaml:"export"`
	LogFile             string     `json:"log_file" toml:"log_file" yaml:"log_file"`
	LogLevel            string     `json:"log_level" toml:"log_level" yaml:"log_level"`
	LogFormat           string     `json:"log_format" toml:"log_format" yaml:"log_format"`
}

func toFile(c *Config) fileConfig {
	return fileConfig{
		APIBaseURL:          c.APIBaseURL,
		RequestTimeout:      Duration{c.RequestTimeout},
		APIToken:            c.APIToken,
		JWTSecret:           c.JWTSecret,
		JWTSubject:          c.JWTSubject,
		JWTTTL:              Duration{c.JWTTTL},
		HealthAddr:          c.HealthAddr,
		HealthService:       c.HealthService,
		OnlineCheckInterval: Duration{c.OnlineCheckInterval},
		ReportsDelay:        Duration{c.ReportsDelay},
		ValidateSchemas:     c.ValidateSchemas,
		CanvasWidth:         c.CanvasWidth,
		CanvasHeight:        c.CanvasHeight,
		JournalDriver:       c.JournalDriver,
		JournalDSN:          c.JournalDSN,
		Export:              exportFile(c.Export),
		LogFile:             c.LogFile,
		LogLevel:            c.LogLevel,
		LogFormat:           c.LogFormat,
	}
}

func (f fileConfig) apply(c *Config) {
	c.APIBaseURL = f.APIBaseURL
	c.RequestTimeout = f.RequestTimeout.Duration
	c.APIToken = f.APIToken
	c.JWTSecret = f.JWTSecret
	c.JWTSubject = f.JWTSubject
	c.JWTTTL = f.JWTTTL.Duration
	c.HealthAddr = f.HealthAddr
	c.HealthService = f.HealthService
	c.OnlineCheckInterval = f.OnlineCheckInterval.Duration
	c.ReportsDelay = f.ReportsDelay.Duration
	c.ValidateSchemas = f.ValidateSchemas
	c.CanvasWidth = f.CanvasWidth
	c.CanvasHeight = f.CanvasHeight
	c.JournalDriver = f.JournalDriver
	c.JournalDSN = f.JournalDSN
	c.Export = ExportConfig(f.Export)
	c.LogFile = f.LogFile
	c.LogLevel = f.LogLevel
	c.LogFormat = f.LogFormat
}

// loadFile overlays c with the file at path. The format follows the
// extension: .json, .jsonc, .toml, .yaml or .yml.
func loadFile(c *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	fc := toFile(c)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json", ".jsonc":
		err = json.Unmarshal(jsonc.ToJSON(data), &fc)
	case ".toml":
		_, err = toml.Decode(string(data), &fc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		return fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	fc.apply(c)
	return nil
}
