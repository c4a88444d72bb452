package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8000/api", c.APIBaseURL)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, 2*time.Second, c.ReportsDelay)
	assert.True(t, c.ValidateSchemas)
	assert.Equal(t, SinkDir, c.Export.Sink)
	require.NoError(t, c.Validate())
}

func TestLoad_NoSources(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(Defaults(), cfg))
}

func TestLoad_FileFormats(t *testing.T) {
	want := Defaults()
	want.APIBaseURL = "https://leads.example.com/api"
	want.OnlineCheckInterval = 10 * time.Second
	want.ReportsDelay = 1500 * time.Millisecond
	want.Export.Sink = SinkS3
	want.Export.Bucket = "console-exports"

	tests := []struct {
		name string
		file string
		body string
	}{
		{name: "json", file: "c.json", body: `{
			"api_base_url": "https://leads.example.com/api",
			"online_check_interval": "10s",
			"reports_delay": 1500000000,
			"export": {"sink": "s3", "bucket": "console-exports", "dir": "exports"}
		}`},
		{name: "jsonc", file: "c.jsonc", body: `{
			// production API
			"api_base_url": "https://leads.example.com/api",
			"online_check_interval": "10s", /* slower */
			"reports_delay": "1.5s",
			"export": {"sink": "s3", "bucket": "console-exports", "dir": "exports",},
		}`},
		{name: "toml", file: "c.toml", body: `
api_base_url = "https://leads.example.com/api"
online_check_interval = "10s"
reports_delay = 1500000000

[export]
sink = "s3"
bucket = "console-exports"
dir = "exports"
`},
		{name: "yaml", file: "c.yaml", body: `
api_base_url: https://leads.example.com/api
online_check_interval: 10s
reports_delay: 1.5s
export:
  sink: s3
  bucket: console-exports
  dir: exports
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, tt.file, tt.body)
			cfg, err := Load(path, nil)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(want, cfg))
		})
	}
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := writeTemp(t, "c.yaml", "api_base_url: https://file.example/api\nlog_level: warn\ncanvas_width: 1024\n")
	fs := newFlags(t,
		"-c", path,
		"--api-url", "https://flag.example/api",
		"-i", "5s",
		"--canvas-height", "700",
		"--validate-schemas=false",
		"--age-recipient", "age1a", "--age-recipient", "age1b",
	)

	cfg, err := Load("", fs)
	require.NoError(t, err)

	assert.Equal(t, "https://flag.example/api", cfg.APIBaseURL)
	assert.Equal(t, "warn", cfg.LogLevel, "unset flag must not clobber the file")
	assert.Equal(t, 1024, cfg.CanvasWidth)
	assert.Equal(t, 700, cfg.CanvasHeight)
	assert.Equal(t, 5*time.Second, cfg.OnlineCheckInterval)
	assert.False(t, cfg.ValidateSchemas)
	assert.Equal(t, []string{"age1a", "age1b"}, cfg.Export.Recipients)
}

func TestLoad_EnvPath(t *testing.T) {
	path := writeTemp(t, "c.json", `{"journal_driver": "postgres", "journal_dsn": "postgres://u@db/console"}`)
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("", newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.JournalDriver)
	assert.Equal(t, "postgres://u@db/console", cfg.JournalDSN)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv(EnvConfigPath, "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)

	_, err = Load(writeTemp(t, "c.ini", "x=1"), nil)
	assert.ErrorContains(t, err, "unsupported extension")

	_, err = Load(writeTemp(t, "c.json", `{"reports_delay": "soon"}`), nil)
	assert.ErrorContains(t, err, "invalid duration")

	_, err = Load("", newFlags(t, "--export-sink", "ftp", "--log-level", "loud"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "export.sink")
	assert.ErrorContains(t, err, "loud")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"relative url", func(c *Config) { c.APIBaseURL = "/api" }, "absolute URL"},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, "request_timeout"},
		{"zero interval", func(c *Config) { c.OnlineCheckInterval = 0 }, "online_check_interval"},
		{"negative delay", func(c *Config) { c.ReportsDelay = -time.Second }, "reports_delay"},
		{"canvas", func(c *Config) { c.CanvasWidth = 0 }, "canvas size"},
		{"s3 bucket", func(c *Config) { c.Export.Sink = SinkS3 }, "export.bucket"},
		{"dir", func(c *Config) { c.Export.Dir = "" }, "export.dir"},
		{"format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Defaults()
			tt.mutate(c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}
}

func TestDuration_Unmarshal(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"250ms"`)))
	assert.Equal(t, 250*time.Millisecond, d.Duration)

	require.NoError(t, d.UnmarshalJSON([]byte(`42`)))
	assert.Equal(t, time.Duration(42), d.Duration)

	require.NoError(t, d.UnmarshalText([]byte(" 3s ")))
	assert.Equal(t, 3*time.Second, d.Duration)

	assert.Error(t, d.UnmarshalJSON([]byte(`true`)))

	b, err := Duration{90 * time.Second}.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(b))
}
