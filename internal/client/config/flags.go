package config

import (
	"os"
	"time"

	"github.com/spf13/pflag"
)

// Flag names shared by BindFlags and applyFlags.
const (
	FlagConfig          = "config"
	flagAPIURL          = "api-url"
	flagTimeout         = "timeout"
	flagToken           = "token"
	flagJWTSecret       = "jwt-secret"
	flagJWTSubject      = "jwt-subject"
	flagJWTTTL          = "jwt-ttl"
	flagHealthAddr      = "health-addr"
	flagHealthService   = "health-service"
	flagOnlineInterval  = "online-interval"
	flagReportsDelay    = "reports-delay"
	flagValidateSchemas = "validate-schemas"
	flagCanvasWidth     = "canvas-width"
	flagCanvasHeight    = "canvas-height"
	flagJournalDriver   = "journal-driver"
	flagJournalDSN      = "journal-dsn"
	flagExportSink      = "export-sink"
	flagExportDir       = "export-dir"
	flagS3Bucket        = "s3-bucket"
	flagS3Prefix        = "s3-prefix"
	flagS3Region        = "s3-region"
	flagS3Endpoint      = "s3-endpoint"
	flagS3AccessKey     = "s3-access-key"
	flagS3SecretKey     = "s3-secret-key"
	flagAgeRecipient    = "age-recipient"
	flagLogFile         = "log-file"
	flagLogLevel        = "log-level"
	flagLogFormat       = "log-format"
)

// BindFlags registers every config flag on fs. Defaults shown in help come
// from LoadDefaults; a flag only overrides the file when it was set.
func BindFlags(fs *pflag.FlagSet) {
	d := Defaults()

	fs.StringP(FlagConfig, "c", "", "path to a .json, .jsonc, .toml or .yaml config file (env "+EnvConfigPath+")")
	fs.StringP(flagAPIURL, "a", d.APIBaseURL, "base URL of the lead-gen API")
	fs.Duration(flagTimeout, d.RequestTimeout, "per-request timeout")
	fs.String(flagToken, "", "static bearer token")
	fs.String(flagJWTSecret, "", "HS256 secret used to mint bearer tokens")
	fs.String(flagJWTSubject, d.JWTSubject, "subject of minted tokens")
	fs.Duration(flagJWTTTL, d.JWTTTL, "lifetime of minted tokens")
	fs.String(flagHealthAddr, "", "gRPC health endpoint (host:port); empty probes the HTTP API")
	fs.String(flagHealthService, "", "service name sent to the gRPC health check")
	fs.DurationP(flagOnlineInterval, "i", d.OnlineCheckInterval, "online status check interval")
	fs.Duration(flagReportsDelay, d.ReportsDelay, "delay before re-fetching reports after a generation job is accepted")
	fs.Bool(flagValidateSchemas, d.ValidateSchemas, "validate fetched snapshots against JSON schemas")
	fs.Int(flagCanvasWidth, d.CanvasWidth, "board canvas width")
	fs.Int(flagCanvasHeight, d.CanvasHeight, "board canvas height")
	fs.String(flagJournalDriver, d.JournalDriver, "mutation journal driver (sqlite or postgres)")
	fs.String(flagJournalDSN, d.JournalDSN, "mutation journal DSN")
	fs.String(flagExportSink, d.Export.Sink, "export sink (dir or s3)")
	fs.String(flagExportDir, d.Export.Dir, "directory for the dir export sink")
	fs.String(flagS3Bucket, "", "bucket for the s3 export sink")
	fs.String(flagS3Prefix, "", "key prefix for the s3 export sink")
	fs.String(flagS3Region, "", "region for the s3 export sink")
	fs.String(flagS3Endpoint, "", "endpoint override for S3-compatible stores")
	fs.String(flagS3AccessKey, "", "static access key for the s3 export sink")
	fs.String(flagS3SecretKey, "", "static secret key for the s3 export sink")
	fs.StringSlice(flagAgeRecipient, nil, "age recipient to encrypt exports to (repeatable)")
	fs.String(flagLogFile, d.LogFile, "log file; '-' logs to stderr")
	fs.String(flagLogLevel, d.LogLevel, "log level (debug, info, warn, error)")
	fs.String(flagLogFormat, d.LogFormat, "log format (text or json)")
}

// applyFlags copies flags the operator set onto c. Flags that were not
// registered on fs are ignored.
func applyFlags(c *Config, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	str := func(name string, dst *string) {
		if fs.Changed(name) {
			v, err := fs.GetString(name)
			if err != nil {
				keep(err)
				return
			}
			*dst = v
		}
	}
	str(flagAPIURL, &c.APIBaseURL)
	str(flagToken, &c.APIToken)
	str(flagJWTSecret, &c.JWTSecret)
	str(flagJWTSubject, &c.JWTSubject)
	str(flagHealthAddr, &c.HealthAddr)
	str(flagHealthService, &c.HealthService)
	str(flagJournalDriver, &c.JournalDriver)
	str(flagJournalDSN, &c.JournalDSN)
	str(flagExportSink, &c.Export.Sink)
	str(flagExportDir, &c.Export.Dir)
	str(flagS3Bucket, &c.Export.Bucket)
	str(flagS3Prefix, &c.Export.Prefix)
	str(flagS3Region, &c.Export.Region)
	str(flagS3Endpoint, &c.Export.Endpoint)
	str(flagS3AccessKey, &c.Export.AccessKey)
	str(flagS3SecretKey, &c.Export.SecretKey)
	str(flagLogFile, &c.LogFile)
	str(flagLogLevel, &c.LogLevel)
	str(flagLogFormat, &c.LogFormat)

	for name, dst := range map[string]*time.Duration{
		flagTimeout:        &c.RequestTimeout,
		flagJWTTTL:         &c.JWTTTL,
		flagOnlineInterval: &c.OnlineCheckInterval,
		flagReportsDelay:   &c.ReportsDelay,
	} {
		if fs.Changed(name) {
			v, err := fs.GetDuration(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}

	for name, dst := range map[string]*int{
		flagCanvasWidth:  &c.CanvasWidth,
		flagCanvasHeight: &c.CanvasHeight,
	} {
		if fs.Changed(name) {
			v, err := fs.GetInt(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}

	if fs.Changed(flagValidateSchemas) {
		v, err := fs.GetBool(flagValidateSchemas)
		if err != nil {
			return err
		}
		c.ValidateSchemas = v
	}
	if fs.Changed(flagAgeRecipient) {
		v, err := fs.GetStringSlice(flagAgeRecipient)
		if err != nil {
			return err
		}
		c.Export.Recipients = v
	}

	return firstErr
}

// configPath picks the file to load: the explicit path, then the --config
// flag, then EnvConfigPath.
func configPath(path string, fs *pflag.FlagSet) string {
	if path != "" {
		return path
	}
	if fs != nil && fs.Changed(FlagConfig) {
		if p, err := fs.GetString(FlagConfig); err == nil && p != "" {
			return p
		}
	}
	return os.Getenv(EnvConfigPath)
}
