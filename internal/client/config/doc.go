// Package config loads runtime configuration for the lead console.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file, chosen by --config/-c or LEADCONSOLE_CONFIG.
//     The extension picks the format: .json, .jsonc, .toml, .yaml/.yml.
//  3. Command-line flags registered by BindFlags. Only flags that were
//     actually set override earlier values.
//
// # File format
//
// Durations are strings like "3s" or integer nanoseconds:
//
//	{
//	  // comments are allowed in .jsonc
//	  "api_base_url": "http://127.0.0.1:8000/api",
//	  "online_check_interval": "3s",
//	  "reports_delay": "2s",
//	  "export": {"sink": "s3", "bucket": "console-exports"}
//	}
//
// Keys missing from the file keep their default.
package config
