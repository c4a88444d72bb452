package config

import (
	"github.com/spf13/pflag"
)

// Load builds a Config from defaults, then the config file, then the flags
// set on fs. path may be empty; see configPath for the fallbacks. fs may be
// nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	cfg := Defaults()

	if p := configPath(path, fs); p != "" {
		if err := loadFile(cfg, p); err != nil {
			return nil, err
		}
	}
	if err := applyFlags(cfg, fs); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
