package mods

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the bundle file (modbundle.toml).
type Config struct {
	BaselineDir string   `toml:"baseline_dir"`
	ModsDir     string   `toml:"mods_dir"`
	Mods        []string `toml:"mods"` // empty means ask interactively
	TargetDir   string   `toml:"target_dir"`
	LogLevel    string   `toml:"log_level"`
	Resolver    string   `toml:"resolver"` // "interactive" or "prefer-last"
}

// LoadConfig reads and validates the bundle file.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		TargetDir: "bundled",
		LogLevel:  "info",
		Resolver:  "interactive",
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if cfg.BaselineDir == "" {
		return nil, fmt.Errorf("%s: baseline_dir is required", path)
	}
	if cfg.ModsDir == "" {
		return nil, fmt.Errorf("%s: mods_dir is required", path)
	}
	switch cfg.Resolver {
	case "interactive", "prefer-last":
	default:
		return nil, fmt.Errorf("%s: unknown resolver %q", path, cfg.Resolver)
	}
	return cfg, nil
}
