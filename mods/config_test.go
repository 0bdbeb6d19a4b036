package mods

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "modbundle.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
baseline_dir = "game"
mods_dir = "workshop"
mods = ["better-trinkets", "hardcore-plus"]
target_dir = "out"
resolver = "prefer-last"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaselineDir != "game" || cfg.ModsDir != "workshop" {
		t.Errorf("directories not read: %+v", cfg)
	}
	if len(cfg.Mods) != 2 || cfg.Mods[0] != "better-trinkets" {
		t.Errorf("mod list not read: %v", cfg.Mods)
	}
	if cfg.Resolver != "prefer-last" {
		t.Errorf("resolver not read: %q", cfg.Resolver)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
baseline_dir = "game"
mods_dir = "workshop"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TargetDir != "bundled" {
		t.Errorf("target_dir default missing: %q", cfg.TargetDir)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log_level default missing: %q", cfg.LogLevel)
	}
	if cfg.Resolver != "interactive" {
		t.Errorf("resolver default missing: %q", cfg.Resolver)
	}
}

func TestLoadConfigRejectsBadResolver(t *testing.T) {
	path := writeConfig(t, `
baseline_dir = "game"
mods_dir = "workshop"
resolver = "coin-flip"
`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("want error for unknown resolver")
	}
}

func TestLoadConfigRequiresDirs(t *testing.T) {
	path := writeConfig(t, `mods_dir = "workshop"`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("want error for missing baseline_dir")
	}
}
