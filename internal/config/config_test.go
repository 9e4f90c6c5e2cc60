package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if cfg.Output.Width != 1080 || cfg.Output.Height != 1920 {
		t.Fatalf("unexpected canvas defaults: %dx%d", cfg.Output.Width, cfg.Output.Height)
	}
	if cfg.Output.MinClipSeconds != 0.25 {
		t.Fatalf("unexpected min clip seconds: %v", cfg.Output.MinClipSeconds)
	}
	if cfg.Render.ProgressFloor != 8 || cfg.Render.ProgressCeiling != 92 {
		t.Fatalf("unexpected progress band: %v-%v", cfg.Render.ProgressFloor, cfg.Render.ProgressCeiling)
	}
	if cfg.Captions.DefaultPreset != "clean" {
		t.Fatalf("unexpected default preset: %q", cfg.Captions.DefaultPreset)
	}
	// No local font path configured by default; the cache path carries the
	// download target.
	if cfg.Captions.FontPath != "" {
		t.Fatalf("default font path = %q, want empty", cfg.Captions.FontPath)
	}
	if cfg.FontCachePath() != filepath.Join(cfg.Paths.CacheDir, "caption-font.ttf") {
		t.Fatalf("unexpected font cache path: %q", cfg.FontCachePath())
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[output]
width = 720
height = 1280
min_clip_seconds = 0.5

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %s, got %s exists=%v", path, resolved, exists)
	}
	if cfg.Output.Width != 720 || cfg.Output.Height != 1280 {
		t.Fatalf("override not applied: %dx%d", cfg.Output.Width, cfg.Output.Height)
	}
	if cfg.Output.MinClipSeconds != 0.5 {
		t.Fatalf("override not applied: %v", cfg.Output.MinClipSeconds)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging override not applied: %+v", cfg.Logging)
	}
}

func TestValidateRejectsOddDimensions(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg.Output.Width = 1081
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "even") {
		t.Fatalf("expected even-dimension error, got %v", err)
	}
}

func TestValidateRejectsInvertedProgressBand(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg.Render.ProgressFloor = 95
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected progress band error")
	}
}

func TestValidateRejectsUnknownLogFormat(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg.Logging.Format = "yaml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected log format error")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[output]") {
		t.Fatal("sample config missing [output] section")
	}
}
