package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Workload != "mixed" {
		t.Errorf("expected workload mixed, got %s", cfg.Workload)
	}
	if cfg.Bodies <= 0 {
		t.Error("bodies should be positive")
	}
	if cfg.Ticks == 0 {
		t.Error("ticks should be positive")
	}
	if cfg.Delta <= 0 {
		t.Error("delta should be positive")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("contended")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Workload != "contended" {
		t.Errorf("expected contended workload, got %s", cfg.Workload)
	}
	if cfg.Systems != 6 {
		t.Errorf("expected 6 systems, got %d", cfg.Systems)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) == 0 {
		t.Fatal("expected presets")
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("presets not sorted: %v", names)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weft.yaml")

	cfg := DefaultConfig()
	cfg.Workload = "uniform"
	cfg.Bodies = 99
	cfg.TickRate = 120

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Workload != "uniform" || loaded.Bodies != 99 || loaded.TickRate != 120 {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("workload: contended\nbodies: 12\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Workload != "contended" || cfg.Bodies != 12 {
		t.Errorf("file fields not applied: %+v", cfg)
	}
	if cfg.Delta != DefaultDelta || cfg.Ticks != DefaultTicks {
		t.Errorf("absent fields should keep defaults: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.LogLevel = tt.name
		if got := cfg.SlogLevel(); got != tt.level {
			t.Errorf("level %s: expected %v, got %v", tt.name, tt.level, got)
		}
	}
}
