package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/partsim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.SubSteps != 8 {
		t.Errorf("expected 8 sub-steps, got %d", cfg.SubSteps)
	}
	if cfg.Strategy != "spatial_hash" {
		t.Errorf("expected spatial_hash, got %s", cfg.Strategy)
	}
	if cfg.Restitution != 0.25 {
		t.Errorf("expected restitution 0.25, got %v", cfg.Restitution)
	}
	if cfg.Drag.Enabled {
		t.Error("drag should be off by default")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	data := []byte("strategy: fixed_grid\nspawn:\n  count: 42\n  pattern: column\ndrag:\n  enabled: true\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Strategy != "fixed_grid" || cfg.Spawn.Count != 42 || cfg.Spawn.Pattern != "column" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if !cfg.Drag.Enabled || cfg.Drag.Magnitude != 500 {
		t.Errorf("drag = %+v", cfg.Drag)
	}
	if cfg.SubSteps != DefaultSubSteps || cfg.Spawn.RadiusMin != DefaultRadiusMin {
		t.Error("defaults lost")
	}
}

func TestLoadOntoPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte("frames: 12\n"), 0644); err != nil {
		t.Fatal(err)
	}

	base := GetPreset("column")
	cfg, err := LoadOnto(path, base)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Frames != 12 {
		t.Errorf("frames = %d, want file value 12", cfg.Frames)
	}
	if cfg.Spawn.Pattern != "column" || cfg.Screen.Width != 400 {
		t.Errorf("preset values lost: %+v", cfg)
	}
	if base.Frames != 900 {
		t.Error("base modified")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v", err)
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("sub_steps: [1, 2"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := GetPreset("mixed")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *back != *cfg {
		t.Errorf("round trip changed config:\n%+v\n%+v", back, cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"zero width", func(c *Config) { c.Screen.Width = 0 }, dynamo.ErrInvalidScreen},
		{"zero radius", func(c *Config) { c.LargestRadius = 0 }, dynamo.ErrInvalidRadius},
		{"zero sub-steps", func(c *Config) { c.SubSteps = 0 }, dynamo.ErrInvalidTimestep},
		{"negative dt", func(c *Config) { c.Dt = -1 }, dynamo.ErrInvalidTimestep},
		{"strategy", func(c *Config) { c.Strategy = "octree" }, dynamo.ErrUnknownStrategy},
		{"host", func(c *Config) { c.Host = "vulkan" }, dynamo.ErrUnknownHost},
		{"spawn too large", func(c *Config) { c.Spawn.RadiusMax = 20 }, dynamo.ErrRadiusTooLarge},
		{"inverted range", func(c *Config) { c.Spawn.RadiusMin = 7; c.Spawn.RadiusMax = 4 }, dynamo.ErrInvalidRadius},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	cfg := DefaultConfig()
	cfg.Spawn.Pattern = "spiral"
	cfg.Restitution = 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected errors for pattern and restitution")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("column")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Scene != "column" || cfg.Screen.Width != 400 || cfg.Spawn.Pattern != "column" {
		t.Errorf("preset not applied: %+v", cfg)
	}
	if cfg.SubSteps != DefaultSubSteps {
		t.Error("preset dropped defaults")
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}

	// presets must not share state with the table
	cfg.Spawn.Count = 1
	if GetPreset("column").Spawn.Count == 1 {
		t.Error("preset table mutated")
	}
}

func TestPresetsValid(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("ListPresets returned %d of %d", len(names), len(Presets))
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}
