package config

import "sort"

// Presets are named scenes. Fields left zero take the defaults.
var Presets = map[string]*Config{
	"rain": {
		Spawn: SpawnConfig{Count: 3000, RadiusMin: 3, RadiusMax: 6, Pattern: "rain", PerFrame: 20},
	},
	"lattice": {
		Frames: 300,
		Spawn:  SpawnConfig{Count: 1600, RadiusMin: 5, RadiusMax: 5, Pattern: "lattice"},
	},
	"mixed": {
		LargestRadius: 12,
		Spawn:         SpawnConfig{Count: 1200, RadiusMin: 2, RadiusMax: 12, Pattern: "mixed"},
	},
	"column": {
		Screen: ScreenConfig{Width: 400, Height: 800},
		Frames: 900,
		Spawn:  SpawnConfig{Count: 400, RadiusMin: 6, RadiusMax: 8, Pattern: "column"},
	},
	"drag": {
		Drag:  DragConfig{Enabled: true},
		Spawn: SpawnConfig{Count: 1500, RadiusMin: 3, RadiusMax: 8, Pattern: "mixed"},
	},
	"deterministic": {
		Sequential: true,
		Spawn:      SpawnConfig{Count: 800, RadiusMin: 4, RadiusMax: 8, Pattern: "lattice"},
	},
}

// GetPreset returns the defaults overlaid with the named scene, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Scene = name
	cfg.merge(p)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// merge copies the non-zero fields of o onto c.
func (c *Config) merge(o *Config) {
	if o.Screen.Width > 0 {
		c.Screen.Width = o.Screen.Width
	}
	if o.Screen.Height > 0 {
		c.Screen.Height = o.Screen.Height
	}
	if o.LargestRadius > 0 {
		c.LargestRadius = o.LargestRadius
	}
	if o.SubSteps > 0 {
		c.SubSteps = o.SubSteps
	}
	if o.Strategy != "" {
		c.Strategy = o.Strategy
	}
	if o.Host != "" {
		c.Host = o.Host
	}
	if o.KernelSource != "" {
		c.KernelSource = o.KernelSource
	}
	c.FallbackToCPU = c.FallbackToCPU || o.FallbackToCPU
	c.Sequential = c.Sequential || o.Sequential
	c.Drag.Enabled = c.Drag.Enabled || o.Drag.Enabled
	if o.Workers > 0 {
		c.Workers = o.Workers
	}
	if o.Gravity != 0 {
		c.Gravity = o.Gravity
	}
	if o.Drag.Magnitude > 0 {
		c.Drag.Magnitude = o.Drag.Magnitude
	}
	if o.Restitution > 0 {
		c.Restitution = o.Restitution
	}
	if o.Frames > 0 {
		c.Frames = o.Frames
	}
	if o.Dt > 0 {
		c.Dt = o.Dt
	}

	s := o.Spawn
	if s.Count > 0 {
		c.Spawn.Count = s.Count
	}
	if s.RadiusMin > 0 {
		c.Spawn.RadiusMin = s.RadiusMin
	}
	if s.RadiusMax > 0 {
		c.Spawn.RadiusMax = s.RadiusMax
	}
	if s.Seed != 0 {
		c.Spawn.Seed = s.Seed
	}
	if s.Pattern != "" {
		c.Spawn.Pattern = s.Pattern
	}
	if s.PerFrame > 0 {
		c.Spawn.PerFrame = s.PerFrame
	}
}
