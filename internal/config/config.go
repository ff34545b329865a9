package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/partsim/internal/collision"
	"github.com/san-kum/partsim/internal/compute"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/physics"
)

const (
	DefaultWidth         = 1280.0
	DefaultHeight        = 720.0
	DefaultLargestRadius = 8.0
	DefaultSubSteps      = 8
	DefaultFrames        = 600
	DefaultDt            = 1.0 / 60.0
	DefaultCount         = 2000
	DefaultRadiusMin     = 3.0
	DefaultPattern       = "rain"
)

// Patterns lists the recognised spawn patterns.
var Patterns = []string{"rain", "lattice", "mixed", "column"}

type Config struct {
	Scene         string       `yaml:"scene,omitempty"`
	Screen        ScreenConfig `yaml:"screen"`
	LargestRadius float64      `yaml:"largest_radius"`
	SubSteps      int          `yaml:"sub_steps"`
	Strategy      string       `yaml:"strategy"`
	Host          string       `yaml:"host"`
	KernelSource  string       `yaml:"kernel_source"`
	FallbackToCPU bool         `yaml:"fallback_to_cpu"`
	Sequential    bool         `yaml:"sequential"`
	Workers       int          `yaml:"workers"`
	Gravity       float64      `yaml:"gravity"`
	Drag          DragConfig   `yaml:"drag"`
	Restitution   float64      `yaml:"restitution"`
	Frames        int          `yaml:"frames"`
	Dt            float64      `yaml:"dt"`
	Spawn         SpawnConfig  `yaml:"spawn"`
}

type ScreenConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type DragConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Magnitude float64 `yaml:"magnitude"`
}

type SpawnConfig struct {
	Count     int     `yaml:"count"`
	RadiusMin float64 `yaml:"radius_min"`
	RadiusMax float64 `yaml:"radius_max"`
	Seed      int64   `yaml:"seed"`
	Pattern   string  `yaml:"pattern"`
	// PerFrame > 0 releases particles gradually instead of all at frame 0.
	PerFrame int `yaml:"per_frame"`
}

func DefaultConfig() *Config {
	return &Config{
		Screen:        ScreenConfig{Width: DefaultWidth, Height: DefaultHeight},
		LargestRadius: DefaultLargestRadius,
		SubSteps:      DefaultSubSteps,
		Strategy:      collision.SpatialHash.String(),
		Host:          "cpu",
		KernelSource:  collision.KernelName,
		Gravity:       physics.DefaultGravity,
		Drag:          DragConfig{Magnitude: physics.DefaultDragMagnitude},
		Restitution:   physics.DefaultRestitution,
		Frames:        DefaultFrames,
		Dt:            DefaultDt,
		Spawn: SpawnConfig{
			Count:     DefaultCount,
			RadiusMin: DefaultRadiusMin,
			RadiusMax: DefaultLargestRadius,
			Seed:      1,
			Pattern:   DefaultPattern,
		},
	}
}

// Load overlays the YAML file at path onto the defaults.
func Load(path string) (*Config, error) {
	return LoadOnto(path, DefaultConfig())
}

// LoadOnto overlays the YAML file at path onto a copy of base.
func LoadOnto(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	if !(c.Screen.Width > 0) || !(c.Screen.Height > 0) {
		errs = append(errs, fmt.Errorf("%w: %vx%v", dynamo.ErrInvalidScreen, c.Screen.Width, c.Screen.Height))
	}
	if !(c.LargestRadius > 0) {
		errs = append(errs, fmt.Errorf("%w: largest_radius %v", dynamo.ErrInvalidRadius, c.LargestRadius))
	}
	if c.SubSteps <= 0 {
		errs = append(errs, fmt.Errorf("%w: sub_steps %d", dynamo.ErrInvalidTimestep, c.SubSteps))
	}
	if !(c.Dt > 0) {
		errs = append(errs, fmt.Errorf("%w: dt %v", dynamo.ErrInvalidTimestep, c.Dt))
	}
	if c.Frames < 0 {
		errs = append(errs, fmt.Errorf("frames must not be negative, got %d", c.Frames))
	}
	if _, err := collision.ParseStrategy(c.Strategy); err != nil {
		errs = append(errs, err)
	}
	if !compute.KnownHost(c.Host) {
		errs = append(errs, fmt.Errorf("%w: %q", dynamo.ErrUnknownHost, c.Host))
	}
	if c.Restitution < 0 || c.Restitution > 1 {
		errs = append(errs, fmt.Errorf("restitution must be in [0, 1], got %v", c.Restitution))
	}

	s := c.Spawn
	if s.Count < 0 {
		errs = append(errs, fmt.Errorf("spawn.count must not be negative, got %d", s.Count))
	}
	if !(s.RadiusMin > 0) || s.RadiusMax < s.RadiusMin {
		errs = append(errs, fmt.Errorf("%w: spawn radius range [%v, %v]", dynamo.ErrInvalidRadius, s.RadiusMin, s.RadiusMax))
	}
	if s.RadiusMax > c.LargestRadius {
		errs = append(errs, fmt.Errorf("%w: spawn.radius_max %v > largest_radius %v", dynamo.ErrRadiusTooLarge, s.RadiusMax, c.LargestRadius))
	}
	if !knownPattern(s.Pattern) {
		errs = append(errs, fmt.Errorf("unknown spawn pattern %q", s.Pattern))
	}
	return errors.Join(errs...)
}

func knownPattern(name string) bool {
	for _, p := range Patterns {
		if p == name {
			return true
		}
	}
	return false
}
