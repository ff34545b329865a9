package experiment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"slices"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/dynamo"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Screen = config.ScreenConfig{Width: 300, Height: 200}
	cfg.Frames = 30
	cfg.Spawn.Count = 60
	cfg.Spawn.Pattern = "mixed"
	return cfg
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	if got := r.ListStrategies(); !slices.Equal(got, []string{"brute_force", "fixed_grid", "spatial_hash"}) {
		t.Errorf("strategies = %v", got)
	}
	if got := r.ListPatterns(); !slices.Equal(got, slices.Sorted(slices.Values(config.Patterns))) {
		t.Errorf("patterns %v do not match config %v", got, config.Patterns)
	}
	if len(r.ListScenes()) == 0 {
		t.Error("no scenes")
	}

	if _, err := r.GetStrategy("hash"); err != nil {
		t.Errorf("alias rejected: %v", err)
	}
	if _, err := r.GetHost("metal", 1); !errors.Is(err, dynamo.ErrUnknownHost) {
		t.Errorf("unknown host err = %v", err)
	}
	if _, err := r.GetPattern("spiral"); err == nil {
		t.Error("expected unknown pattern error")
	}
	h, err := r.GetHost("cpu", 2)
	if err != nil || h.Name() != "cpu" {
		t.Errorf("cpu host = %v, %v", h, err)
	}
	h, err = r.GetHost("GL", 0)
	if err != nil || h.Name() != "opengl" {
		t.Errorf("gl alias = %v, %v", h, err)
	}
}

func TestPatternsStayOnScreen(t *testing.T) {
	screen := r2.Vec{X: 300, Y: 200}
	cfg := config.SpawnConfig{Count: 200, RadiusMin: 2, RadiusMax: 6}

	for _, name := range NewRegistry().ListPatterns() {
		t.Run(name, func(t *testing.T) {
			pattern, _ := NewRegistry().GetPattern(name)
			rng := rand.New(rand.NewSource(1))
			for i := 0; i < cfg.Count; i++ {
				sp := pattern(rng, screen, cfg, i)
				if sp.Radius < cfg.RadiusMin || sp.Radius > cfg.RadiusMax {
					t.Fatalf("particle %d radius %v", i, sp.Radius)
				}
				if sp.Pos.X < 0 || sp.Pos.X > screen.X || sp.Pos.Y < 0 || sp.Pos.Y > screen.Y {
					t.Fatalf("particle %d off screen at %v", i, sp.Pos)
				}
			}
		})
	}
}

func TestRun(t *testing.T) {
	for _, strategy := range []string{"brute_force", "fixed_grid", "spatial_hash"} {
		t.Run(strategy, func(t *testing.T) {
			cfg := smallConfig()
			cfg.Strategy = strategy

			exp := New(cfg, quiet)
			if err := exp.Setup(nil); err != nil {
				t.Fatal(err)
			}
			defer exp.Close()

			res, err := exp.Run(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if res.FramesRun != 30 || len(res.Frames) != 30 || res.Particles != 60 {
				t.Errorf("frames %d/%d particles %d", res.FramesRun, len(res.Frames), res.Particles)
			}
			if res.Strategy != strategy {
				t.Errorf("strategy = %s", res.Strategy)
			}
			if _, ok := res.Summary["max_overlap"]; !ok {
				t.Errorf("summary = %v", res.Summary)
			}
		})
	}
}

func TestRunGradualSpawn(t *testing.T) {
	cfg := smallConfig()
	cfg.Spawn.Pattern = "rain"
	cfg.Spawn.PerFrame = 7
	cfg.Frames = 5

	exp := New(cfg, quiet)
	if err := exp.Setup(nil); err != nil {
		t.Fatal(err)
	}
	defer exp.Close()

	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Particles != 35 {
		t.Errorf("particles = %d, want 35", res.Particles)
	}
	if exp.Spawner().Done() {
		t.Error("spawner should still have particles to release")
	}
}

func TestSetupErrors(t *testing.T) {
	cfg := smallConfig()
	cfg.Strategy = "octree"
	if err := New(cfg, quiet).Setup(nil); !errors.Is(err, dynamo.ErrUnknownStrategy) {
		t.Errorf("err = %v", err)
	}

	// an uninitialised GL host cannot load kernels
	cfg = smallConfig()
	cfg.Host = "opengl"
	if err := New(cfg, quiet).Setup(nil); !errors.Is(err, dynamo.ErrKernelLoad) {
		t.Errorf("err = %v", err)
	}

	cfg.FallbackToCPU = true
	exp := New(cfg, quiet)
	if err := exp.Setup(nil); err != nil {
		t.Fatalf("fallback failed: %v", err)
	}
	defer exp.Close()
	if exp.Solver().HostName() != "cpu" {
		t.Errorf("host = %s", exp.Solver().HostName())
	}

	if err := New(smallConfig(), quiet).Step(); err == nil {
		t.Error("Step before Setup should fail")
	}
}

func TestAcceptedHostsSetUp(t *testing.T) {
	for _, name := range []string{"cpu", "CPU", "", "opengl", "OpenGL", "gl"} {
		t.Run(name, func(t *testing.T) {
			cfg := smallConfig()
			cfg.Host = name
			// GL hosts have no context here and fall back
			cfg.FallbackToCPU = true
			if err := cfg.Validate(); err != nil {
				t.Fatalf("validate: %v", err)
			}
			exp := New(cfg, quiet)
			if err := exp.Setup(nil); err != nil {
				t.Fatalf("setup: %v", err)
			}
			defer exp.Close()
			if err := exp.Step(); err != nil {
				t.Errorf("step: %v", err)
			}
		})
	}
}

func TestRunCancelled(t *testing.T) {
	exp := New(smallConfig(), quiet)
	if err := exp.Setup(nil); err != nil {
		t.Fatal(err)
	}
	defer exp.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := exp.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if res == nil || res.FramesRun != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestSweep(t *testing.T) {
	cfg := smallConfig()
	cfg.Frames = 10
	base := New(cfg, quiet)

	cases := Cases([]string{"brute_force", "spatial_hash"}, []int{20, 40})
	if len(cases) != 4 {
		t.Fatalf("cases = %v", cases)
	}

	results, err := Sweep(context.Background(), base, cases, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range results {
		if r.Case != cases[i] || r.Frames != 10 {
			t.Errorf("result %d = %+v", i, r)
		}
	}

	cases = append(cases, Case{Strategy: "octree", Count: 10})
	if _, err := Sweep(context.Background(), base, cases, 1); !errors.Is(err, dynamo.ErrUnknownStrategy) {
		t.Errorf("sweep err = %v", err)
	}
}
