package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/experiment"
	"github.com/san-kum/partsim/internal/storage"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step starts from a scene (or the defaults) and overlays Config, which
// takes the same keys as a config file.
type Step struct {
	Name   string    `yaml:"name"`
	Scene  string    `yaml:"scene"`
	Config yaml.Node `yaml:"config"`
	Save   bool      `yaml:"save"`
}

type StepResult struct {
	Name   string
	RunID  string
	Result *experiment.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", sc.Name)
	}
	return &sc, nil
}

// Build resolves the step's configuration.
func (s *Step) Build() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Scene != "" {
		cfg = config.GetPreset(s.Scene)
		if cfg == nil {
			return nil, fmt.Errorf("unknown scene %q", s.Scene)
		}
	}
	if !s.Config.IsZero() {
		if err := s.Config.Decode(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunScenario executes the steps in order and stops at the first failure.
// Steps marked Save are stored in st, which may be nil when none are.
func RunScenario(ctx context.Context, sc *Scenario, st *storage.Store, log *slog.Logger) ([]StepResult, error) {
	if log == nil {
		log = slog.Default()
	}
	results := make([]StepResult, 0, len(sc.Steps))

	for i := range sc.Steps {
		step := &sc.Steps[i]
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step-%d", i+1)
		}
		log.Info("scenario step", "scenario", sc.Name, "step", name, "index", i+1, "of", len(sc.Steps))

		cfg, err := step.Build()
		if err != nil {
			return results, fmt.Errorf("step %s: %w", name, err)
		}
		if cfg.Scene == "" {
			cfg.Scene = name
		}

		res, err := runOnce(ctx, cfg, log.With(slog.String("step", name)))
		if err != nil {
			return results, fmt.Errorf("step %s: %w", name, err)
		}

		out := StepResult{Name: name, Result: res}
		if step.Save {
			if st == nil {
				return results, fmt.Errorf("step %s: no store to save into", name)
			}
			out.RunID, err = st.Save(metadata(cfg, res), cfg, res.Frames)
			if err != nil {
				return results, fmt.Errorf("step %s: %w", name, err)
			}
		}
		results = append(results, out)
	}
	return results, nil
}

func runOnce(ctx context.Context, cfg *config.Config, log *slog.Logger) (*experiment.Result, error) {
	exp := experiment.New(cfg, log)
	if err := exp.Setup(nil); err != nil {
		return nil, err
	}
	defer exp.Close()
	return exp.Run(ctx)
}

func metadata(cfg *config.Config, res *experiment.Result) storage.RunMetadata {
	return storage.RunMetadata{
		Scene:     cfg.Scene,
		Strategy:  res.Strategy,
		Host:      res.Host,
		Particles: res.Particles,
		Frames:    res.FramesRun,
		Dt:        cfg.Dt,
		SubSteps:  cfg.SubSteps,
		Seed:      cfg.Spawn.Seed,
		Elapsed:   res.Elapsed.Seconds(),
		Metrics:   res.Summary,
	}
}
