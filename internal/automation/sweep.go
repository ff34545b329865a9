package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/experiment"
)

// Params lists the configuration values a sweep can vary.
var Params = []string{"gravity", "restitution", "sub_steps", "drag_magnitude", "largest_radius"}

// ParameterSweep varies one parameter linearly over Steps values.
type ParameterSweep struct {
	Param    string
	Min, Max float64
	Steps    int
}

type SweepResult struct {
	Value       float64
	MaxOverlap  float64
	MeanOverlap float64
	Kinetic     float64
	Escaped     int
	MeanFrameMs float64
}

// SetParam writes v into the named field of cfg.
func SetParam(cfg *config.Config, name string, v float64) error {
	switch name {
	case "gravity":
		cfg.Gravity = v
	case "restitution":
		cfg.Restitution = v
	case "sub_steps":
		cfg.SubSteps = int(math.Round(v))
	case "drag_magnitude":
		cfg.Drag.Magnitude = v
	case "largest_radius":
		cfg.LargestRadius = v
	default:
		return fmt.Errorf("unknown sweep parameter %q (available: %v)", name, Params)
	}
	return nil
}

// Values returns the sampled parameter values.
func (s ParameterSweep) Values() []float64 {
	if s.Steps <= 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.Steps-1)
	vals := make([]float64, s.Steps)
	for i := range vals {
		vals[i] = s.Min + float64(i)*step
	}
	return vals
}

// RunSweep runs base once per value, reporting the end-of-run state.
func RunSweep(ctx context.Context, base *config.Config, sweep ParameterSweep, log *slog.Logger) ([]SweepResult, error) {
	if log == nil {
		log = slog.Default()
	}
	vals := sweep.Values()
	results := make([]SweepResult, 0, len(vals))

	for i, v := range vals {
		cfg := base.Clone()
		if err := SetParam(cfg, sweep.Param, v); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return results, fmt.Errorf("%s=%v: %w", sweep.Param, v, err)
		}

		log.Info("sweep", "param", sweep.Param, "value", v, "index", i+1, "of", len(vals))
		res, err := runOnce(ctx, cfg, log)
		if err != nil {
			return results, fmt.Errorf("%s=%v: %w", sweep.Param, v, err)
		}

		results = append(results, summarise(v, res))
	}
	return results, nil
}

func summarise(v float64, res *experiment.Result) SweepResult {
	out := SweepResult{Value: v, MaxOverlap: res.Summary["max_overlap"]}
	n := len(res.Frames)
	if n == 0 {
		return out
	}
	overlap := make([]float64, n)
	frameMs := make([]float64, n)
	for i, f := range res.Frames {
		overlap[i] = f.MeanOverlap
		frameMs[i] = f.FrameMillis
	}
	out.MeanOverlap = stat.Mean(overlap, nil)
	out.MeanFrameMs = stat.Mean(frameMs, nil)
	out.Kinetic = res.Frames[n-1].Kinetic
	out.Escaped = res.Frames[n-1].Escaped
	return out
}
