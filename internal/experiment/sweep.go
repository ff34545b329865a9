package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Case is one point of a benchmark sweep.
type Case struct {
	Strategy string
	Count    int
}

type CaseResult struct {
	Case
	Frames      int
	Elapsed     time.Duration
	MeanFrameMs float64
	MaxFrameMs  float64
	MaxOverlap  float64
	Host        string
}

// Cases crosses every strategy with every particle count.
func Cases(strategies []string, counts []int) []Case {
	cases := make([]Case, 0, len(strategies)*len(counts))
	for _, n := range counts {
		for _, s := range strategies {
			cases = append(cases, Case{Strategy: s, Count: n})
		}
	}
	return cases
}

// Sweep runs base once per case, at most parallel at a time. Concurrent
// cases share the machine, so timings are only comparable with parallel 1.
// The first failing case cancels the rest.
func Sweep(ctx context.Context, base *Experiment, cases []Case, parallel int) ([]CaseResult, error) {
	if parallel < 1 {
		parallel = 1
	}
	results := make([]CaseResult, len(cases))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, c := range cases {
		g.Go(func() error {
			cfg := base.cfg.Clone()
			cfg.Strategy = c.Strategy
			cfg.Spawn.Count = c.Count
			cfg.Spawn.PerFrame = 0

			log := base.log.With(slog.String("strategy", c.Strategy), slog.Int("count", c.Count))
			exp := New(cfg, log)
			if err := exp.Setup(nil); err != nil {
				return fmt.Errorf("%s/%d: %w", c.Strategy, c.Count, err)
			}
			defer exp.Close()

			res, err := exp.Run(ctx)
			if err != nil {
				return fmt.Errorf("%s/%d: %w", c.Strategy, c.Count, err)
			}
			results[i] = summarise(c, res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func summarise(c Case, res *Result) CaseResult {
	out := CaseResult{
		Case:       c,
		Frames:     res.FramesRun,
		Elapsed:    res.Elapsed,
		MaxOverlap: res.Summary["max_overlap"],
		Host:       res.Host,
	}

	times := make([]float64, 0, len(res.Frames))
	for _, f := range res.Frames {
		times = append(times, f.FrameMillis)
		out.MaxFrameMs = max(out.MaxFrameMs, f.FrameMillis)
	}
	if len(times) > 0 {
		out.MeanFrameMs = stat.Mean(times, nil)
	}
	return out
}
