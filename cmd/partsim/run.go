package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/automation"
	"github.com/san-kum/partsim/internal/collision"
	"github.com/san-kum/partsim/internal/experiment"
	"github.com/san-kum/partsim/internal/export"
	"github.com/san-kum/partsim/internal/storage"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exp := experiment.New(cfg, slog.Default())
	exp.SampleEvery(sampleEvery)
	if err := exp.Setup(nil); err != nil {
		return err
	}
	defer exp.Close()

	fmt.Printf("running %d particles with %s for %d frames...\n", cfg.Spawn.Count, cfg.Strategy, cfg.Frames)
	result, runErr := exp.Run(ctx)
	if result == nil {
		return runErr
	}

	if svgPath != "" {
		screen := r2.Vec{X: cfg.Screen.Width, Y: cfg.Screen.Height}
		svg := export.ParticlesToSVG(exp.Solver().Particles(), screen, 1)
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("snapshot: %s\n", svgPath)
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		meta := storage.RunMetadata{
			Scene:     cfg.Scene,
			Strategy:  result.Strategy,
			Host:      result.Host,
			Particles: result.Particles,
			Frames:    result.FramesRun,
			Dt:        cfg.Dt,
			SubSteps:  cfg.SubSteps,
			Seed:      cfg.Spawn.Seed,
			Elapsed:   result.Elapsed.Seconds(),
			Metrics:   result.Summary,
		}
		runID, err := st.Save(meta, cfg, result.Frames)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Printf("completed %d frames in %v (%s on %s)\n", result.FramesRun, result.Elapsed, result.Strategy, result.Host)
	names := make([]string, 0, len(result.Summary))
	for name := range result.Summary {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Summary[name])
	}
	return runErr
}

func benchStrategiesCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("frames") && cfg.Scene == "" && configFile == "" {
		cfg.Frames = 120
	}

	strategies := benchStrategies
	if len(strategies) == 0 {
		for _, s := range collision.Strategies() {
			strategies = append(strategies, s.String())
		}
	}
	for _, s := range strategies {
		if _, err := collision.ParseStrategy(s); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	base := experiment.New(cfg, slog.Default())
	cases := experiment.Cases(strategies, benchCounts)
	fmt.Printf("benchmarking %d cases, %d frames each...\n\n", len(cases), cfg.Frames)

	results, err := experiment.Sweep(ctx, base, cases, benchParallel)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STRATEGY\tPARTICLES\tHOST\tFRAMES\tMEAN MS\tMAX MS\tMAX OVERLAP")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%.3f\t%.3f\t%.4f\n",
			r.Strategy, r.Count, r.Host, r.Frames, r.MeanFrameMs, r.MaxFrameMs, r.MaxOverlap)
	}
	return w.Flush()
}

func sweepParameter(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sweep := automation.ParameterSweep{Param: sweepParam, Min: sweepMin, Max: sweepMax, Steps: sweepSteps}
	results, err := automation.RunSweep(ctx, cfg, sweep, slog.Default())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tMAX OVERLAP\tMEAN OVERLAP\tKINETIC\tESCAPED\tMEAN MS\n", sweepParam)
	for _, r := range results {
		fmt.Fprintf(w, "%.4g\t%.4f\t%.5f\t%.3g\t%d\t%.3f\n",
			r.Value, r.MaxOverlap, r.MeanOverlap, r.Kinetic, r.Escaped, r.MeanFrameMs)
	}
	return w.Flush()
}

func runScript(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("scenario %s: %d steps\n", sc.Name, len(sc.Steps))
	results, runErr := automation.RunScenario(ctx, sc, st, slog.Default())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSTRATEGY\tPARTICLES\tFRAMES\tELAPSED\tMAX OVERLAP\tRUN ID")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%v\t%.4f\t%s\n",
			r.Name, r.Result.Strategy, r.Result.Particles, r.Result.FramesRun,
			r.Result.Elapsed.Round(time.Millisecond), r.Result.Summary["max_overlap"], r.RunID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}
