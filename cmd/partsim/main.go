package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/partsim/internal/automation"
	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/gui"
)

var (
	dataDir   string
	logFormat string
	logLevel  string
	logFile   string

	// simulation flags, shared by the commands that build an experiment
	configFile  string
	scene       string
	strategy    string
	host        string
	count       int
	frames      int
	dt          float64
	subSteps    int
	seed        int64
	pattern     string
	gravity     float64
	drag        bool
	sequential  bool
	fallbackCPU bool
	workers     int
	width       float64
	height      float64

	sampleEvery int
	svgPath     string
	noSave      bool

	benchCounts     []int
	benchStrategies []string
	benchParallel   int

	plotMetrics []string
	plotHeight  int
	plotWidth   int

	analyzeMetric string

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	exportFormat string
	exportOut    string

	frameRate int
	addr      string
	every     int
)

func main() {
	var logCloser io.Closer

	rootCmd := &cobra.Command{
		Use:           "partsim",
		Short:         "2D particle collision solver",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, closer, err := newLogger(logFormat, logLevel, logFile, cmd.Name() == "live")
			if err != nil {
				return err
			}
			logCloser = closer
			slog.SetDefault(log)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logCloser != nil {
				logCloser.Close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return gui.Run(cfg, slog.Default())
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".partsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	addSimFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store its telemetry",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&sampleEvery, "sample-every", 1, "record every n-th frame")
	runCmd.Flags().StringVar(&svgPath, "svg", "", "write the final particle positions as svg")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "compare collision strategies across particle counts",
		Args:  cobra.NoArgs,
		RunE:  benchStrategiesCmd,
	}
	addSimFlags(benchCmd)
	benchCmd.Flags().IntSliceVar(&benchCounts, "counts", []int{500, 1000, 2000}, "particle counts")
	benchCmd.Flags().StringSliceVar(&benchStrategies, "strategies", nil, "strategies to compare (default all)")
	benchCmd.Flags().IntVar(&benchParallel, "parallel", 1, "cases run at once; timings are only comparable with 1")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "vary one parameter and compare end-of-run state",
		Args:  cobra.NoArgs,
		RunE:  sweepParameter,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "sub_steps", "parameter ("+strings.Join(automation.Params, ", ")+")")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 1, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 8, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 8, "number of values")

	scriptCmd := &cobra.Command{
		Use:   "script [scenario.yaml]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored frame metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&plotMetrics, "metric", []string{"kinetic", "max_overlap", "frame_ms"}, "frame columns to plot")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "plot height")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the first metric as svg")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored frame metric",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&analyzeMetric, "metric", "kinetic", "frame column to analyse")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "json or csv")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scene]",
		Short: "list scenes, or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "run a simulation in a window",
		Args:  cobra.NoArgs,
		RunE:  runGUI,
	}
	addSimFlags(guiCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream a simulation to browsers over websocket",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	addSimFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&every, "every", 1, "broadcast every n-th frame")

	rootCmd.AddCommand(runCmd, benchCmd, sweepCmd, scriptCmd, listCmd, plotCmd, analyzeCmd, exportCmd, deleteCmd, presetsCmd, liveCmd, guiCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&scene, "scene", "", "start from a named scene")
	f.StringVar(&strategy, "strategy", "", "collision strategy (brute_force, fixed_grid, spatial_hash)")
	f.StringVar(&host, "host", "", "kernel host (cpu, opengl)")
	f.IntVarP(&count, "particles", "n", 0, "particle count")
	f.IntVar(&frames, "frames", 0, "frames to run")
	f.Float64Var(&dt, "dt", 0, "frame duration in seconds")
	f.IntVar(&subSteps, "sub-steps", 0, "sub-steps per frame")
	f.Int64Var(&seed, "seed", 0, "spawn seed")
	f.StringVar(&pattern, "pattern", "", "spawn pattern ("+strings.Join(config.Patterns, ", ")+")")
	f.Float64Var(&gravity, "gravity", 0, "gravity magnitude")
	f.BoolVar(&drag, "drag", false, "enable drag")
	f.BoolVar(&sequential, "sequential", false, "resolve the spatial hash with a deterministic scan")
	f.BoolVar(&fallbackCPU, "fallback-cpu", false, "use the cpu host when the kernel fails to load")
	f.IntVar(&workers, "workers", 0, "cpu host workers (0 = GOMAXPROCS)")
	f.Float64Var(&width, "width", 0, "screen width")
	f.Float64Var(&height, "height", 0, "screen height")
}

// resolveConfig layers flags over the config file over the scene over the
// defaults.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if scene != "" {
		cfg = config.GetPreset(scene)
		if cfg == nil {
			return nil, fmt.Errorf("unknown scene: %s (available: %v)", scene, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.LoadOnto(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("strategy") {
		cfg.Strategy = strategy
	}
	if f.Changed("host") {
		cfg.Host = host
	}
	if f.Changed("particles") {
		cfg.Spawn.Count = count
	}
	if f.Changed("frames") {
		cfg.Frames = frames
	}
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("sub-steps") {
		cfg.SubSteps = subSteps
	}
	if f.Changed("seed") {
		cfg.Spawn.Seed = seed
	}
	if f.Changed("pattern") {
		cfg.Spawn.Pattern = pattern
	}
	if f.Changed("gravity") {
		cfg.Gravity = gravity
	}
	if f.Changed("drag") {
		cfg.Drag.Enabled = drag
	}
	if f.Changed("sequential") {
		cfg.Sequential = sequential
	}
	if f.Changed("fallback-cpu") {
		cfg.FallbackToCPU = fallbackCPU
	}
	if f.Changed("workers") {
		cfg.Workers = workers
	}
	if f.Changed("width") {
		cfg.Screen.Width = width
	}
	if f.Changed("height") {
		cfg.Screen.Height = height
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newLogger builds the process logger. quiet drops stderr output, for views
// that own the terminal; a log file is still written.
func newLogger(format, level, path string, quiet bool) (*slog.Logger, io.Closer, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q", level)
	}

	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	switch {
	case path != "":
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		w, closer = f, f
	case quiet:
		w = io.Discard
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), closer, nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), closer, nil
	}
	closer.Close()
	return nil, nil, fmt.Errorf("invalid log format %q (text, json)", format)
}
