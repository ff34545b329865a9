package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/partsim/internal/analysis"
	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/export"
	"github.com/san-kum/partsim/internal/metrics"
	"github.com/san-kum/partsim/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tSTRATEGY\tHOST\tPARTICLES\tFRAMES\tELAPSED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%.2fs\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Strategy,
			run.Host,
			run.Particles,
			run.Frames,
			run.Elapsed,
		)
	}
	return w.Flush()
}

// column extracts one named Frame field across frames.
func column(frames []metrics.Frame, name string) ([]float64, error) {
	data := make([]float64, len(frames))
	for i := range frames {
		v, ok := frames[i].Column(name)
		if !ok {
			return nil, fmt.Errorf("unknown metric %q (available: %v)", name, metrics.Columns)
		}
		data[i] = v
	}
	return data, nil
}

// series returns the frame times alongside the named metric.
func series(frames []metrics.Frame, name string) (times, values []float64, err error) {
	if values, err = column(frames, name); err != nil {
		return nil, nil, err
	}
	if times, err = column(frames, "time"); err != nil {
		return nil, nil, err
	}
	return times, values, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("strategy: %s, particles: %d\n", meta.Strategy, meta.Particles)
	fmt.Printf("samples: %d\n\n", len(frames))

	for i, name := range plotMetrics {
		data, err := column(frames, name)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(plotHeight),
			asciigraph.Width(plotWidth),
			asciigraph.Caption(name),
		)
		fmt.Println(graph)
		fmt.Println()

		if i == 0 && svgPath != "" {
			svg := export.SeriesToSVG(data, 800, 300, "#00ff88")
			if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
				return err
			}
		}
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}

	times, values, err := series(frames, analyzeMetric)
	if err != nil {
		return err
	}
	sp, err := analysis.Analyze(times, values)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("metric: %s, %d samples at %.2f hz\n\n", analyzeMetric, len(values), sp.SampleRate)

	plotData := sp.Power
	if len(plotData) > 8 {
		plotData = plotData[:len(plotData)/2]
	}
	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum ("+analyzeMetric+")"),
	)
	fmt.Println(graph)
	fmt.Println()

	fmt.Printf("dominant frequency: %.3f hz (resolution %.3f hz)\n", sp.Dominant, sp.Resolution())
	if sp.Dominant > 0 {
		fmt.Printf("period: %.3f s\n", 1/sp.Dominant)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	var w io.Writer = os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return storage.New(dataDir).Export(w, args[0], exportFormat)
}

func deleteRun(cmd *cobra.Command, args []string) error {
	if err := storage.New(dataDir).Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		cfg := config.GetPreset(args[0])
		if cfg == nil {
			return fmt.Errorf("unknown scene: %s (available: %v)", args[0], config.ListPresets())
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENE\tPATTERN\tPARTICLES\tRADIUS\tFRAMES\tSCREEN")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%d\t%.0f-%.0f\t%d\t%.0fx%.0f\n",
			name,
			cfg.Spawn.Pattern,
			cfg.Spawn.Count,
			cfg.Spawn.RadiusMin, cfg.Spawn.RadiusMax,
			cfg.Frames,
			cfg.Screen.Width, cfg.Screen.Height,
		)
	}
	return w.Flush()
}
