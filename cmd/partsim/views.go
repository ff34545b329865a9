package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/experiment"
	"github.com/san-kum/partsim/internal/gui"
	"github.com/san-kum/partsim/internal/sim"
	"github.com/san-kum/partsim/internal/stream"
	"github.com/san-kum/partsim/internal/tui"
)

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	exp := experiment.New(cfg, slog.Default())
	if err := exp.Setup(nil); err != nil {
		return err
	}
	defer exp.Close()
	return tui.Run(exp, frameRate)
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return gui.Run(cfg, slog.Default())
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	log := slog.Default()

	exp := experiment.New(cfg, log)
	exp.SampleEvery(max(1, int(1/cfg.Dt)))
	if err := exp.Setup(nil); err != nil {
		return err
	}
	defer exp.Close()

	screen := r2.Vec{X: cfg.Screen.Width, Y: cfg.Screen.Height}
	hub := stream.NewHub(screen, every, log)
	defer hub.Close()
	exp.Solver().AddObserver(hub)

	srv := &http.Server{Addr: addr, Handler: hub.Handler()}
	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	fmt.Printf("serving on http://localhost%s\n", addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runErr := loop(ctx, exp, hub, cfg, errc)

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		log.Warn("server shutdown", "err", err)
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// loop steps the experiment in real time, applying client spawn requests
// between frames.
func loop(ctx context.Context, exp *experiment.Experiment, hub *stream.Hub, cfg *config.Config, errc <-chan error) error {
	ticker := time.NewTicker(time.Duration(cfg.Dt * float64(time.Second)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			return err
		case <-ticker.C:
		}

		drainSpawns(exp.Solver(), hub, cfg)
		if err := exp.Step(); err != nil {
			return err
		}
	}
}

func drainSpawns(solver *sim.Solver, hub *stream.Hub, cfg *config.Config) {
	for {
		select {
		case req := <-hub.Spawns():
			r := float64(req.Radius)
			if r <= 0 {
				r = cfg.Spawn.RadiusMax
			}
			r = min(r, cfg.LargestRadius)
			pos := r2.Vec{X: float64(req.X), Y: float64(req.Y)}
			if _, err := solver.Spawn(pos, r); err != nil {
				slog.Warn("spawn request rejected", "err", err)
			}
		default:
			return
		}
	}
}
