package sim

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/collision"
	"github.com/san-kum/partsim/internal/compute"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/physics"
)

// DefaultSubSteps is the number of sub-steps per Update.
const DefaultSubSteps = 8

type Integrator interface {
	Name() string
	Step(ps []dynamo.Particle, dt float64)
}

// Observer is notified after every completed frame. ps must not be retained.
type Observer interface {
	OnFrame(frame int, t float64, ps []dynamo.Particle)
}

type ObserverFunc func(frame int, t float64, ps []dynamo.Particle)

func (f ObserverFunc) OnFrame(frame int, t float64, ps []dynamo.Particle) { f(frame, t, ps) }

type Config struct {
	Screen        r2.Vec
	LargestRadius float64
	SubSteps      int

	Strategy collision.Strategy
	// Host runs the spatial-hash kernel. When nil the solver owns a CPU host.
	Host         compute.Host
	KernelSource string
	// FallbackToCPU retries on a CPU host when the kernel fails to load on Host.
	FallbackToCPU bool
	Sequential    bool
	// Resolver replaces the strategy-built resolver.
	Resolver collision.Resolver

	Gravity       float64
	Drag          bool
	DragMagnitude float64
	Restitution   float64

	Logger *slog.Logger
}

// DefaultConfig fills in everything except the screen and largest radius.
func DefaultConfig(screen r2.Vec, largestRadius float64) Config {
	return Config{
		Screen:        screen,
		LargestRadius: largestRadius,
		SubSteps:      DefaultSubSteps,
		Strategy:      collision.SpatialHash,
		KernelSource:  collision.KernelName,
		Gravity:       physics.DefaultGravity,
		DragMagnitude: physics.DefaultDragMagnitude,
		Restitution:   physics.DefaultRestitution,
	}
}
