package metrics

import (
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/broadphase"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/physics"
)

func testGrid(t *testing.T) broadphase.Grid {
	t.Helper()
	g, err := broadphase.NewGrid(r2.Vec{X: 100, Y: 100}, 5)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestKineticAndPotential(t *testing.T) {
	p := dynamo.NewParticle(r2.Vec{X: 10, Y: 20}, 1)
	p.SetVelocity(r2.Vec{X: 3, Y: 4})
	ps := []dynamo.Particle{p, dynamo.NewParticle(r2.Vec{X: 0, Y: 5}, 1)}

	// |v| = 5/h with h = 0.5
	if got := Kinetic(ps, 0.5); math.Abs(got-50) > 1e-12 {
		t.Errorf("Kinetic = %v, want 50", got)
	}
	if got := Kinetic(ps, 0); got != 0 {
		t.Errorf("Kinetic with zero step = %v", got)
	}
	if got := Potential(ps, 10); math.Abs(got-250) > 1e-12 {
		t.Errorf("Potential = %v, want 250", got)
	}
}

func TestPenetrations(t *testing.T) {
	g := testGrid(t)
	hash := broadphase.NewSpatialHash(g)
	ps := []dynamo.Particle{
		dynamo.NewParticle(r2.Vec{X: 10, Y: 10}, 5),
		dynamo.NewParticle(r2.Vec{X: 17, Y: 10}, 5),
		dynamo.NewParticle(r2.Vec{X: 60, Y: 60}, 5),
		dynamo.NewParticle(r2.Vec{X: 70, Y: 60}, 5),
	}
	hash.Build(ps)

	depths := Penetrations(hash, ps, nil)
	if len(depths) != 1 || math.Abs(depths[0]-3) > 1e-12 {
		t.Errorf("depths = %v, want [3]", depths)
	}

	maxDepth, mean := OverlapStats([]float64{1, 2, 6})
	if maxDepth != 6 || mean != 3 {
		t.Errorf("OverlapStats = %v, %v", maxDepth, mean)
	}
	if m, a := OverlapStats(nil); m != 0 || a != 0 {
		t.Error("empty stats should be zero")
	}
}

func TestEscaped(t *testing.T) {
	box := physics.ScreenBox(r2.Vec{X: 100, Y: 100})
	ps := []dynamo.Particle{
		dynamo.NewParticle(r2.Vec{X: 50, Y: 50}, 5),
		dynamo.NewParticle(r2.Vec{X: 3, Y: 50}, 5),
		dynamo.NewParticle(r2.Vec{X: 50, Y: 95.5}, 5),
	}
	if n := Escaped(box, ps, 0); n != 2 {
		t.Errorf("Escaped = %d, want 2", n)
	}
	if n := Escaped(box, ps, 1); n != 1 {
		t.Errorf("Escaped with tolerance = %d, want 1", n)
	}
}

func TestMeasureOccupancy(t *testing.T) {
	g := testGrid(t)
	hash := broadphase.NewSpatialHash(g)
	ps := []dynamo.Particle{
		dynamo.NewParticle(r2.Vec{X: 1, Y: 1}, 1),
		dynamo.NewParticle(r2.Vec{X: 2, Y: 2}, 1),
		dynamo.NewParticle(r2.Vec{X: 3, Y: 3}, 1),
		dynamo.NewParticle(r2.Vec{X: 55, Y: 55}, 1),
	}
	hash.Build(ps)

	occ, _ := MeasureOccupancy(hash, nil)
	if occ.Max != 3 || occ.Occupied != 2 || occ.Mean != 2 {
		t.Errorf("occupancy = %+v", occ)
	}
}

func TestEnergyGain(t *testing.T) {
	m := NewEnergyGain()
	ps := []dynamo.Particle{dynamo.NewParticle(r2.Vec{Y: 100}, 1)}

	for _, y := range []float64{100, 90, 95, 80} {
		ps[0].Pos.Y, ps[0].PrevPos.Y = y, y
		m.Observe(&Sample{Particles: ps, SubStep: 1, Gravity: 1})
	}
	if got := m.Value(); math.Abs(got-0.05) > 1e-12 {
		t.Errorf("gain = %v, want 0.05", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("reset did not clear")
	}
}

func TestCollector(t *testing.T) {
	g := testGrid(t)
	box := physics.ScreenBox(r2.Vec{X: 100, Y: 100})
	c := NewCollector(g, box, 0.01, 10, 2)
	for _, m := range DefaultMetrics() {
		c.AddMetric(m)
	}

	clock := time.Unix(0, 0)
	c.now = func() time.Time {
		clock = clock.Add(4 * time.Millisecond)
		return clock
	}
	c.Start()

	ps := []dynamo.Particle{
		dynamo.NewParticle(r2.Vec{X: 10, Y: 10}, 5),
		dynamo.NewParticle(r2.Vec{X: 18, Y: 10}, 5),
	}
	for frame := 1; frame <= 4; frame++ {
		c.OnFrame(frame, float64(frame)*0.1, ps)
	}

	frames := c.Frames()
	if len(frames) != 2 || frames[0].Frame != 2 || frames[1].Frame != 4 {
		t.Fatalf("frames = %+v", frames)
	}
	f := frames[0]
	if f.Particles != 2 || f.OverlapPairs != 1 || math.Abs(f.MaxOverlap-2) > 1e-12 {
		t.Errorf("frame = %+v", f)
	}
	if f.FrameMillis != 4 {
		t.Errorf("frame_ms = %v", f.FrameMillis)
	}
	if v, ok := f.Column("energy"); !ok || v != f.Kinetic+f.Potential {
		t.Error("energy column")
	}
	if _, ok := f.Column("nope"); ok {
		t.Error("unknown column accepted")
	}

	sum := c.Summary()
	if sum["max_overlap"] != 2 || sum["containment"] != 1 || sum["peak_occupancy"] != 2 {
		t.Errorf("summary = %v", sum)
	}

	c.Reset()
	if len(c.Frames()) != 0 || c.Summary()["max_overlap"] != 0 {
		t.Error("reset did not clear")
	}
}
