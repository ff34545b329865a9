package physics

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

const DefaultRestitution = 0.25

// Box is an axis-aligned container centred on Center.
type Box struct {
	Size        r2.Vec
	Center      r2.Vec
	Restitution float64
}

func NewBox(size, center r2.Vec) *Box {
	return &Box{Size: size, Center: center, Restitution: DefaultRestitution}
}

// ScreenBox covers the rectangle [0, size] on both axes.
func ScreenBox(size r2.Vec) *Box {
	return NewBox(size, r2.Scale(0.5, size))
}

// Bounds returns the left, right, bottom and top edges.
func (b *Box) Bounds() (left, right, bottom, top float64) {
	half := r2.Scale(0.5, b.Size)
	return b.Center.X - half.X, b.Center.X + half.X, b.Center.Y - half.Y, b.Center.Y + half.Y
}

// Constrain reflects every particle whose circle crosses an edge.
//
// The penetration depth d is mirrored back inside (2d) and the retained
// displacement is scaled by the restitution coefficient. Axes are handled
// independently so a particle in a corner is corrected on both.
func (b *Box) Constrain(ps []dynamo.Particle) {
	left, right, bottom, top := b.Bounds()
	e := b.Restitution

	for i := range ps {
		p := &ps[i]
		p.Pos.X, p.PrevPos.X = reflect(p.Pos.X, p.PrevPos.X, p.Radius, left, right, e)
		p.Pos.Y, p.PrevPos.Y = reflect(p.Pos.Y, p.PrevPos.Y, p.Radius, bottom, top, e)
	}
}

func reflect(pos, prev, radius, lo, hi, e float64) (float64, float64) {
	switch {
	case pos+radius > hi:
		displacement := pos - prev
		pos -= 2 * (pos + radius - hi)
		prev = pos + e*displacement
	case pos-radius < lo:
		displacement := prev - pos
		pos += 2 * (lo - (pos - radius))
		prev = pos - e*displacement
	}
	return pos, prev
}
