package tui

import (
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

const brailleBlank = 0x2800

// Braille cells are 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille dot canvas of Width x Height cells, i.e. 2*Width x
// 4*Height dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at (x, y); dots outside the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// Dots counts lit dots.
func (c *Canvas) Dots() int {
	n := 0
	for _, row := range c.Grid {
		for _, cell := range row {
			for bits := cell - brailleBlank; bits != 0; bits &= bits - 1 {
				n++
			}
		}
	}
	return n
}

// FillCircle lights every dot within r of (cx, cy), and at least the centre.
func (c *Canvas) FillCircle(cx, cy, r float64) {
	x0, y0 := int(cx), int(cy)
	c.Set(x0, y0)
	ri := int(r)
	rr := r * r
	for dy := -ri; dy <= ri; dy++ {
		for dx := -ri; dx <= ri; dx++ {
			if float64(dx*dx+dy*dy) <= rr {
				c.Set(x0+dx, y0+dy)
			}
		}
	}
}

// Plot draws ps, mapping the screen rectangle onto the canvas with y up.
func (c *Canvas) Plot(ps []dynamo.Particle, screen r2.Vec) {
	sx := float64(2*c.Width) / screen.X
	sy := float64(4*c.Height) / screen.Y
	scale := min(sx, sy)
	for i := range ps {
		p := &ps[i]
		c.FillCircle(p.Pos.X*sx, (screen.Y-p.Pos.Y)*sy, p.Radius*scale)
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.Grid {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(row))
	}
	return b.String()
}
