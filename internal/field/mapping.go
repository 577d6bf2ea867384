package field

import (
	"math"

	"github.com/san-kum/swarmfield/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mapper converts continuous world coordinates to grid cells with
// cell = round(world*Scale + Offset) on each horizontal axis.
// Valid cells keep a one-cell margin so neighbour sampling never leaves the grid.
type Mapper struct {
	Extent int
	Scale  float64
	Offset float64
}

// MinCell and MaxCell bound the mapped cell index on both axes.
func (m Mapper) MinCell() int { return 1 }
func (m Mapper) MaxCell() int { return m.Extent - 2 }

// Cell maps pos to its grid cell. Z is ignored.
func (m Mapper) Cell(pos r3.Vec) (int, int, error) {
	cx, okX := m.axis(pos.X)
	cy, okY := m.axis(pos.Y)
	if !okX || !okY {
		return cx, cy, &dynamo.BoundsError{
			X: pos.X, Y: pos.Y,
			CellX: cx, CellY: cy,
			Min: m.MinCell(), Max: m.MaxCell(),
		}
	}
	return cx, cy, nil
}

func (m Mapper) axis(w float64) (int, bool) {
	c := math.Round(w*m.Scale + m.Offset)
	switch {
	case math.IsNaN(c):
		return -1, false
	case c < float64(m.MinCell()):
		return int(math.Max(c, math.MinInt32)), false
	case c > float64(m.MaxCell()):
		return int(math.Min(c, math.MaxInt32)), false
	}
	return int(c), true
}

// World returns the world coordinates of the center of cell (cx, cy).
func (m Mapper) World(cx, cy int) (float64, float64) {
	return (float64(cx) - m.Offset) / m.Scale, (float64(cy) - m.Offset) / m.Scale
}

// Rect is an axis-aligned world rectangle.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Contains reports whether (x, y) lies inside r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Bounds spans the centers of the first and last valid cells.
func (m Mapper) Bounds() Rect {
	minX, minY := m.World(m.MinCell(), m.MinCell())
	maxX, maxY := m.World(m.MaxCell(), m.MaxCell())
	return Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}
