package field

const (
	tileShift = 5
	tileSize  = 1 << tileShift
	tileMask  = tileSize - 1
)

type tileKey struct{ tx, ty int }

type tile [tileSize * tileSize]float64

// Grid is a fixed-extent square scalar grid stored as lazily allocated tiles.
// Cells that were never written read as zero.
type Grid struct {
	extent int
	tiles  map[tileKey]*tile
}

func NewGrid(extent int) *Grid {
	return &Grid{
		extent: extent,
		tiles:  make(map[tileKey]*tile),
	}
}

func (g *Grid) Extent() int { return g.extent }

// InRange reports whether (x, y) is a cell of the grid.
func (g *Grid) InRange(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.extent && y < g.extent
}

// At returns the value of cell (x, y).
func (g *Grid) At(x, y int) float64 {
	t, ok := g.tiles[tileKey{x >> tileShift, y >> tileShift}]
	if !ok {
		return 0
	}
	return t[(y&tileMask)<<tileShift|(x&tileMask)]
}

// Add accumulates v into cell (x, y).
func (g *Grid) Add(x, y int, v float64) {
	key := tileKey{x >> tileShift, y >> tileShift}
	t, ok := g.tiles[key]
	if !ok {
		t = new(tile)
		g.tiles[key] = t
	}
	t[(y&tileMask)<<tileShift|(x&tileMask)] += v
}

// Tiles is the number of allocated tiles.
func (g *Grid) Tiles() int { return len(g.tiles) }

// Peak returns the largest absolute cell value and its cell.
func (g *Grid) Peak() (float64, int, int) {
	peak, px, py := 0.0, 0, 0
	for key, t := range g.tiles {
		for i, v := range t {
			if v < 0 {
				v = -v
			}
			if v > peak {
				peak = v
				px = key.tx<<tileShift | i&tileMask
				py = key.ty<<tileShift | i>>tileShift
			}
		}
	}
	return peak, px, py
}
