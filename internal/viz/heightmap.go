package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/swarmfield/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

// Terrain is the part of a simulation the map view samples.
type Terrain interface {
	HeightAt(pos r3.Vec) (float64, error)
}

var terrainRamp = []rune(" .:-=+*#%@")

type cellKind uint8

const (
	cellRaised cellKind = iota
	cellSunk
	cellOutside
	cellParticle
	cellAnchor
)

// Heightmap renders a top-down view of the terrain centered on center,
// spanning ±halfSpan world units horizontally. Character cells are about
// twice as tall as wide, so the vertical span is scaled to keep the map
// square. Shading is relative to the largest height in view.
func Heightmap(t Terrain, particles []physics.Particle, center r3.Vec, w, h int, halfSpan float64) string {
	if w < 1 || h < 1 {
		return ""
	}
	ySpan := halfSpan * float64(2*h) / float64(w)

	runes := make([][]rune, h)
	kinds := make([][]cellKind, h)
	heights := make([][]float64, h)
	peak := 0.0
	for row := 0; row < h; row++ {
		runes[row] = make([]rune, w)
		kinds[row] = make([]cellKind, w)
		heights[row] = make([]float64, w)
		for col := 0; col < w; col++ {
			pos := r3.Vec{
				X: center.X + ((float64(col)+0.5)/float64(w)*2-1)*halfSpan,
				Y: center.Y + (1-(float64(row)+0.5)/float64(h)*2)*ySpan,
			}
			v, err := t.HeightAt(pos)
			if err != nil {
				v = math.NaN()
			}
			heights[row][col] = v
			if !math.IsNaN(v) {
				peak = math.Max(peak, math.Abs(v))
			}
		}
	}

	for row := range heights {
		for col, v := range heights[row] {
			switch {
			case math.IsNaN(v):
				runes[row][col], kinds[row][col] = '░', cellOutside
			case peak == 0:
				runes[row][col], kinds[row][col] = ' ', cellRaised
			default:
				idx := int(math.Abs(v) / peak * float64(len(terrainRamp)-1))
				runes[row][col] = terrainRamp[idx]
				kinds[row][col] = cellRaised
				if v < 0 {
					kinds[row][col] = cellSunk
				}
			}
		}
	}

	place := func(p r3.Vec, r rune, k cellKind) {
		col := int(math.Floor((p.X-center.X)/halfSpan*float64(w)/2 + float64(w)/2))
		row := int(math.Floor((center.Y-p.Y)/ySpan*float64(h)/2 + float64(h)/2))
		if row >= 0 && row < h && col >= 0 && col < w {
			runes[row][col], kinds[row][col] = r, k
		}
	}
	place(center, '+', cellAnchor)
	for _, p := range particles {
		place(p.Pos, 'o', cellParticle)
	}

	styles := map[cellKind]lipgloss.Style{
		cellRaised:   fg(CurrentTheme.Raised),
		cellSunk:     fg(CurrentTheme.Sunk),
		cellOutside:  fg(CurrentTheme.Muted),
		cellParticle: fg(CurrentTheme.Particle).Bold(true),
		cellAnchor:   fg(CurrentTheme.Anchor).Bold(true),
	}

	var b strings.Builder
	for row := 0; row < h; row++ {
		start := 0
		for col := 1; col <= w; col++ {
			if col < w && kinds[row][col] == kinds[row][start] {
				continue
			}
			b.WriteString(styles[kinds[row][start]].Render(string(runes[row][start:col])))
			start = col
		}
		b.WriteByte('\n')
	}
	return b.String()
}
