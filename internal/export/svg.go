package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/swarmfield/internal/physics"
	"github.com/san-kum/swarmfield/internal/viz"
	"gonum.org/v1/gonum/spatial/r3"
)

const background = "#0a0a0a"

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// CanvasToSVG converts a Braille canvas to SVG, one circle per lit dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64, theme viz.Theme) string {
	if canvas == nil {
		return ""
	}
	w, h := canvas.Dots()

	var sb strings.Builder
	header(&sb, float64(w)*scale, float64(h)*scale)
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", theme.Raised)

	pixelMap := [4][2]int{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}
	dotRadius := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r < 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)
			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4

			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] != 0 {
						fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
							baseX+float64(dx)*scale+scale/2, baseY+float64(dy)*scale+scale/2, dotRadius)
					}
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// TerrainToSVG draws the terrain around center as a cells x cells grid of
// squares spanning ±halfSpan world units. Raised cells use the theme's
// Raised color and sunk cells its Sunk color, with opacity scaled to the
// largest height in view. Particles are drawn on top, the anchor as a ring.
func TerrainToSVG(t viz.Terrain, particles []physics.Particle, center r3.Vec, halfSpan float64, cells int, cellSize float64, theme viz.Theme) string {
	if cells < 1 || halfSpan <= 0 {
		return ""
	}
	size := float64(cells) * cellSize
	step := 2 * halfSpan / float64(cells)

	heights := make([]float64, cells*cells)
	peak := 0.0
	for row := 0; row < cells; row++ {
		for col := 0; col < cells; col++ {
			pos := r3.Vec{
				X: center.X - halfSpan + (float64(col)+0.5)*step,
				Y: center.Y + halfSpan - (float64(row)+0.5)*step,
			}
			v, err := t.HeightAt(pos)
			if err != nil {
				v = math.NaN()
			}
			heights[row*cells+col] = v
			if !math.IsNaN(v) {
				peak = math.Max(peak, math.Abs(v))
			}
		}
	}

	var sb strings.Builder
	header(&sb, size, size)
	for i, v := range heights {
		if v == 0 || (!math.IsNaN(v) && peak == 0) {
			continue
		}
		x := float64(i%cells) * cellSize
		y := float64(i/cells) * cellSize
		if math.IsNaN(v) {
			fmt.Fprintf(&sb, "<rect x=\"%.1f\" y=\"%.1f\" width=\"%.1f\" height=\"%.1f\" fill=\"%s\"/>\n",
				x, y, cellSize, cellSize, theme.Muted)
			continue
		}
		color := theme.Raised
		if v < 0 {
			color = theme.Sunk
		}
		fmt.Fprintf(&sb, "<rect x=\"%.1f\" y=\"%.1f\" width=\"%.1f\" height=\"%.1f\" fill=\"%s\" fill-opacity=\"%.3f\"/>\n",
			x, y, cellSize, cellSize, color, math.Abs(v)/peak)
	}

	toSVG := func(p r3.Vec) (float64, float64) {
		return (p.X - center.X + halfSpan) / step * cellSize, (center.Y + halfSpan - p.Y) / step * cellSize
	}
	ax, ay := toSVG(center)
	fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"none\" stroke=\"%s\"/>\n", ax, ay, cellSize, theme.Anchor)
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", theme.Particle)
	for _, p := range particles {
		px, py := toSVG(p.Pos)
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", px, py, cellSize/2)
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// TrajectoryToSVG draws the top-down path of a sequence of positions.
func TrajectoryToSVG(points []r3.Vec, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor)

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
