package analysis

import (
	"math"
	"strings"
)

// PhasePortrait2D holds points of a 2D phase space plot.
type PhasePortrait2D struct {
	Points []struct{ X, Y float64 }
}

// PhaseFromSeries pairs each sample with its central-difference rate of
// change, dropping the two endpoints.
func PhaseFromSeries(series []float64, dt float64) *PhasePortrait2D {
	if len(series) < 3 || dt <= 0 {
		return nil
	}
	portrait := &PhasePortrait2D{
		Points: make([]struct{ X, Y float64 }, 0, len(series)-2),
	}
	for i := 1; i < len(series)-1; i++ {
		portrait.Points = append(portrait.Points, struct{ X, Y float64 }{
			X: series[i],
			Y: (series[i+1] - series[i-1]) / (2 * dt),
		})
	}
	return portrait
}

// ASCII renders the portrait on a width×height character grid with 10%
// padding and axes where zero is visible.
func (p *PhasePortrait2D) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, pt := range p.Points {
		minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
		minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
	}
	minX, maxX = pad(minX, maxX)
	minY, maxY = pad(minY, maxY)

	col := func(x float64) int { return int((x - minX) / (maxX - minX) * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/(maxY-minY)*float64(height-1)) }

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	if minX <= 0 && maxX >= 0 {
		c := col(0)
		for r := range canvas {
			canvas[r][c] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		r := row(0)
		for c := range canvas[r] {
			canvas[r][c] = '─'
		}
	}
	for _, pt := range p.Points {
		canvas[row(pt.Y)][col(pt.X)] = '•'
	}

	var sb strings.Builder
	for _, r := range canvas {
		sb.WriteString(string(r))
		sb.WriteRune('\n')
	}
	return sb.String()
}

func pad(lo, hi float64) (float64, float64) {
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return lo - span*0.1, hi + span*0.1
}
