package viz

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera orbits the origin. Points are rotated about X, then Z, scaled by
// Zoom and projected with a pinhole at distance Dist.
type Camera struct {
	Dist       float64
	Near       float64
	Tilt, Spin float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{Dist: 5, Near: 0.1, Tilt: -1.1, Zoom: 1.0}
}

func (c *Camera) RotateLeft()  { c.Spin -= 0.1 }
func (c *Camera) RotateRight() { c.Spin += 0.1 }
func (c *Camera) ZoomIn()      { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()     { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// RotatePoint applies the camera's spin about Z then its tilt about X.
func (c *Camera) RotatePoint(p r3.Vec) r3.Vec {
	cz, sz := math.Cos(c.Spin), math.Sin(c.Spin)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	cx, sx := math.Cos(c.Tilt), math.Sin(c.Tilt)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	return p
}

// Project converts a point to dot coordinates on a sw×sh canvas.
// Returns x, y, depth, and visibility.
func (c *Camera) Project(p r3.Vec, sw, sh int) (int, int, float64, bool) {
	rot := r3.Scale(c.Zoom, c.RotatePoint(p))
	if rot.Z >= c.Dist-c.Near {
		return 0, 0, 0, false
	}
	scale := c.Dist / (c.Dist - rot.Z)
	pScale := math.Min(float64(sw), float64(sh)) / 3.0
	sx := int(rot.X*scale*pScale) + sw/2
	sy := int(-rot.Y*scale*pScale) + sh/2
	return sx, sy, rot.Z, sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

type Edge struct {
	Start, End r3.Vec
	Radius     int
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe                     { return &Wireframe{Edges: make([]Edge, 0)} }
func (w *Wireframe) AddEdge(s, e r3.Vec)           { w.Edges = append(w.Edges, Edge{Start: s, End: e}) }
func (w *Wireframe) AddPoint(p r3.Vec, radius int) { w.Edges = append(w.Edges, Edge{Start: p, End: p, Radius: radius}) }

// AddRing adds a horizontal circle of the given radius around center.
func (w *Wireframe) AddRing(center r3.Vec, radius float64, segments int) {
	prev := r3.Add(center, r3.Vec{X: radius})
	for i := 1; i <= segments; i++ {
		a := float64(i) * 2 * math.Pi / float64(segments)
		next := r3.Add(center, r3.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)})
		w.AddEdge(prev, next)
		prev = next
	}
}

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
	radius         int
}

// Render3D draws the wireframe far to near.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	cw, ch := c.Dots()
	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := cam.Project(e.Start, cw, ch)
		x2, y2, d2, v2 := cam.Project(e.End, cw, ch)
		if v1 || v2 {
			proj = append(proj, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2, e.Radius})
		}
	}
	sort.SliceStable(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, e := range proj {
		if e.x1 == e.x2 && e.y1 == e.y2 {
			c.Blob(e.x1, e.y1, e.radius)
		} else {
			c.DrawLine(e.x1, e.y1, e.x2, e.y2)
		}
	}
}
