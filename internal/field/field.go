package field

import (
	"fmt"
	"math"

	"github.com/san-kum/swarmfield/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	DefaultExtent       = 512
	DefaultScale        = 4.0
	DefaultCenterOffset = 256.0
	DefaultSigma        = 2.0
	DefaultKernelRadius = 6
	DefaultQuantum      = 1e-3
)

// diagonalWeight scales the diagonal neighbours of the gradient stencil by
// the inverse of their distance.
var diagonalWeight = 1 / math.Sqrt2

type Config struct {
	Extent       int
	Scale        float64
	CenterOffset float64
	Sigma        float64
	KernelRadius int
	Quantum      float64
}

func DefaultConfig() Config {
	return Config{
		Extent:       DefaultExtent,
		Scale:        DefaultScale,
		CenterOffset: DefaultCenterOffset,
		Sigma:        DefaultSigma,
		KernelRadius: DefaultKernelRadius,
		Quantum:      DefaultQuantum,
	}
}

func (c Config) Validate() error {
	if c.Extent < 3 {
		return fmt.Errorf("%w: field extent must be at least 3, got %d", dynamo.ErrInvalidConfig, c.Extent)
	}
	if c.Scale <= 0 {
		return fmt.Errorf("%w: field scale must be positive, got %f", dynamo.ErrInvalidConfig, c.Scale)
	}
	if !(c.CenterOffset >= 1 && c.CenterOffset <= float64(c.Extent-2)) {
		return fmt.Errorf("%w: center offset must lie in [1, %d], got %f", dynamo.ErrInvalidConfig, c.Extent-2, c.CenterOffset)
	}
	if c.Sigma <= 0 {
		return fmt.Errorf("%w: kernel sigma must be positive, got %f", dynamo.ErrInvalidConfig, c.Sigma)
	}
	if c.KernelRadius < 1 {
		return fmt.Errorf("%w: kernel radius must be at least 1, got %d", dynamo.ErrInvalidConfig, c.KernelRadius)
	}
	if c.Quantum <= 0 {
		return fmt.Errorf("%w: magnitude quantum must be positive, got %f", dynamo.ErrInvalidConfig, c.Quantum)
	}
	return nil
}

// Record is one accumulation applied to the field.
type Record struct {
	Bucket int
	X, Y   float64

	cellX, cellY int
}

// DeformableField is a scalar terrain shaped by additive kernel deformations.
// Every deformation is recorded so Flatten can undo them by replaying each
// one with its magnitude negated.
type DeformableField struct {
	mapper  Mapper
	grid    *Grid
	kernels *KernelCache
	history []Record
}

func New(cfg Config) *DeformableField {
	return &DeformableField{
		mapper: Mapper{
			Extent: cfg.Extent,
			Scale:  cfg.Scale,
			Offset: cfg.CenterOffset,
		},
		grid:    NewGrid(cfg.Extent),
		kernels: NewKernelCache(KernelShape{Sigma: cfg.Sigma, Radius: cfg.KernelRadius}, cfg.Quantum),
		history: make([]Record, 0, 256),
	}
}

// Deform blends the kernel for magnitude into the grid centered at pos.
// Kernel cells falling outside the grid are dropped.
func (f *DeformableField) Deform(pos r3.Vec, magnitude float64) error {
	cx, cy, err := f.mapper.Cell(pos)
	if err != nil {
		return err
	}
	bucket := f.kernels.Bucket(magnitude)
	f.blend(cx, cy, f.kernels.Get(bucket))
	f.history = append(f.history, Record{
		Bucket: bucket,
		X:      pos.X,
		Y:      pos.Y,
		cellX:  cx,
		cellY:  cy,
	})
	return nil
}

func (f *DeformableField) blend(cx, cy int, k *Kernel) {
	if k.Bucket == 0 {
		return
	}
	size := k.Size()
	for ky := 0; ky < size; ky++ {
		y := cy + ky - k.Radius
		for kx := 0; kx < size; kx++ {
			x := cx + kx - k.Radius
			if !f.grid.InRange(x, y) {
				continue
			}
			if v := k.Values[ky*size+kx]; v != 0 {
				f.grid.Add(x, y, v)
			}
		}
	}
}

// Flatten reverts every recorded deformation and clears the history.
func (f *DeformableField) Flatten() {
	for i := len(f.history) - 1; i >= 0; i-- {
		r := f.history[i]
		f.blend(r.cellX, r.cellY, f.kernels.Get(-r.Bucket))
	}
	f.history = f.history[:0]
}

// HeightAt returns the field value of the cell under pos.
func (f *DeformableField) HeightAt(pos r3.Vec) (float64, error) {
	cx, cy, err := f.mapper.Cell(pos)
	if err != nil {
		return 0, err
	}
	return f.grid.At(cx, cy), nil
}

// GradientAt returns the downhill push at pos in world units: the negated
// slope estimated from the eight neighbours of the mapped cell,
//
//	gx = [(h(+1,0) - h(-1,0)) + w(h(+1,+1) + h(+1,-1) - h(-1,+1) - h(-1,-1))] / (2 + 4w)
//
// with w = 1/√2, and likewise for gy. The stencil is exact on linear ramps.
// Z is always zero.
func (f *DeformableField) GradientAt(pos r3.Vec) (r3.Vec, error) {
	cx, cy, err := f.mapper.Cell(pos)
	if err != nil {
		return r3.Vec{}, err
	}
	h := func(dx, dy int) float64 { return f.grid.At(cx+dx, cy+dy) }
	w := diagonalWeight
	norm := 2 + 4*w

	gx := (h(1, 0) - h(-1, 0)) + w*(h(1, 1)+h(1, -1)-h(-1, 1)-h(-1, -1))
	gy := (h(0, 1) - h(0, -1)) + w*(h(1, 1)+h(-1, 1)-h(1, -1)-h(-1, -1))

	s := f.mapper.Scale / norm
	return r3.Vec{X: -gx * s, Y: -gy * s}, nil
}

// Records returns the number of deformations currently applied.
func (f *DeformableField) Records() int { return len(f.history) }

func (f *DeformableField) KernelStats() CacheStats { return f.kernels.Stats() }

func (f *DeformableField) Mapper() Mapper { return f.mapper }

func (f *DeformableField) Bounds() Rect { return f.mapper.Bounds() }

// Peak returns the largest absolute height and the world position of its cell.
func (f *DeformableField) Peak() (float64, r3.Vec) {
	v, cx, cy := f.grid.Peak()
	x, y := f.mapper.World(cx, cy)
	return v, r3.Vec{X: x, Y: y}
}

// TouchedTiles is the number of grid tiles that have been allocated.
func (f *DeformableField) TouchedTiles() int { return f.grid.Tiles() }
