package field

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// KernelShape fixes the truncated Gaussian falloff shared by every kernel:
//
//	k(dx, dy) = amplitude * exp(-(dx²+dy²) / (2σ²))   for dx²+dy² <= R²
//
// and zero outside the radius. Sigma and Radius are measured in cells.
type KernelShape struct {
	Sigma  float64
	Radius int
}

// Size is the kernel's side length, always odd so the kernel has a center cell.
func (s KernelShape) Size() int { return 2*s.Radius + 1 }

// Kernel is a square matrix of per-cell contributions, stored row-major.
type Kernel struct {
	Bucket int
	Radius int
	Values []float64
}

func newKernel(shape KernelShape, bucket int, amplitude float64) *Kernel {
	size := shape.Size()
	k := &Kernel{
		Bucket: bucket,
		Radius: shape.Radius,
		Values: make([]float64, size*size),
	}
	r2 := float64(shape.Radius * shape.Radius)
	twoSigma2 := 2 * shape.Sigma * shape.Sigma
	for dy := -shape.Radius; dy <= shape.Radius; dy++ {
		for dx := -shape.Radius; dx <= shape.Radius; dx++ {
			d2 := float64(dx*dx + dy*dy)
			if d2 > r2 {
				continue
			}
			k.Values[(dy+shape.Radius)*size+(dx+shape.Radius)] = amplitude * math.Exp(-d2/twoSigma2)
		}
	}
	return k
}

// Size is the side length of the kernel.
func (k *Kernel) Size() int { return 2*k.Radius + 1 }

// At returns the contribution at offset (dx, dy) from the center.
func (k *Kernel) At(dx, dy int) float64 {
	if dx < -k.Radius || dx > k.Radius || dy < -k.Radius || dy > k.Radius {
		return 0
	}
	return k.Values[(dy+k.Radius)*k.Size()+(dx+k.Radius)]
}

// Mass is the sum of all contributions.
func (k *Kernel) Mass() float64 {
	return floats.Sum(k.Values)
}

// CacheStats counts kernel cache lookups.
type CacheStats struct {
	Hits   int
	Misses int
	Size   int
}

// KernelCache memoizes kernels by quantized magnitude. Magnitudes are rounded
// to the nearest multiple of Quantum, so the bucket is an explicit
// quantization rather than a truncating integer cast.
type KernelCache struct {
	shape   KernelShape
	quantum float64
	kernels map[int]*Kernel
	hits    int
	misses  int
}

func NewKernelCache(shape KernelShape, quantum float64) *KernelCache {
	return &KernelCache{
		shape:   shape,
		quantum: quantum,
		kernels: make(map[int]*Kernel),
	}
}

// Bucket quantizes a magnitude to its cache key.
func (c *KernelCache) Bucket(magnitude float64) int {
	return int(math.Round(magnitude / c.quantum))
}

// Amplitude is the peak value of the kernel for bucket.
func (c *KernelCache) Amplitude(bucket int) float64 {
	return float64(bucket) * c.quantum
}

// Get returns the kernel for bucket, computing and inserting it on first use.
func (c *KernelCache) Get(bucket int) *Kernel {
	if k, ok := c.kernels[bucket]; ok {
		c.hits++
		return k
	}
	c.misses++
	k := newKernel(c.shape, bucket, c.Amplitude(bucket))
	c.kernels[bucket] = k
	return k
}

func (c *KernelCache) Stats() CacheStats {
	return CacheStats{Hits: c.hits, Misses: c.misses, Size: len(c.kernels)}
}

func (c *KernelCache) Shape() KernelShape { return c.shape }
