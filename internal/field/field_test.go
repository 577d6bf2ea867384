package field

import (
	"math"
	"testing"

	"github.com/san-kum/swarmfield/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

var samplePoints = []r3.Vec{
	{X: 0, Y: 0},
	{X: 0.25, Y: -0.5},
	{X: 1, Y: 1},
	{X: -3.2, Y: 2.7},
	{X: 10, Y: -10},
	{X: 63.5, Y: -63.75},
}

func TestMapperCell(t *testing.T) {
	m := DefaultConfig()
	mapper := New(m).Mapper()

	tests := []struct {
		name   string
		pos    r3.Vec
		cx, cy int
		ok     bool
	}{
		{"origin", r3.Vec{}, 256, 256, true},
		{"quarter cell rounds", r3.Vec{X: 0.1, Y: -0.1}, 256, 256, true},
		{"one unit", r3.Vec{X: 1, Y: -1}, 260, 252, true},
		{"z ignored", r3.Vec{Z: 1e6}, 256, 256, true},
		{"upper edge", r3.Vec{X: 63.5}, 510, 256, true},
		{"lower edge", r3.Vec{Y: -63.75}, 256, 1, true},
		{"past upper edge", r3.Vec{X: 63.7}, 511, 256, false},
		{"past lower edge", r3.Vec{Y: -64}, 256, 0, false},
		{"far away", r3.Vec{X: 100}, 656, 256, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cx, cy, err := mapper.Cell(tt.pos)
			if !tt.ok {
				require.ErrorIs(t, err, dynamo.ErrOutOfBounds)
				var be *dynamo.BoundsError
				require.ErrorAs(t, err, &be)
				assert.Equal(t, tt.cx, be.CellX)
				assert.Equal(t, tt.cy, be.CellY)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cx, cx)
			assert.Equal(t, tt.cy, cy)
		})
	}
}

func TestMapperNaN(t *testing.T) {
	mapper := New(DefaultConfig()).Mapper()
	_, _, err := mapper.Cell(r3.Vec{X: math.NaN()})
	assert.ErrorIs(t, err, dynamo.ErrOutOfBounds)

	_, _, err = mapper.Cell(r3.Vec{Y: math.Inf(1)})
	assert.ErrorIs(t, err, dynamo.ErrOutOfBounds)
}

func TestMapperBounds(t *testing.T) {
	mapper := New(DefaultConfig()).Mapper()
	b := mapper.Bounds()

	assert.InDelta(t, -63.75, b.MinX, 1e-12)
	assert.InDelta(t, 63.5, b.MaxX, 1e-12)
	assert.True(t, b.Contains(0, 0))
	assert.False(t, b.Contains(64, 0))

	for _, p := range []r3.Vec{{X: b.MinX, Y: b.MinY}, {X: b.MaxX, Y: b.MaxY}} {
		_, _, err := mapper.Cell(p)
		assert.NoError(t, err, "bounds corner %v must map inside", p)
	}
}

func TestKernelShape(t *testing.T) {
	cache := NewKernelCache(KernelShape{Sigma: 2, Radius: 6}, 1e-3)
	k := cache.Get(16)

	assert.Equal(t, 13, k.Size())
	assert.Equal(t, 1, k.Size()%2, "kernel size must be odd")
	assert.InDelta(t, 0.016, k.At(0, 0), 1e-15)

	for dy := -k.Radius; dy <= k.Radius; dy++ {
		for dx := -k.Radius; dx <= k.Radius; dx++ {
			assert.Equal(t, k.At(dx, dy), k.At(-dx, dy))
			assert.Equal(t, k.At(dx, dy), k.At(dy, dx))
			assert.LessOrEqual(t, k.At(dx, dy), k.At(0, 0))
		}
	}

	assert.Zero(t, k.At(6, 6), "corner lies outside the truncation radius")
	assert.Zero(t, k.At(7, 0), "offsets outside the matrix are zero")
	assert.Greater(t, k.At(6, 0), 0.0)
	assert.Greater(t, k.Mass(), k.At(0, 0))
}

func TestKernelNegation(t *testing.T) {
	cache := NewKernelCache(KernelShape{Sigma: 2, Radius: 6}, 1e-3)
	pos, neg := cache.Get(7), cache.Get(-7)

	for i := range pos.Values {
		assert.Equal(t, -pos.Values[i], neg.Values[i])
	}
}

func TestKernelCacheQuantization(t *testing.T) {
	cache := NewKernelCache(KernelShape{Sigma: 2, Radius: 6}, 1e-3)

	tests := []struct {
		magnitude float64
		bucket    int
	}{
		{0.0104, 10},
		{0.0096, 10},
		{0.0093, 9},
		{-0.0104, -10},
		{0.0004, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.bucket, cache.Bucket(tt.magnitude), "magnitude %v", tt.magnitude)
	}
}

func TestDeformMemoizesKernel(t *testing.T) {
	f := New(DefaultConfig())

	require.NoError(t, f.Deform(r3.Vec{X: 1}, 0.016))
	stats := f.KernelStats()
	assert.Equal(t, CacheStats{Hits: 0, Misses: 1, Size: 1}, stats)

	require.NoError(t, f.Deform(r3.Vec{X: -4, Y: 2}, 0.016))
	stats = f.KernelStats()
	assert.Equal(t, CacheStats{Hits: 1, Misses: 1, Size: 1}, stats)

	// same bucket after quantization
	require.NoError(t, f.Deform(r3.Vec{}, 0.0161))
	assert.Equal(t, 2, f.KernelStats().Hits)
	assert.Equal(t, 1, f.KernelStats().Size)
}

func TestZeroFieldBaseline(t *testing.T) {
	f := New(DefaultConfig())

	for _, p := range samplePoints {
		h, err := f.HeightAt(p)
		require.NoError(t, err)
		assert.Zero(t, h)

		g, err := f.GradientAt(p)
		require.NoError(t, err)
		assert.Equal(t, r3.Vec{}, g)
	}
	assert.Zero(t, f.TouchedTiles())
}

func TestFlattenRestoresField(t *testing.T) {
	f := New(DefaultConfig())

	deforms := []struct {
		pos r3.Vec
		mag float64
	}{
		{r3.Vec{}, 0.016},
		{r3.Vec{X: 0.3, Y: 0.1}, 0.0167},
		{r3.Vec{X: 1, Y: 1}, 0.5},
		{r3.Vec{X: -3, Y: 2.5}, -0.25},
		{r3.Vec{X: 63.5, Y: -63.75}, 1.3},
		{r3.Vec{X: 0.3, Y: 0.1}, 0.0167},
	}
	for i := 0; i < 20; i++ {
		for _, d := range deforms {
			require.NoError(t, f.Deform(d.pos, d.mag))
		}
	}
	assert.Equal(t, 20*len(deforms), f.Records())

	h, err := f.HeightAt(r3.Vec{X: 1, Y: 1})
	require.NoError(t, err)
	assert.Greater(t, h, 1.0)

	f.Flatten()
	assert.Zero(t, f.Records())

	for _, p := range samplePoints {
		h, err := f.HeightAt(p)
		require.NoError(t, err)
		assert.InDelta(t, 0, h, 1e-9, "height at %v", p)

		g, err := f.GradientAt(p)
		require.NoError(t, err)
		assert.InDelta(t, 0, r3.Norm(g), 1e-8, "gradient at %v", p)
	}
}

func TestFlattenRestoresPriorState(t *testing.T) {
	f := New(DefaultConfig())
	base := r3.Vec{X: 2, Y: -1}

	before := make([]float64, len(samplePoints))
	for i, p := range samplePoints {
		before[i], _ = f.HeightAt(p)
	}

	require.NoError(t, f.Deform(base, 0.2))
	require.NoError(t, f.Deform(r3.Vec{X: 2.5, Y: -1}, 0.04))
	f.Flatten()

	for i, p := range samplePoints {
		h, err := f.HeightAt(p)
		require.NoError(t, err)
		assert.InDelta(t, before[i], h, 1e-12)
	}

	// the field is reusable after flattening
	require.NoError(t, f.Deform(base, 0.2))
	h, err := f.HeightAt(base)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, h, 1e-12)
	assert.Equal(t, 1, f.Records())
}

func TestGradientPointsDownhill(t *testing.T) {
	f := New(DefaultConfig())
	require.NoError(t, f.Deform(r3.Vec{}, 1.0))

	g, err := f.GradientAt(r3.Vec{X: 1})
	require.NoError(t, err)
	assert.Greater(t, g.X, 0.0, "east of a peak the push is eastward")
	assert.InDelta(t, 0, g.Y, 1e-12)
	assert.Zero(t, g.Z)

	g, err = f.GradientAt(r3.Vec{Y: -1})
	require.NoError(t, err)
	assert.Less(t, g.Y, 0.0)
	assert.InDelta(t, 0, g.X, 1e-12)

	g, err = f.GradientAt(r3.Vec{})
	require.NoError(t, err)
	assert.InDelta(t, 0, r3.Norm(g), 1e-12, "the summit is flat")
}

func TestGradientExactOnRamp(t *testing.T) {
	f := New(DefaultConfig())
	const slopeX, slopeY = 0.5, -0.25

	for y := 200; y < 320; y++ {
		for x := 200; x < 320; x++ {
			f.grid.Add(x, y, slopeX*float64(x)+slopeY*float64(y))
		}
	}

	g, err := f.GradientAt(r3.Vec{X: 3, Y: 4})
	require.NoError(t, err)
	assert.InDelta(t, -slopeX*DefaultScale, g.X, 1e-9)
	assert.InDelta(t, -slopeY*DefaultScale, g.Y, 1e-9)
}

func TestBoundsFailure(t *testing.T) {
	f := New(DefaultConfig())
	far := r3.Vec{X: 1000, Y: 3}

	_, err := f.HeightAt(far)
	assert.ErrorIs(t, err, dynamo.ErrOutOfBounds)

	_, err = f.GradientAt(far)
	assert.ErrorIs(t, err, dynamo.ErrOutOfBounds)

	err = f.Deform(far, 0.1)
	assert.ErrorIs(t, err, dynamo.ErrOutOfBounds)
	assert.Zero(t, f.Records(), "failed deform must not be recorded")
	assert.Zero(t, f.TouchedTiles())
}

func TestDeformClipsAtEdge(t *testing.T) {
	f := New(DefaultConfig())
	edge := r3.Vec{X: 63.5, Y: 63.5}

	require.NoError(t, f.Deform(edge, 0.5))
	h, err := f.HeightAt(edge)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, h, 1e-12)

	peak, at := f.Peak()
	assert.InDelta(t, 0.5, peak, 1e-12)
	assert.InDelta(t, 63.5, at.X, 1e-12)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"tiny extent", func(c *Config) { c.Extent = 2 }},
		{"zero scale", func(c *Config) { c.Scale = 0 }},
		{"negative sigma", func(c *Config) { c.Sigma = -1 }},
		{"zero radius", func(c *Config) { c.KernelRadius = 0 }},
		{"zero quantum", func(c *Config) { c.Quantum = 0 }},
		{"offset below grid", func(c *Config) { c.CenterOffset = 0.5 }},
		{"offset past grid", func(c *Config) { c.CenterOffset = 511 }},
		{"offset NaN", func(c *Config) { c.CenterOffset = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), dynamo.ErrInvalidConfig)
		})
	}

	edge := DefaultConfig()
	edge.CenterOffset = float64(edge.Extent - 2)
	assert.NoError(t, edge.Validate())
}
