package dynamo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// UnitX is the canonical direction used wherever a zero vector must be normalized.
var UnitX = r3.Vec{X: 1}

// NormalizeTo returns v rescaled to length l. The zero vector has no direction,
// so it yields UnitX scaled to l instead of NaN.
func NormalizeTo(v r3.Vec, l float64) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return r3.Scale(l, UnitX)
	}
	return r3.Scale(l/n, v)
}

// IsFinite reports whether v has no NaN or Inf component.
func IsFinite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
