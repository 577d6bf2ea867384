package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

// PowerSpectrum returns the amplitude of bins 0..n/2-1 of the trace with its
// mean removed. Any length is accepted.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}
	centered := make([]float64, len(data))
	copy(centered, data)
	floats.AddConst(-floats.Sum(data)/float64(len(data)), centered)

	coeffs := fft.FFTReal(centered)
	ps := make([]float64, len(coeffs)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(coeffs[i])
	}
	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-DC bin
// of a trace sampled every dt, and that bin's amplitude.
func DominantFrequency(data []float64, dt float64) (float64, float64) {
	ps := PowerSpectrum(data)
	if len(ps) < 2 || dt <= 0 {
		return 0, 0
	}
	k := floats.MaxIdx(ps[1:]) + 1
	return float64(k) / (float64(len(data)) * dt), ps[k]
}
