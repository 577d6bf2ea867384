package analysis

import (
	"math"
	"strings"
	"testing"
)

func sine(n int, dt, freq, offset float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = offset + math.Sin(2*math.Pi*freq*float64(i)*dt)
	}
	return out
}

func TestDominantFrequency(t *testing.T) {
	tests := []struct {
		name string
		n    int
		dt   float64
		freq float64
	}{
		{"power of two", 256, 1.0 / 64, 4},
		{"odd length", 300, 0.01, 5},
		{"slow orbit", 3600, 1.0 / 60, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := sine(tt.n, tt.dt, tt.freq, 15)
			f, amp := DominantFrequency(data, tt.dt)

			resolution := 1 / (float64(tt.n) * tt.dt)
			if math.Abs(f-tt.freq) > resolution {
				t.Errorf("expected %f Hz (±%f), got %f", tt.freq, resolution, f)
			}
			if amp <= 0 {
				t.Errorf("expected positive amplitude, got %f", amp)
			}
		})
	}
}

func TestPowerSpectrumRemovesMean(t *testing.T) {
	data := make([]float64, 64)
	for i := range data {
		data[i] = 7
	}
	ps := PowerSpectrum(data)
	if len(ps) != 32 {
		t.Fatalf("expected 32 bins, got %d", len(ps))
	}
	for i, v := range ps {
		if v > 1e-9 {
			t.Errorf("bin %d: expected 0 for a constant trace, got %f", i, v)
		}
	}
}

func TestDominantFrequencyShortTrace(t *testing.T) {
	if f, amp := DominantFrequency([]float64{1}, 0.1); f != 0 || amp != 0 {
		t.Errorf("expected zero for a single sample, got %f %f", f, amp)
	}
	if f, _ := DominantFrequency(sine(16, 0.1, 1, 0), 0); f != 0 {
		t.Errorf("expected zero for a non-positive dt, got %f", f)
	}
}

func TestPhaseFromSeries(t *testing.T) {
	dt := 0.01
	p := PhaseFromSeries(sine(200, dt, 1, 0), dt)
	if p == nil || len(p.Points) != 198 {
		t.Fatalf("expected 198 points, got %v", p)
	}

	// sin' = 2π cos
	for i, pt := range p.Points {
		want := 2 * math.Pi * math.Cos(2*math.Pi*float64(i+1)*dt)
		if math.Abs(pt.Y-want) > 1e-2 {
			t.Fatalf("point %d: expected rate %f, got %f", i, want, pt.Y)
		}
	}

	art := p.ASCII(40, 12)
	lines := strings.Split(strings.TrimRight(art, "\n"), "\n")
	if len(lines) != 12 {
		t.Errorf("expected 12 rows, got %d", len(lines))
	}
	if !strings.Contains(art, "•") {
		t.Error("expected plotted points")
	}

	if PhaseFromSeries([]float64{1, 2}, dt) != nil {
		t.Error("expected nil for a short series")
	}
}
