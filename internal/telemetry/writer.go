// Package telemetry writes per-tick swarm summaries as CSV.
package telemetry

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/san-kum/swarmfield/internal/metrics"
	"github.com/san-kum/swarmfield/internal/sim"
)

// Row is one sampled tick.
type Row struct {
	Step              int     `csv:"step"`
	Time              float64 `csv:"time"`
	KineticEnergy     float64 `csv:"kinetic_energy"`
	MeanRadius        float64 `csv:"mean_radius"`
	MaxShellDeviation float64 `csv:"max_shell_deviation"`
	Collisions        int     `csv:"collisions"`
	Passes            int     `csv:"passes"`
	Unresolved        int     `csv:"unresolved"`
	FieldRecords      int     `csv:"field_records"`
	FieldTiles        int     `csv:"field_tiles"`
	KernelHits        int     `csv:"kernel_hits"`
	KernelMisses      int     `csv:"kernel_misses"`
}

// RowFrom summarizes a frame.
func RowFrom(f *sim.Frame) Row {
	stats := f.FieldStats()
	return Row{
		Step:              f.Step,
		Time:              f.Time,
		KineticEnergy:     metrics.TotalKineticEnergy(f.Particles),
		MeanRadius:        metrics.MeanRadius(f.Particles, f.Anchor),
		MaxShellDeviation: metrics.MaxShellDeviation(f.Particles, f.Anchor),
		Collisions:        f.Collision.Detected,
		Passes:            f.Collision.Passes,
		Unresolved:        f.Collision.Unresolved,
		FieldRecords:      stats.Records,
		FieldTiles:        stats.Tiles,
		KernelHits:        stats.Kernels.Hits,
		KernelMisses:      stats.Kernels.Misses,
	}
}

// Writer is a sim.Observer appending a row every Every ticks. The first
// write error stops further writes and is kept for Err.
type Writer struct {
	file          *os.File
	every         int
	rows          int
	headerWritten bool
	err           error
}

// Create truncates path and returns a Writer sampling every n-th tick.
func Create(path string, every int) (*Writer, error) {
	if every < 1 {
		every = 1
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return &Writer{file: f, every: every}, nil
}

func (w *Writer) OnStep(f *sim.Frame) {
	if w.err != nil || f.Step%w.every != 0 {
		return
	}
	w.err = w.Write(RowFrom(f))
}

func (w *Writer) Write(row Row) error {
	records := []Row{row}

	if !w.headerWritten {
		if err := gocsv.Marshal(records, w.file); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		w.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, w.file); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
	}
	w.rows++
	return nil
}

// Rows is the number of rows written.
func (w *Writer) Rows() int { return w.rows }

func (w *Writer) Err() error { return w.err }

// Close closes the file and returns the first write error, if any.
func (w *Writer) Close() error {
	if err := w.file.Close(); err != nil && w.err == nil {
		w.err = err
	}
	return w.err
}

// ReadRows loads a trace written by Writer.
func ReadRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []Row
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}
