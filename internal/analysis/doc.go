// Package analysis extracts structure from per-tick metric traces.
//
//   - [PowerSpectrum]: single-sided amplitude spectrum of a trace
//   - [DominantFrequency]: strongest periodic component, e.g. of the swarm's orbit radius
//   - [PhaseFromSeries]: value against rate of change, rendered with [PhasePortrait2D.ASCII]
//
// A swarm settling onto the anchor's idle shell shows a radius trace whose
// dominant frequency is its breathing mode:
//
//	freq, _ := analysis.DominantFrequency(radius.Values(), dt)
package analysis
