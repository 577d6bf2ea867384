package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrOutOfBounds indicates a world position that maps outside the field grid.
	// It is fatal: the field is never clamped or wrapped.
	ErrOutOfBounds = errors.New("dynamo: position outside simulated world")

	// ErrUnknownParticle indicates a particle id that is not part of the swarm.
	ErrUnknownParticle = errors.New("dynamo: unknown particle id")

	// ErrInvalidConfig indicates a parameter value outside its valid range.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrNonFinite indicates a particle whose position or velocity became NaN or Inf.
	ErrNonFinite = errors.New("dynamo: non-finite particle state")

	// ErrHalted indicates a simulation that stopped after an unrecoverable failure.
	ErrHalted = errors.New("dynamo: simulation halted")
)

// BoundsError reports the world position and grid cell of a failed mapping.
type BoundsError struct {
	X, Y         float64
	CellX, CellY int
	Min, Max     int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("dynamo: position (%.3f, %.3f) maps to cell (%d, %d) outside [%d, %d]",
		e.X, e.Y, e.CellX, e.CellY, e.Min, e.Max)
}

func (e *BoundsError) Unwrap() error {
	return ErrOutOfBounds
}

// HaltedError wraps the failure that stopped a simulation with its tick context.
type HaltedError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *HaltedError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *HaltedError) Unwrap() []error {
	return []error{ErrHalted, e.Wrapped}
}
