package dynamo

import (
	"errors"
	"fmt"
	"testing"
)

func TestBoundsError(t *testing.T) {
	err := &BoundsError{X: 100, Y: -2, CellX: 656, CellY: 248, Min: 1, Max: 510}

	if !errors.Is(err, ErrOutOfBounds) {
		t.Error("BoundsError should unwrap to ErrOutOfBounds")
	}

	expected := "dynamo: position (100.000, -2.000) maps to cell (656, 248) outside [1, 510]"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}

	wrapped := fmt.Errorf("deform: %w", err)
	var be *BoundsError
	if !errors.As(wrapped, &be) {
		t.Fatal("errors.As failed through wrapping")
	}
	if be.CellX != 656 {
		t.Errorf("CellX = %d, want 656", be.CellX)
	}
}

func TestHaltedError(t *testing.T) {
	cause := &BoundsError{X: 70, CellX: 536, Min: 1, Max: 510}
	err := &HaltedError{Step: 12, Time: 0.2, Wrapped: cause}

	if !errors.Is(err, ErrHalted) {
		t.Error("HaltedError should match ErrHalted")
	}
	if !errors.Is(err, ErrOutOfBounds) {
		t.Error("HaltedError should match the wrapped cause")
	}

	expected := "step 12 (t=0.2000): " + cause.Error()
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}
