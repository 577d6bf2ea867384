// Package dynamo provides the primitives shared by every simulation package.
//
// It defines the error vocabulary of the core and a few helpers over
// gonum's [r3.Vec]:
//
//   - [ErrOutOfBounds] / [BoundsError]: a world position mapped outside the field
//   - [HaltedError]: the latched failure of a simulation that can no longer tick
//   - [NormalizeTo]: rescaling with a canonical direction for the zero vector
//
// # Fatal Errors
//
// A bounds failure is unrecoverable. Callers should stop driving the
// simulation and report it:
//
//	if err := s.Tick(dt); errors.Is(err, dynamo.ErrOutOfBounds) {
//	    logger.Fatal("particle left the world", zap.Error(err))
//	}
package dynamo
