package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates session or run settings that cannot be simulated.
	ErrInvalidConfig = errors.New("sim: invalid config")

	// ErrInvalidState indicates NaN or Inf in the ball state.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")

	// ErrUnknownShaper indicates a shaper name missing from the registry.
	ErrUnknownShaper = errors.New("sim: unknown shaper")

	// ErrMeshTooSmall indicates a mesh resolution below the minimum.
	ErrMeshTooSmall = errors.New("sim: mesh resolution too small")

	// ErrSnapshotMismatch indicates a snapshot taken from an incompatible session.
	ErrSnapshotMismatch = errors.New("sim: snapshot does not match session")
)

// SimError wraps a failure with the tick it happened on.
type SimError struct {
	Step    int
	Time    float64
	Message string
	Wrapped error
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e SimError) Unwrap() error {
	return e.Wrapped
}
