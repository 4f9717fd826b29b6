package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrValidation indicates an initialization value or command outside
	// its physical range.
	ErrValidation = errors.New("dynamo: validation failed")

	// ErrDiverged indicates integration produced non-finite values.
	ErrDiverged = errors.New("dynamo: integration diverged (NaN or Inf)")

	// ErrClosed indicates an operation on a closed session.
	ErrClosed = errors.New("dynamo: session closed")

	// ErrUnknownCommand indicates a malformed or unrecognized command.
	ErrUnknownCommand = errors.New("dynamo: unknown command")
)

// DivergenceError carries the simulated time and step at which the
// integrator produced a non-finite state. It is fatal to the owning
// session.
type DivergenceError struct {
	SimTime float64
	Step    int
	State   State
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("integration diverged at t=%.3fs (step %d)", e.SimTime, e.Step)
}

func (e *DivergenceError) Unwrap() error {
	return ErrDiverged
}
