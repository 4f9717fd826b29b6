package integrators

import "github.com/procmix/tanksim/internal/dynamo"

// Euler is the explicit first-order scheme. Acceptable when dt is small
// relative to the plant's fastest time constant (~370 s); RK4 is the
// default otherwise.
type Euler struct {
	bounds Bounds
	clamps int64
}

func NewEuler(bounds Bounds) *Euler {
	return &Euler{bounds: bounds}
}

func (e *Euler) Name() string { return "euler" }

// Clamps returns the number of bound saturations since construction.
func (e *Euler) Clamps() int64 { return e.clamps }

func (e *Euler) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, dt float64) (dynamo.State, error) {
	next := x.AddScaled(dt, sys.Derive(x, u))
	if !next.IsFinite() {
		return x, dynamo.ErrDiverged
	}
	next, n := e.bounds.Apply(next)
	e.clamps += int64(n)
	return next, nil
}
