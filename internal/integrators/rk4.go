package integrators

import "github.com/procmix/tanksim/internal/dynamo"

// RK4 is the classic fourth-order Runge-Kutta scheme, stable at the
// plant's nominal sub-step of 0.5 s.
type RK4 struct {
	bounds Bounds
	clamps int64
}

func NewRK4(bounds Bounds) *RK4 {
	return &RK4{bounds: bounds}
}

func (r *RK4) Name() string { return "rk4" }

// Clamps returns the number of bound saturations since construction.
func (r *RK4) Clamps() int64 { return r.clamps }

func (r *RK4) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, dt float64) (dynamo.State, error) {
	k1 := sys.Derive(x, u)
	k2 := sys.Derive(x.AddScaled(dt*0.5, k1), u)
	k3 := sys.Derive(x.AddScaled(dt*0.5, k2), u)
	k4 := sys.Derive(x.AddScaled(dt, k3), u)

	xv := x.Vector()
	v1, v2, v3, v4 := k1.Vector(), k2.Vector(), k3.Vector(), k4.Vector()
	dt6 := dt / 6.0
	for i := range xv {
		xv[i] += dt6 * (v1[i] + 2*v2[i] + 2*v3[i] + v4[i])
	}
	next := dynamo.FromVector(xv)

	if !next.IsFinite() {
		return x, dynamo.ErrDiverged
	}
	next, n := r.bounds.Apply(next)
	r.clamps += int64(n)
	return next, nil
}
