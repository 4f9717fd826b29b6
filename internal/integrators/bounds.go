// Package integrators provides the fixed-step ODE schemes that advance
// the plant state: explicit Euler and classic fourth-order Runge-Kutta.
//
// Both steppers enforce the physical bounds after every step: levels are
// clamped to [0, tank max] and concentrations to [0, brine
// concentration]. A clamp reflects physical impossibility (negative
// volume), not numerical error; occurrences are counted for diagnostics.
// Non-finite results abort the step with [dynamo.ErrDiverged].
package integrators

import (
	"github.com/procmix/tanksim/internal/dynamo"
	"github.com/procmix/tanksim/internal/plant"
)

// Bounds clamps a provisional state to the plant's physical limits.
type Bounds struct {
	Params plant.Params
}

// Apply returns the clamped state and the number of variables that had
// to be saturated.
func (b Bounds) Apply(x dynamo.State) (dynamo.State, int) {
	clamped := 0
	for _, tank := range dynamo.Tanks {
		level := x.Level(tank)
		if v, hit := clampTo(level, 0, b.Params.MaxLevel(tank)); hit {
			x.SetLevel(tank, v)
			clamped++
		}
	}
	for _, tank := range dynamo.ProcessTanks {
		conc := x.Concentration(tank)
		if v, hit := clampTo(conc, 0, b.Params.BrineConcentration); hit {
			x.SetConcentration(tank, v)
			clamped++
		}
	}
	return x, clamped
}

func clampTo(v, lo, hi float64) (float64, bool) {
	if v < lo {
		return lo, true
	}
	if v > hi {
		return hi, true
	}
	return v, false
}
