// Package analysis characterizes recorded trajectories: step-response
// metrics for tuning the regulator against stored batch runs.
package analysis

import (
	"fmt"
	"math"
)

// StepResponse summarizes how one variable approached a target value.
type StepResponse struct {
	Initial float64 `json:"initial"`
	Final   float64 `json:"final"`
	Target  float64 `json:"target"`

	// SteadyStateError is target minus final value. A proportional
	// regulator leaves a residual here.
	SteadyStateError float64 `json:"steadyStateError"`

	// Overshoot is the worst excursion past the target, zero when the
	// trajectory never crosses it.
	Overshoot float64 `json:"overshoot"`

	// RiseTime is when the variable first covered 90% of the distance
	// from its initial value to its final value; negative if never.
	RiseTime float64 `json:"riseTime"`

	// SettlingTime is when the variable last left the settling band
	// around its final value; negative if it never entered the band.
	SettlingTime float64 `json:"settlingTime"`
}

// AnalyzeStep computes step-response metrics for one sampled variable.
// band is the half-width of the settling band as a fraction of the
// initial-to-final span (0.02 gives the usual 2% criterion).
func AnalyzeStep(times, values []float64, target, band float64) (*StepResponse, error) {
	if len(times) < 2 || len(times) != len(values) {
		return nil, fmt.Errorf("analysis: need matching time and value series, got %d/%d", len(times), len(values))
	}
	if band <= 0 {
		band = 0.02
	}

	initial := values[0]
	final := values[len(values)-1]
	span := math.Abs(final - initial)
	if span == 0 {
		span = math.Abs(target - initial)
	}
	if span == 0 {
		span = 1
	}

	r := &StepResponse{
		Initial:          initial,
		Final:            final,
		Target:           target,
		SteadyStateError: target - final,
		RiseTime:         -1,
		SettlingTime:     -1,
	}

	rising := final >= initial
	riseMark := initial + 0.9*(final-initial)
	tolerance := band * span

	settled := false
	for i, v := range values {
		if r.RiseTime < 0 {
			if (rising && v >= riseMark) || (!rising && v <= riseMark) {
				r.RiseTime = times[i]
			}
		}

		var excursion float64
		if rising {
			excursion = v - target
		} else {
			excursion = target - v
		}
		if excursion > r.Overshoot {
			r.Overshoot = excursion
		}

		if math.Abs(v-final) <= tolerance {
			if !settled {
				settled = true
				r.SettlingTime = times[i]
			}
		} else {
			settled = false
			r.SettlingTime = -1
		}
	}

	return r, nil
}
