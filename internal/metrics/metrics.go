// Package metrics summarizes finished trajectories: actuator effort,
// saturation and tracking quality of a batch run.
package metrics

import (
	"math"

	"github.com/procmix/tanksim/internal/dynamo"
)

// ControlEffort returns the mean absolute actuator command over the
// trajectory, averaged across all channels. Commands live in [0, 1], so
// the result does too.
func ControlEffort(controls []dynamo.Control) float64 {
	if len(controls) == 0 {
		return 0
	}
	sum := 0.0
	for _, u := range controls {
		for _, v := range u.Vector() {
			sum += math.Abs(v)
		}
	}
	return sum / float64(len(controls)*dynamo.ControlDim)
}

// SaturationRate returns the fraction of samples in which at least one
// actuator sat pinned at 0 or 1. A persistently saturated regulator is
// out of authority.
func SaturationRate(controls []dynamo.Control) float64 {
	if len(controls) == 0 {
		return 0
	}
	saturated := 0
	for _, u := range controls {
		for _, v := range u.Vector() {
			if v <= 0 || v >= 1 {
				saturated++
				break
			}
		}
	}
	return float64(saturated) / float64(len(controls))
}

// RMSError returns the root-mean-square deviation of one variable from
// a constant reference over the trajectory.
func RMSError(states []dynamo.State, tank dynamo.Tank, variable dynamo.Variable, reference float64) float64 {
	if len(states) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range states {
		v := x.Level(tank)
		if variable == dynamo.VarConcentration {
			v = x.Concentration(tank)
		}
		d := v - reference
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(states)))
}
