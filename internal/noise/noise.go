// Package noise perturbs reported measurements with zero-mean Gaussian
// noise. Only the emitted snapshot is touched; the internal plant state
// stays noise-free, so noise never compounds across integration steps.
package noise

import (
	"math/rand"

	"github.com/procmix/tanksim/internal/dynamo"
)

// Injector applies independent relative perturbations
// reported = true * (1 + level*N(0,1)) to each variable.
type Injector struct {
	enabled bool
	level   float64
	rng     *rand.Rand
}

// New builds an injector with its own seeded source, so two sessions
// with equal seeds report identical noise sequences.
func New(enabled bool, level float64, seed int64) *Injector {
	return &Injector{
		enabled: enabled,
		level:   level,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Enabled reports whether perturbation is active.
func (i *Injector) Enabled() bool { return i.enabled }

// Perturb returns the reported measurement for the given true state.
// With noise disabled it is the identity.
func (i *Injector) Perturb(x dynamo.State) dynamo.State {
	if !i.enabled || i.level <= 0 {
		return x
	}
	v := x.Vector()
	for idx := range v {
		v[idx] *= 1 + i.level*i.rng.NormFloat64()
	}
	return dynamo.FromVector(v)
}
