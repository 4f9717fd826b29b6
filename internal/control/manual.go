package control

import "github.com/procmix/tanksim/internal/dynamo"

// Manual applies a fixed actuator vector regardless of state. Batch runs
// and open-loop step experiments use it.
type Manual struct {
	U dynamo.Control
}

func NewManual(u dynamo.Control) *Manual {
	return &Manual{U: u}
}

// Set replaces the stored actuator vector.
func (m *Manual) Set(u dynamo.Control) {
	m.U = u
}

// Compute implements [dynamo.Controller].
func (m *Manual) Compute(x dynamo.State, target dynamo.State) dynamo.Control {
	return m.U.Clamp01()
}
