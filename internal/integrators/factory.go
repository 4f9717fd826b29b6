package integrators

import (
	"fmt"

	"github.com/procmix/tanksim/internal/dynamo"
)

// New returns the named scheme bound to the given limits. Known names
// are "rk4" and "euler".
func New(name string, bounds Bounds) (dynamo.Integrator, error) {
	switch name {
	case "", "rk4":
		return NewRK4(bounds), nil
	case "euler":
		return NewEuler(bounds), nil
	default:
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
}
