package dynamo

// Tank identifies one of the five vessels. A and B are the cylindrical
// utility reservoirs (water and brine); C, D and E are the frusto-conical
// process tanks.
type Tank string

const (
	TankA Tank = "A"
	TankB Tank = "B"
	TankC Tank = "C"
	TankD Tank = "D"
	TankE Tank = "E"
)

// Tanks lists all five vessels in canonical order.
var Tanks = []Tank{TankA, TankB, TankC, TankD, TankE}

// ProcessTanks lists the three conical process tanks.
var ProcessTanks = []Tank{TankC, TankD, TankE}

// IsProcess reports whether the tank is one of the conical process tanks
// carrying a concentration state.
func (t Tank) IsProcess() bool {
	return t == TankC || t == TankD || t == TankE
}

// Valid reports whether the identifier names a known tank.
func (t Tank) Valid() bool {
	switch t {
	case TankA, TankB, TankC, TankD, TankE:
		return true
	}
	return false
}

// Variable identifies which measured quantity of a tank a setpoint
// targets.
type Variable string

const (
	VarLevel         Variable = "level"
	VarConcentration Variable = "concentration"
)

// Valid reports whether the variable kind is known.
func (v Variable) Valid() bool {
	return v == VarLevel || v == VarConcentration
}

// System is the process model: a pure function from state and actuator
// commands to instantaneous rates of change. Implementations must not
// retain state between calls.
type System interface {
	Derive(x State, u Control) Rates
}

// Integrator advances the plant by one simulated increment dt. A non-nil
// error means the step produced non-finite values and the state is
// unusable; see [DivergenceError].
type Integrator interface {
	Step(sys System, x State, u Control, dt float64) (State, error)
}

// Controller computes actuator commands from the measured state and the
// per-variable targets. Swapping the control law must not touch the
// session loop or the process model.
type Controller interface {
	Compute(x State, target State) Control
}
