package plant

import (
	"math"

	"github.com/procmix/tanksim/internal/dynamo"
)

// Model is the nonlinear process model of the five-tank plant. It is a
// pure rate function: Derive never mutates the model or retains state
// between calls.
//
// Mass balances:
//
//	cylinders:  dh/dt = (Qsupply - Qdemand) / A
//	cones:      dh/dt = (Qwater + Qbrine - Qout) / A(h)
//	species:    dC/dt = (Qbrine*CB - C*(Qwater+Qbrine)) / V(h)
//
// Reservoir outflow is the downstream pump demand: tank A feeds the three
// water pumps, tank B the three brine pumps. Gravity discharge follows
// Torricelli's law Qout = kv*u3*sqrt(h), zero at or below empty.
type Model struct {
	Params Params
}

// NewModel builds a model over the given plant constants.
func NewModel(p Params) *Model {
	return &Model{Params: p}
}

// Derive implements [dynamo.System].
func (m *Model) Derive(x dynamo.State, u dynamo.Control) dynamo.Rates {
	p := m.Params

	qwC := p.ProcessC.WaterPumpGain * u.C.WaterPump
	qwD := p.ProcessD.WaterPumpGain * u.D.WaterPump
	qwE := p.ProcessE.WaterPumpGain * u.E.WaterPump

	qbC := p.ProcessC.BrinePumpGain * u.C.BrinePump
	qbD := p.ProcessD.BrinePumpGain * u.D.BrinePump
	qbE := p.ProcessE.BrinePumpGain * u.E.BrinePump

	var r dynamo.Rates

	// Utility reservoirs: supply valve in, pump demand out.
	r.LevelA = (p.SupplyGainA*u.SupplyA - (qwC + qwD + qwE)) / p.ReservoirA.Area()
	r.LevelB = (p.SupplyGainB*u.SupplyB - (qbC + qbD + qbE)) / p.ReservoirB.Area()

	r.LevelC, r.ConcC = m.processRates(p.ProcessC, x.LevelC, x.ConcC, qwC, qbC, u.C.OutletValve)
	r.LevelD, r.ConcD = m.processRates(p.ProcessD, x.LevelD, x.ConcD, qwD, qbD, u.D.OutletValve)
	r.LevelE, r.ConcE = m.processRates(p.ProcessE, x.LevelE, x.ConcE, qwE, qbE, u.E.OutletValve)

	return r
}

// processRates computes dh/dt and dC/dt for one conical tank. The level
// rate divides by the section area unguarded: a degenerate geometry must
// surface as divergence, not be silently zeroed.
func (m *Model) processRates(pt ProcessTankParams, level, conc, qWater, qBrine, outlet float64) (float64, float64) {
	qOut := Discharge(pt.OutletKv, outlet, level)

	dLevel := (qWater + qBrine - qOut) / pt.Cone.AreaAt(level)

	// Species balance is held at zero near empty; the volume quotient is
	// meaningless below LevelEpsilon.
	dConc := 0.0
	if level >= m.Params.LevelEpsilon {
		v := pt.Cone.VolumeAt(level)
		dConc = (qBrine*m.Params.BrineConcentration - conc*(qWater+qBrine)) / v
	}

	return dLevel, dConc
}

// Discharge returns the gravity outflow kv*u*sqrt(h) through an outlet
// valve, zero when the tank is empty.
func Discharge(kv, valve, level float64) float64 {
	if level <= 0 {
		return 0
	}
	return kv * valve * math.Sqrt(level)
}
