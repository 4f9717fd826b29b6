package plant

import (
	"fmt"

	"github.com/procmix/tanksim/internal/dynamo"
)

// ProcessTankParams groups the geometry and actuator coefficients of one
// conical process tank.
type ProcessTankParams struct {
	Cone Cone `yaml:"cone" json:"cone"`

	// OutletKv is the gravity-discharge coefficient in m^(5/2)/s. It
	// absorbs the sqrt(2g) Torricelli factor, so Qout = kv*u*sqrt(h).
	OutletKv float64 `yaml:"outletKv" json:"outletKv"`

	// Pump gains are the volumetric flow at full command, m³/s.
	WaterPumpGain float64 `yaml:"waterPumpGain" json:"waterPumpGain"`
	BrinePumpGain float64 `yaml:"brinePumpGain" json:"brinePumpGain"`
}

// Params holds every physical constant of the five-tank plant.
type Params struct {
	ReservoirA Cylinder `yaml:"reservoirA" json:"reservoirA"`
	ReservoirB Cylinder `yaml:"reservoirB" json:"reservoirB"`

	ProcessC ProcessTankParams `yaml:"processC" json:"processC"`
	ProcessD ProcessTankParams `yaml:"processD" json:"processD"`
	ProcessE ProcessTankParams `yaml:"processE" json:"processE"`

	// Supply-valve gains of the reservoirs, m³/s at full opening.
	SupplyGainA float64 `yaml:"supplyGainA" json:"supplyGainA"`
	SupplyGainB float64 `yaml:"supplyGainB" json:"supplyGainB"`

	// BrineConcentration is the fixed concentration of reservoir B and
	// the physical ceiling for process concentrations, kg/m³.
	BrineConcentration float64 `yaml:"brineConcentration" json:"brineConcentration"`

	// LevelEpsilon is the level below which the concentration rate is
	// held at zero to avoid dividing by a vanishing volume.
	LevelEpsilon float64 `yaml:"levelEpsilon" json:"levelEpsilon"`
}

// DefaultParams returns the nominal plant constants.
func DefaultParams() Params {
	cone := Cone{BaseRadius: 0.75, TopRadius: 1.25, MaxLevel: 3.0}
	proc := ProcessTankParams{
		Cone:          cone,
		OutletKv:      0.016,
		WaterPumpGain: 0.008,
		BrinePumpGain: 0.008,
	}
	return Params{
		ReservoirA:         Cylinder{Radius: 1.75, MaxLevel: 3.0},
		ReservoirB:         Cylinder{Radius: 1.75, MaxLevel: 3.0},
		ProcessC:           proc,
		ProcessD:           proc,
		ProcessE:           proc,
		SupplyGainA:        0.048,
		SupplyGainB:        0.048,
		BrineConcentration: 360.0,
		LevelEpsilon:       1e-6,
	}
}

// ProcessTank returns the parameter group of a conical tank; ok is false
// for the utility reservoirs.
func (p Params) ProcessTank(tank dynamo.Tank) (ProcessTankParams, bool) {
	switch tank {
	case dynamo.TankC:
		return p.ProcessC, true
	case dynamo.TankD:
		return p.ProcessD, true
	case dynamo.TankE:
		return p.ProcessE, true
	}
	return ProcessTankParams{}, false
}

// MaxLevel returns the physical height limit of the given tank.
func (p Params) MaxLevel(tank dynamo.Tank) float64 {
	switch tank {
	case dynamo.TankA:
		return p.ReservoirA.MaxLevel
	case dynamo.TankB:
		return p.ReservoirB.MaxLevel
	default:
		if pt, ok := p.ProcessTank(tank); ok {
			return pt.Cone.MaxLevel
		}
	}
	return 0
}

// Equilibrium is a complete steady-state reference: levels for all five
// tanks, concentrations for the process tanks and every actuator value.
// A session starts from it and the controller regulates toward it in the
// absence of explicit setpoints.
type Equilibrium struct {
	LevelA float64 `yaml:"levelA" json:"levelA"`
	LevelB float64 `yaml:"levelB" json:"levelB"`
	LevelC float64 `yaml:"levelC" json:"levelC"`
	ConcC  float64 `yaml:"concC" json:"concC"`
	LevelD float64 `yaml:"levelD" json:"levelD"`
	ConcD  float64 `yaml:"concD" json:"concD"`
	LevelE float64 `yaml:"levelE" json:"levelE"`
	ConcE  float64 `yaml:"concE" json:"concE"`

	Control dynamo.Control `yaml:"control" json:"control"`
}

// DefaultEquilibrium returns the nominal operating point.
func DefaultEquilibrium() Equilibrium {
	tc := dynamo.TankControl{WaterPump: 0.6125, BrinePump: 0.6125, OutletValve: 0.5}
	return Equilibrium{
		LevelA: 1.5, LevelB: 1.5,
		LevelC: 1.5, ConcC: 180.0,
		LevelD: 1.5, ConcD: 180.0,
		LevelE: 1.5, ConcE: 180.0,
		Control: dynamo.Control{
			SupplyA: 0.306,
			SupplyB: 0.306,
			C:       tc,
			D:       tc,
			E:       tc,
		},
	}
}

// State returns the equilibrium as a plant state.
func (e Equilibrium) State() dynamo.State {
	return dynamo.State{
		LevelA: e.LevelA, LevelB: e.LevelB,
		LevelC: e.LevelC, ConcC: e.ConcC,
		LevelD: e.LevelD, ConcD: e.ConcD,
		LevelE: e.LevelE, ConcE: e.ConcE,
	}
}

// Validate checks the operating point against the plant bounds: every
// level within [0, max], every concentration within [0, brine], every
// actuator in [0, 1].
func (e Equilibrium) Validate(p Params) error {
	st := e.State()
	for _, tank := range dynamo.Tanks {
		level := st.Level(tank)
		if level < 0 || level > p.MaxLevel(tank) {
			return fmt.Errorf("%w: tank %s level %.3f outside [0, %.3f]",
				dynamo.ErrValidation, tank, level, p.MaxLevel(tank))
		}
	}
	for _, tank := range dynamo.ProcessTanks {
		conc := st.Concentration(tank)
		if conc < 0 || conc > p.BrineConcentration {
			return fmt.Errorf("%w: tank %s concentration %.1f outside [0, %.1f]",
				dynamo.ErrValidation, tank, conc, p.BrineConcentration)
		}
	}
	if !e.Control.InRange() {
		return fmt.Errorf("%w: control values outside [0, 1]", dynamo.ErrValidation)
	}
	return nil
}
