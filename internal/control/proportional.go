package control

import "github.com/procmix/tanksim/internal/dynamo"

// Gains holds the per-channel proportional gains. Units: supply and
// water-pump gains are 1/m, brine-pump gains m³/kg. Gains are fixed for
// a session; this is deliberately a simple regulator, not an adaptive or
// predictive one.
type Gains struct {
	Supply    float64 `yaml:"supply" json:"supply"`
	WaterPump float64 `yaml:"waterPump" json:"waterPump"`
	BrinePump float64 `yaml:"brinePump" json:"brinePump"`
}

// DefaultGains returns the nominal tuning.
func DefaultGains() Gains {
	return Gains{Supply: 0.1, WaterPump: 0.1, BrinePump: 0.1}
}

// Proportional regulates each channel with
//
//	u = clamp(uEq + Kp*(target - measured), 0, 1)
//
// around the equilibrium actuator vector. The mapping of channels to
// regulated variables is the fixed table documented in the package
// comment.
type Proportional struct {
	Base  dynamo.Control
	Gains Gains
}

// NewProportional builds the regulator around an equilibrium actuator
// vector.
func NewProportional(base dynamo.Control, gains Gains) *Proportional {
	return &Proportional{Base: base, Gains: gains}
}

// Compute implements [dynamo.Controller].
func (p *Proportional) Compute(x dynamo.State, target dynamo.State) dynamo.Control {
	u := p.Base

	u.SupplyA += p.Gains.Supply * (target.LevelA - x.LevelA)
	u.SupplyB += p.Gains.Supply * (target.LevelB - x.LevelB)

	u.C.WaterPump += p.Gains.WaterPump * (target.LevelC - x.LevelC)
	u.C.BrinePump += p.Gains.BrinePump * (target.ConcC - x.ConcC)

	u.D.WaterPump += p.Gains.WaterPump * (target.LevelD - x.LevelD)
	u.D.BrinePump += p.Gains.BrinePump * (target.ConcD - x.ConcD)

	u.E.WaterPump += p.Gains.WaterPump * (target.LevelE - x.LevelE)
	u.E.BrinePump += p.Gains.BrinePump * (target.ConcE - x.ConcE)

	return u.Clamp01()
}
