package dynamo

import "math"

// StateDim is the number of state variables: five levels plus three
// process-tank concentrations.
const StateDim = 8

// State holds one complete measurement of the plant. Levels are meters,
// concentrations kg/m³. Tanks A and B carry pure water and saturated
// brine respectively, so only C, D and E have concentration states.
type State struct {
	LevelA float64 `json:"levelA"`
	LevelB float64 `json:"levelB"`
	LevelC float64 `json:"levelC"`
	ConcC  float64 `json:"concC"`
	LevelD float64 `json:"levelD"`
	ConcD  float64 `json:"concD"`
	LevelE float64 `json:"levelE"`
	ConcE  float64 `json:"concE"`
}

// Rates is the time derivative of a State, in the same field order.
type Rates = State

// Vector returns the state in the canonical order
// [hA, hB, hC, CC, hD, CD, hE, CE].
func (s State) Vector() [StateDim]float64 {
	return [StateDim]float64{
		s.LevelA, s.LevelB,
		s.LevelC, s.ConcC,
		s.LevelD, s.ConcD,
		s.LevelE, s.ConcE,
	}
}

// FromVector builds a State from the canonical variable order.
func FromVector(v [StateDim]float64) State {
	return State{
		LevelA: v[0], LevelB: v[1],
		LevelC: v[2], ConcC: v[3],
		LevelD: v[4], ConcD: v[5],
		LevelE: v[6], ConcE: v[7],
	}
}

// IsFinite reports whether every variable is a finite number.
func (s State) IsFinite() bool {
	for _, v := range s.Vector() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// AddScaled returns s + factor*r, fieldwise. Used by the integrators for
// intermediate stage evaluation.
func (s State) AddScaled(factor float64, r Rates) State {
	sv := s.Vector()
	rv := r.Vector()
	for i := range sv {
		sv[i] += factor * rv[i]
	}
	return FromVector(sv)
}

// Level returns the level of the given tank.
func (s State) Level(tank Tank) float64 {
	switch tank {
	case TankA:
		return s.LevelA
	case TankB:
		return s.LevelB
	case TankC:
		return s.LevelC
	case TankD:
		return s.LevelD
	case TankE:
		return s.LevelE
	}
	return 0
}

// Concentration returns the concentration of the given process tank, or
// zero for the utility tanks.
func (s State) Concentration(tank Tank) float64 {
	switch tank {
	case TankC:
		return s.ConcC
	case TankD:
		return s.ConcD
	case TankE:
		return s.ConcE
	}
	return 0
}

// SetLevel overwrites the level of the given tank.
func (s *State) SetLevel(tank Tank, v float64) {
	switch tank {
	case TankA:
		s.LevelA = v
	case TankB:
		s.LevelB = v
	case TankC:
		s.LevelC = v
	case TankD:
		s.LevelD = v
	case TankE:
		s.LevelE = v
	}
}

// SetConcentration overwrites the concentration of the given process
// tank. Utility tanks are ignored.
func (s *State) SetConcentration(tank Tank, v float64) {
	switch tank {
	case TankC:
		s.ConcC = v
	case TankD:
		s.ConcD = v
	case TankE:
		s.ConcE = v
	}
}
