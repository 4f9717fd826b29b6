package dynamo

import "math"

// ControlDim is the number of actuator channels: two supply valves plus
// three channels for each of the three process tanks.
const ControlDim = 11

// TankControl holds the three actuator channels of one process tank.
// All values are normalized commands in [0, 1].
type TankControl struct {
	WaterPump   float64 `json:"waterPump"`
	BrinePump   float64 `json:"brinePump"`
	OutletValve float64 `json:"outletValve"`
}

// Control holds every actuator channel of the plant.
type Control struct {
	SupplyA float64     `json:"supplyA"`
	SupplyB float64     `json:"supplyB"`
	C       TankControl `json:"c"`
	D       TankControl `json:"d"`
	E       TankControl `json:"e"`
}

// Vector returns the channels in the canonical order
// [uA, uB, uC1, uC2, uC3, uD1, uD2, uD3, uE1, uE2, uE3].
func (c Control) Vector() [ControlDim]float64 {
	return [ControlDim]float64{
		c.SupplyA, c.SupplyB,
		c.C.WaterPump, c.C.BrinePump, c.C.OutletValve,
		c.D.WaterPump, c.D.BrinePump, c.D.OutletValve,
		c.E.WaterPump, c.E.BrinePump, c.E.OutletValve,
	}
}

// Clamp01 returns a copy with every channel saturated to [0, 1].
func (c Control) Clamp01() Control {
	c.SupplyA = clamp01(c.SupplyA)
	c.SupplyB = clamp01(c.SupplyB)
	c.C = c.C.clamp01()
	c.D = c.D.clamp01()
	c.E = c.E.clamp01()
	return c
}

// InRange reports whether every channel already lies in [0, 1].
func (c Control) InRange() bool {
	for _, v := range c.Vector() {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return false
		}
	}
	return true
}

// ByTank returns the channel group for one process tank. Utility tanks
// have no TankControl; ok is false for them.
func (c Control) ByTank(tank Tank) (TankControl, bool) {
	switch tank {
	case TankC:
		return c.C, true
	case TankD:
		return c.D, true
	case TankE:
		return c.E, true
	}
	return TankControl{}, false
}

func (tc TankControl) clamp01() TankControl {
	tc.WaterPump = clamp01(tc.WaterPump)
	tc.BrinePump = clamp01(tc.BrinePump)
	tc.OutletValve = clamp01(tc.OutletValve)
	return tc
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
