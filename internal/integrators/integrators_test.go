package integrators

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/procmix/tanksim/internal/dynamo"
	"github.com/procmix/tanksim/internal/plant"
)

// decay is a linear test system: level A relaxes exponentially, every
// other variable stays put.
type decay struct {
	k float64
}

func (d *decay) Derive(x dynamo.State, u dynamo.Control) dynamo.Rates {
	return dynamo.Rates{LevelA: -d.k * x.LevelA}
}

func wideBounds() Bounds {
	p := plant.DefaultParams()
	p.ReservoirA.MaxLevel = 1e9
	p.ReservoirB.MaxLevel = 1e9
	return Bounds{Params: p}
}

func TestRK4Accuracy(t *testing.T) {
	sys := &decay{k: 0.5}
	integ := NewRK4(wideBounds())

	x := dynamo.State{LevelA: 2.0}
	dt := 0.5
	steps := 40

	var err error
	for i := 0; i < steps; i++ {
		x, err = integ.Step(sys, x, dynamo.Control{}, dt)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	want := 2.0 * math.Exp(-0.5*float64(steps)*dt)
	if math.Abs(x.LevelA-want) > 1e-4 {
		t.Errorf("level A after decay: got %.8f, want %.8f", x.LevelA, want)
	}
}

func TestEulerConvergesButCoarser(t *testing.T) {
	sys := &decay{k: 0.5}
	dt := 0.1
	steps := 100
	want := 2.0 * math.Exp(-0.5*float64(steps)*dt)

	euler := NewEuler(wideBounds())
	rk4 := NewRK4(wideBounds())
	xe := dynamo.State{LevelA: 2.0}
	xr := xe

	var err error
	for i := 0; i < steps; i++ {
		if xe, err = euler.Step(sys, xe, dynamo.Control{}, dt); err != nil {
			t.Fatalf("euler step %d: %v", i, err)
		}
		if xr, err = rk4.Step(sys, xr, dynamo.Control{}, dt); err != nil {
			t.Fatalf("rk4 step %d: %v", i, err)
		}
	}

	errEuler := math.Abs(xe.LevelA - want)
	errRK4 := math.Abs(xr.LevelA - want)
	if errEuler > 0.05 {
		t.Errorf("euler error too large: %.6f", errEuler)
	}
	if errRK4 >= errEuler {
		t.Errorf("rk4 should beat euler: rk4 %.2e vs euler %.2e", errRK4, errEuler)
	}
}

func TestBoundsApply(t *testing.T) {
	b := Bounds{Params: plant.DefaultParams()}

	x := dynamo.State{
		LevelA: -0.5, LevelB: 1.0,
		LevelC: 3.5, ConcC: -10.0,
		LevelD: 1.5, ConcD: 180.0,
		LevelE: 2.0, ConcE: 400.0,
	}
	got, n := b.Apply(x)
	if n != 4 {
		t.Errorf("clamp count: got %d, want 4", n)
	}
	if got.LevelA != 0 {
		t.Errorf("level A: got %.3f, want 0", got.LevelA)
	}
	if got.LevelC != 3.0 {
		t.Errorf("level C: got %.3f, want 3.0", got.LevelC)
	}
	if got.ConcC != 0 {
		t.Errorf("conc C: got %.3f, want 0", got.ConcC)
	}
	if got.ConcE != 360.0 {
		t.Errorf("conc E: got %.3f, want 360", got.ConcE)
	}
	if got.LevelB != 1.0 || got.LevelD != 1.5 || got.ConcD != 180.0 {
		t.Errorf("in-range values must pass through unchanged: %+v", got)
	}
}

func TestStepKeepsStateWithinBounds(t *testing.T) {
	params := plant.DefaultParams()
	model := plant.NewModel(params)
	integ := NewRK4(Bounds{Params: params})
	rng := rand.New(rand.NewSource(7))

	x := plant.DefaultEquilibrium().State()
	for i := 0; i < 500; i++ {
		var u dynamo.Control
		u.SupplyA = rng.Float64()
		u.SupplyB = rng.Float64()
		u.C = dynamo.TankControl{WaterPump: rng.Float64(), BrinePump: rng.Float64(), OutletValve: rng.Float64()}
		u.D = dynamo.TankControl{WaterPump: rng.Float64(), BrinePump: rng.Float64(), OutletValve: rng.Float64()}
		u.E = dynamo.TankControl{WaterPump: rng.Float64(), BrinePump: rng.Float64(), OutletValve: rng.Float64()}

		next, err := integ.Step(model, x, u, 0.5)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		x = next

		for _, tank := range dynamo.Tanks {
			level := x.Level(tank)
			if level < 0 || level > params.MaxLevel(tank) {
				t.Fatalf("step %d: tank %s level %.6f out of bounds", i, tank, level)
			}
		}
		for _, tank := range dynamo.ProcessTanks {
			conc := x.Concentration(tank)
			if conc < 0 || conc > params.BrineConcentration {
				t.Fatalf("step %d: tank %s concentration %.6f out of bounds", i, tank, conc)
			}
		}
	}
}

func TestStepDivergesOnDegenerateGeometry(t *testing.T) {
	params := plant.DefaultParams()
	params.ProcessC.Cone = plant.Cone{BaseRadius: 0, TopRadius: 0, MaxLevel: 3.0}
	model := plant.NewModel(params)
	integ := NewRK4(Bounds{Params: params})

	eq := plant.DefaultEquilibrium()
	u := eq.Control
	u.C.OutletValve = 0
	u.C.WaterPump = 1.0

	x := eq.State()
	_, err := integ.Step(model, x, u, 0.5)
	if !errors.Is(err, dynamo.ErrDiverged) {
		t.Fatalf("expected divergence, got %v", err)
	}
}

func TestClampCounter(t *testing.T) {
	params := plant.DefaultParams()
	model := plant.NewModel(params)
	integ := NewEuler(Bounds{Params: params})

	// Full outlet with no inflow drains tank C below zero within a few
	// large steps, which the bounds must absorb.
	eq := plant.DefaultEquilibrium()
	var u dynamo.Control
	u.C.OutletValve = 1.0

	x := eq.State()
	var err error
	for i := 0; i < 2000; i++ {
		if x, err = integ.Step(model, x, u, 5.0); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if integ.Clamps() == 0 {
		t.Error("draining past empty should have clamped at least once")
	}
	if x.LevelC != 0 {
		t.Errorf("tank C should rest empty, got %.6f", x.LevelC)
	}
}

func TestFactory(t *testing.T) {
	b := Bounds{Params: plant.DefaultParams()}

	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "rk4", false},
		{"rk4", "rk4", false},
		{"euler", "euler", false},
		{"adams", "", true},
	}
	for _, tt := range tests {
		integ, err := New(tt.name, b)
		if tt.wantErr {
			if err == nil {
				t.Errorf("New(%q): expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("New(%q): %v", tt.name, err)
			continue
		}
		named, ok := integ.(interface{ Name() string })
		if !ok || named.Name() != tt.want {
			t.Errorf("New(%q): wrong scheme", tt.name)
		}
	}
}
