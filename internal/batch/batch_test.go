package batch

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/procmix/tanksim/internal/dynamo"
	"github.com/procmix/tanksim/internal/plant"
)

func baseConfig() Config {
	return Config{
		Initial:  plant.DefaultEquilibrium(),
		Dt:       0.5,
		Duration: 100.0,
	}
}

func TestRunSampleCount(t *testing.T) {
	cfg := baseConfig()
	cfg.SaveInterval = 10.0

	result, err := Run(context.Background(), plant.DefaultParams(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// t=0 plus one sample every 10 s.
	if got := len(result.Times); got != 11 {
		t.Errorf("samples: got %d, want 11", got)
	}
	if len(result.States) != len(result.Times) || len(result.Controls) != len(result.Times) {
		t.Error("times, states and controls must be parallel")
	}
	if result.Meta.Steps != 200 {
		t.Errorf("steps: got %d, want 200", result.Meta.Steps)
	}
	if result.Meta.Solver != "rk4" {
		t.Errorf("solver: got %s, want rk4", result.Meta.Solver)
	}
	if got := result.Times[len(result.Times)-1]; math.Abs(got-100.0) > 1e-9 {
		t.Errorf("last sample time: got %.3f, want 100.0", got)
	}
}

func TestRunHoldsEquilibrium(t *testing.T) {
	for _, openLoop := range []bool{false, true} {
		cfg := baseConfig()
		cfg.OpenLoop = openLoop
		cfg.Duration = 500.0
		cfg.SaveInterval = 500.0

		result, err := Run(context.Background(), plant.DefaultParams(), cfg)
		if err != nil {
			t.Fatalf("Run(openLoop=%v): %v", openLoop, err)
		}

		final := result.States[len(result.States)-1]
		eq := plant.DefaultEquilibrium().State()
		for i, v := range final.Vector() {
			if math.Abs(v-eq.Vector()[i]) > 0.01 {
				t.Errorf("openLoop=%v: variable %d drifted: %.6f vs %.6f", openLoop, i, v, eq.Vector()[i])
			}
		}
	}
}

func TestRunStepChange(t *testing.T) {
	cfg := baseConfig()
	cfg.Duration = 2000.0
	cfg.SaveInterval = 100.0
	cfg.Steps = []StepChange{
		{Time: 100.0, Tank: dynamo.TankC, Variable: dynamo.VarLevel, Value: 2.0},
	}

	result, err := Run(context.Background(), plant.DefaultParams(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	final := result.States[len(result.States)-1]
	if final.LevelC <= 1.55 {
		t.Errorf("level C should climb after the setpoint step, got %.4f", final.LevelC)
	}
	// The untouched tanks hold their operating point.
	if math.Abs(final.LevelD-1.5) > 0.01 {
		t.Errorf("level D should stay at equilibrium, got %.4f", final.LevelD)
	}
}

func TestRunOpenLoopIgnoresSteps(t *testing.T) {
	cfg := baseConfig()
	cfg.OpenLoop = true
	cfg.Duration = 500.0
	cfg.SaveInterval = 500.0
	cfg.Steps = []StepChange{
		{Time: 10.0, Tank: dynamo.TankC, Variable: dynamo.VarLevel, Value: 2.5},
	}

	result, err := Run(context.Background(), plant.DefaultParams(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	final := result.States[len(result.States)-1]
	if math.Abs(final.LevelC-1.5) > 0.01 {
		t.Errorf("open-loop run must ignore setpoint steps, got level C %.4f", final.LevelC)
	}
}

func TestRunValidation(t *testing.T) {
	params := plant.DefaultParams()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"negative save interval", func(c *Config) { c.SaveInterval = -1 }},
		{"unknown integrator", func(c *Config) { c.Integrator = "adams" }},
		{"bad initial state", func(c *Config) { c.Initial.LevelA = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(&cfg)
			if _, err := Run(context.Background(), params, cfg); !errors.Is(err, dynamo.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRunDivergenceReturnsPartial(t *testing.T) {
	params := plant.DefaultParams()
	params.ProcessC.Cone = plant.Cone{BaseRadius: 0, TopRadius: 0, MaxLevel: 3.0}

	result, err := Run(context.Background(), params, baseConfig())

	var div *dynamo.DivergenceError
	if !errors.As(err, &div) {
		t.Fatalf("expected DivergenceError, got %v", err)
	}
	if result == nil || len(result.Times) == 0 {
		t.Fatal("partial trajectory should be returned on divergence")
	}
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Run(ctx, plant.DefaultParams(), baseConfig())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil {
		t.Fatal("cancelled run should still return the partial result")
	}
}

func TestRunEulerMatchesRK4AtEquilibrium(t *testing.T) {
	rk4 := baseConfig()
	rk4.SaveInterval = 100.0

	euler := rk4
	euler.Integrator = "euler"

	ra, err := Run(context.Background(), plant.DefaultParams(), rk4)
	if err != nil {
		t.Fatal(err)
	}
	rb, err := Run(context.Background(), plant.DefaultParams(), euler)
	if err != nil {
		t.Fatal(err)
	}

	fa := ra.States[len(ra.States)-1]
	fb := rb.States[len(rb.States)-1]
	for i := range fa.Vector() {
		if math.Abs(fa.Vector()[i]-fb.Vector()[i]) > 1e-3 {
			t.Errorf("schemes disagree at variable %d: %.6f vs %.6f", i, fa.Vector()[i], fb.Vector()[i])
		}
	}
}
