// Package batch runs offline simulations of the five-tank plant: a
// fixed duration is integrated as fast as the CPU allows and the sampled
// trajectory returned in one result. Closed-loop runs regulate toward
// the equilibrium with optional setpoint steps at given simulated times;
// open-loop runs hold the initial actuator vector.
package batch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/procmix/tanksim/internal/control"
	"github.com/procmix/tanksim/internal/dynamo"
	"github.com/procmix/tanksim/internal/integrators"
	"github.com/procmix/tanksim/internal/plant"
)

// StepChange schedules a setpoint change at a simulated time.
type StepChange struct {
	Time     float64         `json:"time" yaml:"time"`
	Tank     dynamo.Tank     `json:"tank" yaml:"tank"`
	Variable dynamo.Variable `json:"variable" yaml:"variable"`
	Value    float64         `json:"value" yaml:"value"`
}

// Config parameterizes one batch run.
type Config struct {
	Initial      plant.Equilibrium `json:"initial" yaml:"initial"`
	Dt           float64           `json:"dt" yaml:"dt"`
	Duration     float64           `json:"duration" yaml:"duration"`
	SaveInterval float64           `json:"saveInterval" yaml:"saveInterval"`
	Integrator   string            `json:"integrator" yaml:"integrator"`

	// OpenLoop holds the initial actuator vector for the whole run
	// instead of regulating.
	OpenLoop bool          `json:"openLoop" yaml:"openLoop"`
	Gains    control.Gains `json:"gains" yaml:"gains"`
	Steps    []StepChange  `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// Metadata summarizes a finished run.
type Metadata struct {
	Steps     int           `json:"steps"`
	WallTime  time.Duration `json:"wallTime"`
	Solver    string        `json:"solver"`
	Clamps    int64         `json:"clamps"`
	Timestamp time.Time     `json:"timestamp"`
}

// Result is the sampled trajectory of one run.
type Result struct {
	Times    []float64        `json:"times"`
	States   []dynamo.State   `json:"states"`
	Controls []dynamo.Control `json:"controls"`
	Meta     Metadata         `json:"meta"`
}

func (c Config) validate(params plant.Params) error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrValidation, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", dynamo.ErrValidation, c.Duration)
	}
	if c.SaveInterval < 0 {
		return fmt.Errorf("%w: save interval must not be negative", dynamo.ErrValidation)
	}
	return c.Initial.Validate(params)
}

// Run integrates the plant for the configured duration. The context
// cancels long runs between steps; the partial result is returned with
// the context error. Divergence returns the trajectory up to the failing
// step together with a [dynamo.DivergenceError].
func Run(ctx context.Context, params plant.Params, cfg Config) (*Result, error) {
	if err := cfg.validate(params); err != nil {
		return nil, err
	}
	if cfg.SaveInterval == 0 {
		cfg.SaveInterval = cfg.Dt
	}

	integ, err := integrators.New(cfg.Integrator, integrators.Bounds{Params: params})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrValidation, err)
	}
	model := plant.NewModel(params)

	var ctrl dynamo.Controller
	if cfg.OpenLoop {
		ctrl = control.NewManual(cfg.Initial.Control)
	} else {
		ctrl = control.NewProportional(cfg.Initial.Control, cfg.Gains)
	}

	steps := int(cfg.Duration/cfg.Dt + 0.5)
	capacity := int(cfg.Duration/cfg.SaveInterval) + 2
	result := &Result{
		Times:    make([]float64, 0, capacity),
		States:   make([]dynamo.State, 0, capacity),
		Controls: make([]dynamo.Control, 0, capacity),
	}

	started := time.Now()
	x := cfg.Initial.State()
	u := cfg.Initial.Control
	target := cfg.Initial.State()
	t := 0.0
	nextSave := 0.0
	pending := append([]StepChange(nil), cfg.Steps...)
	sort.Slice(pending, func(i, j int) bool { return pending[i].Time < pending[j].Time })

	record := func() {
		result.Times = append(result.Times, t)
		result.States = append(result.States, x)
		result.Controls = append(result.Controls, u)
	}
	record()
	nextSave += cfg.SaveInterval

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for len(pending) > 0 && pending[0].Time <= t {
			sc := pending[0]
			pending = pending[1:]
			switch sc.Variable {
			case dynamo.VarLevel:
				target.SetLevel(sc.Tank, sc.Value)
			case dynamo.VarConcentration:
				target.SetConcentration(sc.Tank, sc.Value)
			}
		}

		u = ctrl.Compute(x, target)
		next, stepErr := integ.Step(model, x, u, cfg.Dt)
		if stepErr != nil {
			result.Meta = metadata(cfg, integ, i, started)
			return result, &dynamo.DivergenceError{SimTime: t, Step: i, State: x}
		}
		x = next
		t += cfg.Dt

		if t+1e-12 >= nextSave {
			record()
			nextSave += cfg.SaveInterval
		}
	}

	result.Meta = metadata(cfg, integ, steps, started)
	return result, nil
}

func metadata(cfg Config, integ dynamo.Integrator, steps int, started time.Time) Metadata {
	m := Metadata{
		Steps:     steps,
		WallTime:  time.Since(started),
		Solver:    cfg.Integrator,
		Timestamp: time.Now().UTC(),
	}
	if m.Solver == "" {
		m.Solver = "rk4"
	}
	if c, ok := integ.(interface{ Clamps() int64 }); ok {
		m.Clamps = c.Clamps()
	}
	return m
}
