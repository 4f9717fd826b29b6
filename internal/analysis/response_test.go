package analysis

import (
	"math"
	"testing"
)

// firstOrder samples 1.5 -> 2.0 with time constant tau.
func firstOrder(tau, dt, duration float64) ([]float64, []float64) {
	n := int(duration/dt) + 1
	times := make([]float64, n)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i) * dt
		times[i] = t
		values[i] = 2.0 - 0.5*math.Exp(-t/tau)
	}
	return times, values
}

func TestAnalyzeStepFirstOrder(t *testing.T) {
	times, values := firstOrder(10.0, 0.5, 100.0)

	r, err := AnalyzeStep(times, values, 2.0, 0.02)
	if err != nil {
		t.Fatalf("AnalyzeStep: %v", err)
	}

	if math.Abs(r.Initial-1.5) > 1e-9 {
		t.Errorf("initial: got %.4f", r.Initial)
	}
	if math.Abs(r.Final-2.0) > 1e-3 {
		t.Errorf("final: got %.4f", r.Final)
	}
	if r.Overshoot > 1e-9 {
		t.Errorf("first-order response must not overshoot: %.6f", r.Overshoot)
	}
	// 90% rise of a first-order lag happens near 2.3*tau.
	if r.RiseTime < 20 || r.RiseTime > 26 {
		t.Errorf("rise time: got %.2f, want about 23", r.RiseTime)
	}
	if r.SettlingTime < 0 {
		t.Error("response should settle")
	}
	if math.Abs(r.SteadyStateError) > 1e-3 {
		t.Errorf("steady-state error: got %.6f", r.SteadyStateError)
	}
}

func TestAnalyzeStepOvershoot(t *testing.T) {
	times := []float64{0, 1, 2, 3, 4, 5}
	values := []float64{1.0, 1.8, 2.3, 2.1, 1.95, 2.0}

	r, err := AnalyzeStep(times, values, 2.0, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r.Overshoot-0.3) > 1e-9 {
		t.Errorf("overshoot: got %.4f, want 0.30", r.Overshoot)
	}
}

func TestAnalyzeStepFallingResponse(t *testing.T) {
	times := []float64{0, 1, 2, 3, 4}
	values := []float64{2.0, 1.6, 1.3, 1.1, 1.0}

	r, err := AnalyzeStep(times, values, 1.0, 0.02)
	if err != nil {
		t.Fatal(err)
	}
	if r.RiseTime != 3 {
		t.Errorf("falling rise time: got %.1f, want 3", r.RiseTime)
	}
	if r.Overshoot != 0 {
		t.Errorf("no undershoot expected: %.4f", r.Overshoot)
	}
}

func TestAnalyzeStepBadInput(t *testing.T) {
	if _, err := AnalyzeStep([]float64{0}, []float64{1}, 1, 0.02); err == nil {
		t.Error("single sample should be rejected")
	}
	if _, err := AnalyzeStep([]float64{0, 1}, []float64{1}, 1, 0.02); err == nil {
		t.Error("mismatched lengths should be rejected")
	}
}
