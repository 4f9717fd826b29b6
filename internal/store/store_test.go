package store

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/procmix/tanksim/internal/batch"
	"github.com/procmix/tanksim/internal/plant"
)

func sampleRun(t *testing.T) (batch.Config, *batch.Result) {
	t.Helper()
	cfg := batch.Config{
		Initial:      plant.DefaultEquilibrium(),
		Dt:           0.5,
		Duration:     50.0,
		SaveInterval: 5.0,
	}
	result, err := batch.Run(context.Background(), plant.DefaultParams(), cfg)
	if err != nil {
		t.Fatalf("batch run: %v", err)
	}
	return cfg, result
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	cfg, result := sampleRun(t)
	runID, err := st.Save(cfg, result)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	series, err := st.Load(runID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(series.Columns) != len(Columns) {
		t.Fatalf("columns: got %d, want %d", len(series.Columns), len(Columns))
	}
	if len(series.Rows) != len(result.Times) {
		t.Fatalf("rows: got %d, want %d", len(series.Rows), len(result.Times))
	}

	times, ok := series.Column("time")
	if !ok {
		t.Fatal("time column missing")
	}
	for i, v := range times {
		if math.Abs(v-result.Times[i]) > 1e-6 {
			t.Errorf("time row %d: got %.6f, want %.6f", i, v, result.Times[i])
		}
	}

	levelC, ok := series.Column("levelC")
	if !ok {
		t.Fatal("levelC column missing")
	}
	for i, v := range levelC {
		if math.Abs(v-result.States[i].LevelC) > 1e-6 {
			t.Errorf("levelC row %d: got %.6f, want %.6f", i, v, result.States[i].LevelC)
		}
	}

	if _, ok := series.Column("voltage"); ok {
		t.Error("unknown column should not resolve")
	}
}

func TestList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("List on empty store: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("empty store should list no runs, got %d", len(runs))
	}

	cfg, result := sampleRun(t)
	runID, err := st.Save(cfg, result)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs: got %d, want 1", len(runs))
	}
	meta := runs[0]
	if meta.ID != runID {
		t.Errorf("id: got %s, want %s", meta.ID, runID)
	}
	if meta.Dt != cfg.Dt || meta.Duration != cfg.Duration {
		t.Errorf("metadata mismatch: %+v", meta)
	}
	if meta.Integrator != "rk4" {
		t.Errorf("integrator: got %s, want rk4", meta.Integrator)
	}
}

func TestListMissingBaseDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "does-not-exist"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if runs != nil {
		t.Errorf("missing base dir should list nothing, got %v", runs)
	}
}

func TestLoadUnknownRun(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("run_404"); err == nil {
		t.Error("loading an unknown run should fail")
	}
}
