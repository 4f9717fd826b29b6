// Package store persists batch-run results on disk: one directory per
// run holding metadata.json and series.csv.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/procmix/tanksim/internal/batch"
)

// Columns is the CSV header: simulated time, the eight state variables
// and the eleven actuator channels, in canonical order.
var Columns = []string{
	"time",
	"levelA", "levelB", "levelC", "concC", "levelD", "concD", "levelE", "concE",
	"supplyA", "supplyB",
	"waterC", "brineC", "outletC",
	"waterD", "brineD", "outletD",
	"waterE", "brineE", "outletE",
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0o755)
}

// RunMetadata describes one stored run.
type RunMetadata struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Dt         float64   `json:"dt"`
	Duration   float64   `json:"duration"`
	Integrator string    `json:"integrator"`
	OpenLoop   bool      `json:"openLoop"`
	Steps      int       `json:"steps"`
	Clamps     int64     `json:"clamps"`
	WallTime   string    `json:"wallTime"`
}

// Save writes one run to disk and returns its identifier.
func (s *Store) Save(cfg batch.Config, result *batch.Result) (string, error) {
	runID := fmt.Sprintf("run_%d", time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Timestamp:  result.Meta.Timestamp,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Integrator: result.Meta.Solver,
		OpenLoop:   cfg.OpenLoop,
		Steps:      result.Meta.Steps,
		Clamps:     result.Meta.Clamps,
		WallTime:   result.Meta.WallTime.String(),
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "series.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()
	if err := w.Write(Columns); err != nil {
		return "", err
	}

	for i := range result.Times {
		row := make([]string, 0, len(Columns))
		row = append(row, formatFloat(result.Times[i]))
		for _, v := range result.States[i].Vector() {
			row = append(row, formatFloat(v))
		}
		for _, v := range result.Controls[i].Vector() {
			row = append(row, formatFloat(v))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return runID, w.Error()
}

// List returns the metadata of every stored run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []RunMetadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, e.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

// Series is a loaded run: column names and sample rows in file order.
type Series struct {
	Columns []string
	Rows    [][]float64
}

// Column returns the values of the named column.
func (s *Series) Column(name string) ([]float64, bool) {
	idx := -1
	for i, c := range s.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]float64, len(s.Rows))
	for i, row := range s.Rows {
		out[i] = row[idx]
	}
	return out, true
}

// Load reads one stored run's series back.
func (s *Store) Load(runID string) (*Series, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "series.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("run %s: empty series", runID)
	}

	series := &Series{
		Columns: records[0],
		Rows:    make([][]float64, 0, len(records)-1),
	}
	for _, rec := range records[1:] {
		row := make([]float64, len(rec))
		for i, cell := range rec {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: bad value %q: %w", runID, cell, err)
			}
			row[i] = v
		}
		series.Rows = append(series.Rows, row)
	}
	return series, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
