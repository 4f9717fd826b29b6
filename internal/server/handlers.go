package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/procmix/tanksim/internal/batch"
	"github.com/procmix/tanksim/internal/control"
	"github.com/procmix/tanksim/internal/dynamo"
	"github.com/procmix/tanksim/internal/plant"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.registry.Count(),
	})
}

// createSessionRequest carries the initialization parameters. Omitted
// fields fall back to the server configuration; a nil equilibrium uses
// the nominal operating point.
type createSessionRequest struct {
	SamplingInterval float64            `json:"samplingInterval,omitempty"` // seconds
	SubStep          float64            `json:"subStep,omitempty"`
	Integrator       string             `json:"integrator,omitempty"`
	NoiseEnabled     bool               `json:"noiseEnabled"`
	NoiseLevel       float64            `json:"noiseLevel,omitempty"`
	Seed             int64              `json:"seed,omitempty"`
	Equilibrium      *plant.Equilibrium `json:"equilibrium,omitempty"`
}

type createSessionResponse struct {
	ID     string `json:"id"`
	Stream string `json:"stream"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	opts := s.cfg.SessionOptions()
	if req.SamplingInterval > 0 {
		opts.SamplingInterval = time.Duration(req.SamplingInterval * float64(time.Second))
	}
	if req.SubStep > 0 {
		opts.SubStep = req.SubStep
	}
	if req.Integrator != "" {
		opts.Integrator = req.Integrator
	}
	opts.NoiseEnabled = req.NoiseEnabled
	if req.NoiseLevel > 0 {
		opts.NoiseLevel = req.NoiseLevel
	}
	if req.Seed != 0 {
		opts.Seed = req.Seed
	}

	eq := s.cfg.Equilibrium
	if req.Equilibrium != nil {
		eq = *req.Equilibrium
	}

	sess, err := s.registry.Create(s.cfg.Plant, eq, opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, dynamo.ErrValidation) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}

	writeJSON(w, http.StatusCreated, createSessionResponse{
		ID:     sess.ID,
		Stream: "/sessions/" + sess.ID + "/stream",
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.registry.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	// Idempotent: deleting an unknown or already-closed session succeeds.
	s.registry.Close(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var cfg batch.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if cfg.Initial == (plant.Equilibrium{}) {
		cfg.Initial = s.cfg.Equilibrium
	}
	if cfg.Gains == (control.Gains{}) {
		cfg.Gains = s.cfg.Gains
	}

	result, err := batch.Run(r.Context(), s.cfg.Plant, cfg)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, dynamo.ErrValidation):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, dynamo.ErrDiverged):
		writeError(w, http.StatusUnprocessableEntity, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
