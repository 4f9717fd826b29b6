// Package server exposes the simulation core over HTTP and WebSocket.
//
// REST endpoints create, inspect and tear down sessions and run batch
// simulations; GET /sessions/{id}/stream upgrades to a WebSocket that
// pushes one snapshot per tick and accepts operator commands. The
// streaming connection owns its session: when it closes, the session is
// closed with it.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/procmix/tanksim/internal/config"
	"github.com/procmix/tanksim/internal/session"
)

type Server struct {
	cfg      *config.Config
	registry *session.Registry
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

// New builds a server around a session registry.
func New(cfg *config.Config, registry *session.Registry, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		cfg:      cfg,
		registry: registry,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Router wires the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods(http.MethodDelete)
	r.HandleFunc("/sessions/{id}/stream", s.handleStream).Methods(http.MethodGet)
	r.HandleFunc("/simulations/batch", s.handleBatch).Methods(http.MethodPost)
	return r
}

// Serve runs until the context is canceled, then drains the HTTP server
// and closes every session.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // streaming
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.WithField("addr", s.cfg.Server.Addr).Info("server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.registry.CloseAll()
		return err
	case err := <-errCh:
		s.registry.CloseAll()
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
