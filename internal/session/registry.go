package session

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/procmix/tanksim/internal/plant"
)

// Registry owns the live sessions of one process. All access is
// mutex-guarded; sessions themselves are independent.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	log      *logrus.Logger
}

// NewRegistry builds an empty registry.
func NewRegistry(log *logrus.Logger) *Registry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		log:      log,
	}
}

// Create validates, builds and starts a session, and registers it.
func (r *Registry) Create(params plant.Params, eq plant.Equilibrium, opts Options) (*Session, error) {
	s, err := New(params, eq, opts, r.log)
	if err != nil {
		return nil, err
	}
	if err := s.Start(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s, nil
}

// Get returns the session with the given identifier.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Close tears one session down and forgets it. Unknown identifiers are
// a no-op, keeping teardown idempotent for the transport layer.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}

// CloseAll tears every session down; used at server shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		all = append(all, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
