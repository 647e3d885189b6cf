package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joestump/joe-writer/internal/catalog"
	"github.com/joestump/joe-writer/internal/logger"
	"github.com/joestump/joe-writer/internal/metrics"
)

// Registry maps workspace IDs to live sessions.
type Registry struct {
	catalog      *catalog.Catalog
	newGenerator func(id string) Generator
	idleTimeout  time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a registry whose sessions each get their own generator
// from newGenerator, called with the new session's ID. Sessions idle longer than idleTimeout are removed by
// Sweep.
func NewRegistry(cat *catalog.Catalog, newGenerator func(id string) Generator, idleTimeout time.Duration) *Registry {
	return &Registry{
		catalog:      cat,
		newGenerator: newGenerator,
		idleTimeout:  idleTimeout,
		sessions:     make(map[string]*Session),
	}
}

// Catalog returns the catalog sessions select from.
func (r *Registry) Catalog() *catalog.Catalog { return r.catalog }

// Get returns the session for id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// GetOrCreate returns the session for id, creating one under a fresh ID when
// id is empty or unknown.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok && id != "" {
		return s
	}
	id = uuid.New().String()
	s := NewSession(id, r.catalog, r.newGenerator(id))
	r.sessions[s.ID] = s
	metrics.WorkspacesActive.Set(float64(len(r.sessions)))
	return s
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle since before now minus the idle timeout and
// returns how many were removed.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.idleTimeout)

	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	metrics.WorkspacesActive.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done, then closes all sessions.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case now := <-t.C:
			if n := r.Sweep(now); n > 0 {
				logger.Debug(ctx, "expired idle workspaces", "count", n)
			}
		case <-ctx.Done():
			r.closeAll()
			return
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	metrics.WorkspacesActive.Set(0)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
