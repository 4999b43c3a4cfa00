package server

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mapsketch/mapsketch/internal/config"
	"github.com/mapsketch/mapsketch/internal/sketch"
)

// Entry pairs a sketch session with the lock that serializes access to it.
// The engine itself is single-writer; the lock keeps every mutation and its
// history snapshot atomic across the HTTP and websocket paths.
type Entry struct {
	mu   sync.Mutex
	sess *sketch.Session

	// socket affordances, swapped in while a websocket is attached
	ctl *wsControl
}

// With runs fn holding the session lock.
func (e *Entry) With(fn func(*sketch.Session)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.sess)
}

// Registry owns every live sketch session, keyed by session id.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Entry
	cfg     *config.Config
}

// NewRegistry creates an empty session registry.
func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		cfg:     cfg,
	}
}

// Create starts a new in-memory session and returns its id.
func (r *Registry) Create() string {
	id := uuid.NewString()

	ctl := &wsControl{}
	sess := sketch.New(sketch.Options{
		Style: sketch.Style{
			Color:  r.cfg.Style.Color,
			Weight: r.cfg.Style.Weight,
		},
		SelectedWeight: r.cfg.Style.SelectedWeight,
		HistoryLimit:   r.cfg.HistoryLimit,
		Control:        ctl,
		Binder:         ctl,
	})

	r.mu.Lock()
	r.entries[id] = &Entry{sess: sess, ctl: ctl}
	r.mu.Unlock()

	log.Debug().Str("session", id).Msg("Session created")

	return id
}

// Get looks a session up by id, nil when absent.
func (r *Registry) Get(id string) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[id]
}

// Drop removes a session from the registry.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()

	log.Debug().Str("session", id).Msg("Session dropped")
}
