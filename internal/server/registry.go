package server

import (
	"sync"

	"github.com/google/uuid"
)

// Entry is one registered session in a registry snapshot.
type Entry struct {
	ID   uuid.UUID
	Conn FrameConn
}

// Registry is the shared table of active sessions, keyed by connection
// identity. An entry exists iff the session can currently receive
// broadcasts; each handler removes its own entry before it terminates.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]FrameConn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]FrameConn)}
}

// Insert registers a session's send handle.
func (r *Registry) Insert(id uuid.UUID, conn FrameConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = conn
}

// Remove deregisters a session. Removing an absent id is a no-op.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Get returns the send handle for one session.
func (r *Registry) Get(id uuid.UUID) (FrameConn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.sessions[id]
	return conn, ok
}

// Snapshot returns a copy of the current entries. Callers iterate the copy
// so no lock is held during sends.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.sessions))
	for id, conn := range r.sessions {
		entries = append(entries, Entry{ID: id, Conn: conn})
	}
	return entries
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
