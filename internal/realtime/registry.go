package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/metrics"
)

// Handle is the registry's view of one live client connection.
// Send must never block; it reports whether the event was queued.
type Handle interface {
	UserID() uuid.UUID
	Send(event Event) bool
	Close()
}

// Registry tracks the single live connection per user. It is the in-process
// source of truth for who is reachable right now; durable presence mirrors
// are derived from its transitions.
type Registry struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]Handle
}

// NewRegistry creates an empty connection registry
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[uuid.UUID]Handle),
	}
}

// Register installs h as the user's current connection, replacing any
// previous one. It returns the replaced handle (nil if none) and whether
// this was an offline-to-online transition. The caller closes the replaced
// handle outside the lock.
func (r *Registry) Register(h Handle) (replaced Handle, online bool) {
	userID := h.UserID()

	r.mu.Lock()
	previous, existed := r.clients[userID]
	r.clients[userID] = h
	r.mu.Unlock()

	if existed {
		metrics.RealtimeConnectionsTotal.WithLabelValues("replaced").Inc()
		return previous, false
	}

	metrics.RealtimeConnectionsTotal.WithLabelValues("accepted").Inc()
	metrics.RealtimeConnectionsActive.Inc()
	return nil, true
}

// Unregister removes the user's entry only if h is still the current handle.
// A stale disconnect from a replaced connection is a no-op, which keeps a
// fast reconnect from tearing down the new session. Returns whether an
// online-to-offline transition occurred.
func (r *Registry) Unregister(h Handle) bool {
	userID := h.UserID()

	r.mu.Lock()
	current, ok := r.clients[userID]
	if !ok || current != h {
		r.mu.Unlock()
		return false
	}
	delete(r.clients, userID)
	r.mu.Unlock()

	metrics.RealtimeConnectionsActive.Dec()
	return true
}

// Lookup returns the user's current handle. Absence is not an error.
func (r *Registry) Lookup(userID uuid.UUID) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.clients[userID]
	return h, ok
}

// ListOnline returns a snapshot of currently connected user IDs
func (r *Registry) ListOnline() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userIDs := make([]uuid.UUID, 0, len(r.clients))
	for userID := range r.clients {
		userIDs = append(userIDs, userID)
	}
	return userIDs
}

// Handles returns a snapshot of all current handles for broadcast
func (r *Registry) Handles() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handles := make([]Handle, 0, len(r.clients))
	for _, h := range r.clients {
		handles = append(handles, h)
	}
	return handles
}

// Count returns the number of connected users
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
