package chat

import (
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry holds every live session, keyed by handle and bounded by a
// fixed capacity. All operations serialize on one mutex; none of them
// touches the network, so the lock is never held across I/O.
type Registry struct {
	mu       sync.Mutex
	capacity int
	byHandle map[string]*Session
	order    []*Session // registration order, for deterministic listing
	logger   *slog.Logger
}

func NewRegistry(capacity int, logger *slog.Logger) *Registry {
	if capacity <= 0 {
		capacity = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		capacity: capacity,
		byHandle: make(map[string]*Session, capacity),
		logger:   logger,
	}
}

// Register binds handle and addr to the session and admits it. Both the
// handle and the address must be unused and the registry below
// capacity; otherwise the session is left untouched.
func (r *Registry) Register(s *Session, handle, addr string) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byHandle[handle]; exists {
		return uuid.Nil, ErrDuplicateHandle
	}
	for _, other := range r.order {
		if other.addr == addr {
			return uuid.Nil, ErrDuplicateAddress
		}
	}
	if len(r.order) >= r.capacity {
		return uuid.Nil, ErrRegistryFull
	}

	s.id = uuid.New()
	s.handle = handle
	s.addr = addr
	s.presence = PresenceActive
	s.lastActivity = time.Now()

	r.byHandle[handle] = s
	r.order = append(r.order, s)

	r.logger.Info("user registered", "handle", handle, "addr", addr, "session_id", s.id)
	ConnectedSessions.Set(float64(len(r.order)))
	return s.id, nil
}

// Remove drops the session with the given handle. No-op if absent.
func (r *Registry) Remove(handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(handle)
}

// RemoveByTransport drops whichever session owns conn. Used on
// disconnect when the handle may never have been registered. Idempotent.
func (r *Registry) RemoveByTransport(conn net.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.order {
		if s.conn == conn {
			r.removeLocked(s.handle)
			return
		}
	}
}

func (r *Registry) removeLocked(handle string) {
	s, ok := r.byHandle[handle]
	if !ok {
		return
	}
	delete(r.byHandle, handle)
	for i, other := range r.order {
		if other == s {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.logger.Info("user removed", "handle", handle)
	ConnectedSessions.Set(float64(len(r.order)))
}

// Touch refreshes the session's last-activity timestamp. No-op if absent.
func (r *Registry) Touch(handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byHandle[handle]; ok {
		s.lastActivity = time.Now()
	}
}

// SetPresence updates the session's presence and refreshes its
// last-activity timestamp.
func (r *Registry) SetPresence(handle string, p Presence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byHandle[handle]
	if !ok {
		return ErrNotFound
	}
	s.presence = p
	s.lastActivity = time.Now()
	return nil
}

// Lookup returns a read-only snapshot of the named session.
func (r *Registry) Lookup(handle string) (SessionView, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byHandle[handle]
	if !ok {
		return SessionView{}, false
	}
	return SessionView{
		ID:           s.id,
		Handle:       s.handle,
		Addr:         s.addr,
		Presence:     s.presence,
		LastActivity: s.lastActivity,
	}, true
}

// SnapshotHandles returns all handles in registration order.
func (r *Registry) SnapshotHandles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	handles := make([]string, len(r.order))
	for i, s := range r.order {
		handles[i] = s.handle
	}
	return handles
}

// Sessions returns the live sessions in registration order. Callers use
// the copy for delivery after the lock is released; a session removed in
// between simply drops the message.
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Session(nil), r.order...)
}

// session returns the live entry for delivery within the package.
func (r *Registry) session(handle string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byHandle[handle]
	return s, ok
}

// ForEach runs fn on every session in registration order while holding
// the registry lock. fn must not call back into the Registry and must
// not block.
func (r *Registry) ForEach(fn func(*Session)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.order {
		fn(s)
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}
