package chat

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relvane/chatrelay/internal/protocol"
)

// Presence is a user-visible liveness status.
type Presence int

const (
	PresenceActive Presence = iota
	PresenceBusy
	PresenceIdle
)

func (p Presence) String() string {
	switch p {
	case PresenceActive:
		return "ACTIVE"
	case PresenceBusy:
		return "BUSY"
	case PresenceIdle:
		return "IDLE"
	}
	return "UNKNOWN"
}

// ParsePresence maps a wire status string to a Presence.
func ParsePresence(s string) (Presence, bool) {
	switch s {
	case "ACTIVE":
		return PresenceActive, true
	case "BUSY":
		return PresenceBusy, true
	case "IDLE":
		return PresenceIdle, true
	}
	return PresenceActive, false
}

// Session is the server-side record of one connection. The handler that
// accepted the connection owns the transport; the Registry owns the
// lifetime bookkeeping (handle, presence, activity) under its lock.
type Session struct {
	conn net.Conn

	// Set by Registry.Register under the registry lock, immutable after.
	id     uuid.UUID
	handle string
	addr   string

	// Guarded by the registry lock.
	presence     Presence
	lastActivity time.Time

	mu     sync.Mutex
	out    chan *protocol.Message
	closed bool

	writerDone <-chan struct{}
	cleanup    sync.Once
}

// NewSession wraps an accepted connection. The session carries no
// identity until registration succeeds.
func NewSession(conn net.Conn, buffer int) *Session {
	if buffer <= 0 {
		buffer = 32
	}
	return &Session{
		conn: conn,
		out:  make(chan *protocol.Message, buffer),
	}
}

// ID returns the identifier assigned at registration.
func (s *Session) ID() uuid.UUID { return s.id }

// Handle returns the handle bound at registration, or "" before it.
func (s *Session) Handle() string { return s.handle }

// Send enqueues a message for the outbound writer. It never blocks:
// when the buffer is full or the session is closing the message is
// dropped and Send reports false.
func (s *Session) Send(m *protocol.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.out <- m:
		return true
	default:
		return false
	}
}

// CloseOut stops the outbound writer once the queue drains. Safe to
// call concurrently with Send and more than once.
func (s *Session) CloseOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.out)
	}
}

// Teardown runs connection cleanup exactly once: registry removal,
// writer shutdown after the queue drains, then transport close. Safe
// under concurrent termination triggers.
func (s *Session) Teardown(reg *Registry) {
	s.cleanup.Do(func() {
		reg.RemoveByTransport(s.conn)
		s.CloseOut()
		if s.writerDone != nil {
			<-s.writerDone
		}
		_ = s.conn.Close()
	})
}

// SessionView is a read-only snapshot taken under the registry lock.
type SessionView struct {
	ID           uuid.UUID
	Handle       string
	Addr         string
	Presence     Presence
	LastActivity time.Time
}
