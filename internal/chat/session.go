package chat

import (
	"sync"
	"time"
)

// Conn is the transport beneath one realtime session. The production
// implementation wraps a gorilla websocket connection; tests use an
// in-memory fake.
type Conn interface {
	// ReadEvent blocks for the next inbound event. It returns an error
	// once the connection is closed.
	ReadEvent() (Envelope, error)

	// WriteEvent delivers one event to the client. Callers must not
	// invoke it concurrently.
	WriteEvent(Envelope) error

	Close() error
}

// Identity is the token-decoded identity a session is bound to.
type Identity struct {
	ID       string
	Username string
}

// Session is one live realtime connection. It is created on a
// successful handshake and destroyed on disconnect or forced
// token-expiry eviction.
type Session struct {
	id        string
	identity  Identity
	expiresAt time.Time
	conn      Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Identity returns the token-bound identity of the session.
func (s *Session) Identity() Identity {
	return s.identity
}

// Expired reports whether the session's token has expired.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.expiresAt)
}

// Send delivers one event to this session's client. Safe for
// concurrent use; write failures surface to the caller and otherwise
// leave the session alone (the read loop notices a dead connection).
func (s *Session) Send(evt Envelope) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteEvent(evt)
}

// Close terminates the underlying connection once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
	})
}
