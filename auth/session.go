package auth

import (
	"sync"

	"streamfusion/storage"
)

// SessionState is where the current session is in its lifecycle.
type SessionState string

const (
	SessionUninitialized SessionState = "uninitialized"
	SessionLoading       SessionState = "loading"
	SessionResolved      SessionState = "resolved"
)

// SessionSnapshot is a read-only view of the session. User is nil when
// the session resolved to nobody.
type SessionSnapshot struct {
	State SessionState
	User  *storage.User
	Token string
}

// Admin reports whether the resolved user holds the admin role.
func (s SessionSnapshot) Admin() bool {
	return s.User != nil && s.User.IsAdmin()
}

// Session holds the signed-in user for a client process. Create one per
// client and pass it where it is needed.
type Session struct {
	mu      sync.RWMutex
	current SessionSnapshot
	subs    map[chan SessionSnapshot]struct{}
}

// NewSession starts uninitialized.
func NewSession() *Session {
	return &Session{
		current: SessionSnapshot{State: SessionUninitialized},
		subs:    make(map[chan SessionSnapshot]struct{}),
	}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

func (s SessionSnapshot) clone() SessionSnapshot {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Begin marks the session as loading while credentials are checked.
func (s *Session) Begin() {
	s.set(SessionSnapshot{State: SessionLoading})
}

// Resolve settles the session on a user and token.
func (s *Session) Resolve(u storage.User, token string) {
	s.set(SessionSnapshot{State: SessionResolved, User: &u, Token: token})
}

// Clear settles the session with nobody signed in.
func (s *Session) Clear() {
	s.set(SessionSnapshot{State: SessionResolved})
}

// Subscribe returns a channel receiving every later snapshot. Slow
// readers miss intermediate states rather than blocking the session.
func (s *Session) Subscribe() (<-chan SessionSnapshot, func()) {
	ch := make(chan SessionSnapshot, 4)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Session) set(next SessionSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = next
	for ch := range s.subs {
		select {
		case ch <- next.clone():
		default:
		}
	}
}
