package yahoo

import (
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// SessionStore keeps provider sessions in process memory, keyed by the
// session id carried in the client's cookie.
type SessionStore struct {
	auth *Authenticator

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionStore(auth *Authenticator) *SessionStore {
	return &SessionStore{
		auth:     auth,
		sessions: make(map[string]*Session),
	}
}

// Ensure returns the session for sid, minting a fresh id when sid is empty
// or unknown. The returned id must be echoed back to the client.
func (s *SessionStore) Ensure(sid string) (*Session, string) {
	if sid != "" {
		s.mu.RLock()
		session, ok := s.sessions[sid]
		s.mu.RUnlock()
		if ok {
			return session, sid
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sid == "" {
		sid = uuid.NewString()
	}
	if session, ok := s.sessions[sid]; ok {
		return session, sid
	}
	session := &Session{id: sid, auth: s.auth}
	s.sessions[sid] = session
	return session, sid
}

// Get returns the session for sid only if it exists and holds a token.
func (s *SessionStore) Get(sid string) (*Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[sid]
	s.mu.RUnlock()
	if !ok || !session.authenticated() {
		return nil, false
	}
	return session, true
}

// Install stores the exchanged token under sid, creating the session when
// the callback arrives before any other request did.
func (s *SessionStore) Install(sid string, token *oauth2.Token) {
	session, _ := s.Ensure(sid)
	session.install(token)
}

// Drop discards the session entirely.
func (s *SessionStore) Drop(sid string) {
	s.mu.Lock()
	delete(s.sessions, sid)
	s.mu.Unlock()
}
