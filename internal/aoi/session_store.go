package aoi

import "sync"

// SessionStore keeps one Session per owner
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty store
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Get returns the owner's session and whether it already existed
func (st *SessionStore) Get(owner string) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[owner]
	st.mu.RUnlock()
	if ok {
		return s, true
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[owner]; ok {
		return s, true
	}
	s = NewSession(owner)
	st.sessions[owner] = s
	return s, false
}

// Len returns the number of live sessions
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
