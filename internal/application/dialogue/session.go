package dialogue

import "sync"

// AnonymousSessionKey holds the session of every turn without a user id.
const AnonymousSessionKey = "_anon"

// ══════════════════════════════════════════════════════════════════════════════
// SESSION STORE
// Per-user conversation state for the lifetime of the process.
// ══════════════════════════════════════════════════════════════════════════════

// Session is the mutable state of one user. Only the last dispatched intent
// is tracked.
type Session struct {
	mu         sync.Mutex
	lastIntent Intent
}

// LastIntent returns the last dispatched intent, IntentNone before the first.
func (s *Session) LastIntent() Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastIntent
}

// SetLastIntent records a dispatched intent.
func (s *Session) SetLastIntent(intent Intent) {
	s.mu.Lock()
	s.lastIntent = intent
	s.mu.Unlock()
}

// SessionStore is a concurrent get-or-create map of sessions. It never evicts.
type SessionStore struct {
	sessions sync.Map // string -> *Session
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Get returns the session for userID, creating it on first access.
func (s *SessionStore) Get(userID string) *Session {
	key := userID
	if key == "" {
		key = AnonymousSessionKey
	}
	if v, ok := s.sessions.Load(key); ok {
		return v.(*Session)
	}
	v, _ := s.sessions.LoadOrStore(key, &Session{})
	return v.(*Session)
}

// Len counts the sessions created so far.
func (s *SessionStore) Len() int {
	n := 0
	s.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
