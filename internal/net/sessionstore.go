package net

// SessionStore tracks live sessions by ID.
// Accessed only from the game loop goroutine — no locks.
type SessionStore struct {
	sessions map[uint64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uint64]*Session)}
}

func (st *SessionStore) Add(s *Session) {
	st.sessions[s.ID] = s
}

func (st *SessionStore) Get(id uint64) *Session {
	return st.sessions[id]
}

func (st *SessionStore) Remove(id uint64) *Session {
	s := st.sessions[id]
	delete(st.sessions, id)
	return s
}

// Raw exposes the underlying map for tick iteration.
func (st *SessionStore) Raw() map[uint64]*Session {
	return st.sessions
}

func (st *SessionStore) Count() int {
	return len(st.sessions)
}
