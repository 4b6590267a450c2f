package session

import "sync"

// Store keeps live sessions in memory, keyed by session ID. Snapshots are
// swapped wholesale via Put; data is lost on process exit, which matches
// the session lifecycle (nothing persists beyond the in-memory session).
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]Session)}
}

// Create allocates a fresh session and registers it.
func (st *Store) Create() Session {
	s := New()
	st.Put(s)
	return s
}

// Get returns the current snapshot for a session ID.
func (st *Store) Get(id string) (Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Put replaces the stored snapshot for the session.
func (st *Store) Put(s Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

// Mutate applies fn to the stored snapshot under the write lock and swaps
// in the returned value when fn reports true. Concurrent edits to the same
// session go through here so a read-modify-write cannot clobber another.
// exists is false when no session has this ID.
func (st *Store) Mutate(id string, fn func(Session) (Session, bool)) (s Session, applied, exists bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	cur, ok := st.sessions[id]
	if !ok {
		return Session{}, false, false
	}
	next, ok := fn(cur)
	if !ok {
		return cur, false, true
	}
	st.sessions[id] = next
	return next, true, true
}

// Delete removes a session entirely.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}
