package net

import (
	"sort"

	"github.com/l1jgo/slgmove/internal/net/packet"
)

// SessionStore tracks live sessions by ID. Game loop goroutine only.
type SessionStore struct {
	sessions map[uint64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uint64]*Session)}
}

func (st *SessionStore) Add(s *Session) {
	st.sessions[s.ID] = s
}

func (st *SessionStore) Remove(id uint64) {
	delete(st.sessions, id)
}

// Get returns the session with the given ID, or nil.
func (st *SessionStore) Get(id uint64) *Session {
	return st.sessions[id]
}

func (st *SessionStore) Count() int {
	return len(st.sessions)
}

// ForEach calls fn for every session in ascending ID order. fn may remove
// the session it is given.
func (st *SessionStore) ForEach(fn func(*Session)) {
	ids := make([]uint64, 0, len(st.sessions))
	for id := range st.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if s := st.sessions[id]; s != nil {
			fn(s)
		}
	}
}

// InField calls fn for every session bound to battlefield fieldID.
func (st *SessionStore) InField(fieldID int16, fn func(*Session)) {
	st.ForEach(func(s *Session) {
		if s.FieldID == fieldID && s.State() == packet.StateInField && !s.IsClosed() {
			fn(s)
		}
	})
}
