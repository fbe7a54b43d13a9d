// Package session tracks which program a caller is working in. The store
// is an explicit dependency handed to whoever needs it, not a
// package-level singleton, so per-session state cannot leak across
// programs.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one caller's working context.
type Session struct {
	ID              string    `json:"id"`
	ActiveProgramID string    `json:"activeProgramId"`
	StartedAt       time.Time `json:"startedAt"`
	LastTouched     time.Time `json:"lastTouched"`
}

// Store holds live sessions keyed by id.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Begin opens a session scoped to one program and returns it.
func (s *Store) Begin(programID string) Session {
	now := time.Now().UTC()
	sess := &Session{
		ID:              uuid.New().String(),
		ActiveProgramID: programID,
		StartedAt:       now,
		LastTouched:     now,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return *sess
}

// Get returns the session by id.
func (s *Store) Get(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("session %q not found", id)
	}
	return *sess, nil
}

// SetActiveProgram switches the session to another program.
func (s *Store) SetActiveProgram(id, programID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("session %q not found", id)
	}
	sess.ActiveProgramID = programID
	sess.LastTouched = time.Now().UTC()
	return *sess, nil
}

// End closes a session. Ending an unknown session is a no-op.
func (s *Store) End(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}
