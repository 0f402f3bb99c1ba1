// Package session keeps per-session message history for the lifetime of the
// process. It is the only state shared between turns: everything else the
// orchestrator touches is turn-local.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jamjam-ai/jamjam/internal/model/chat"
)

// Store is an in-memory session history store. History reads return copies;
// concurrent turns on the same session id serialize through LockTurn, which
// makes the single-writer-per-session contract enforceable instead of
// documentation-only.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

type entry struct {
	turnMu    sync.Mutex
	createdAt time.Time
	messages  []chat.Message
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*entry)}
}

// Ensure returns a usable session id, minting one when the caller supplied
// none, and guarantees the session exists.
func (s *Store) Ensure(sessionID string) string {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	s.mu.Lock()
	if _, ok := s.sessions[sessionID]; !ok {
		s.sessions[sessionID] = &entry{
			createdAt: time.Now().UTC(),
			messages:  make([]chat.Message, 0, 16),
		}
	}
	s.mu.Unlock()

	return sessionID
}

// LockTurn acquires the per-session turn lock and returns the unlock func.
// A turn holds it from preload through finalize.
func (s *Store) LockTurn(sessionID string) func() {
	e := s.get(sessionID)
	e.turnMu.Lock()
	return e.turnMu.Unlock
}

// History returns a snapshot copy of the session's messages in order.
func (s *Store) History(sessionID string) []chat.Message {
	e := s.get(sessionID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.Message, len(e.messages))
	copy(copied, e.messages)
	return copied
}

// Append adds messages to the session history, stamping ids and timestamps
// when absent.
func (s *Store) Append(sessionID string, msgs ...chat.Message) {
	e := s.get(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range msgs {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now().UTC()
		}
		m.SessionID = sessionID
		e.messages = append(e.messages, m)
	}
}

func (s *Store) get(sessionID string) *entry {
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.Ensure(sessionID)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionID]
}
