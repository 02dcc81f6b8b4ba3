// Package session provides the process-wide conversation session store.
// Sessions live only in memory and are lost on restart; there is no
// persistence layer by design.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// LearnedWord is the structured record produced once per tutoring turn.
// Never mutated after creation.
type LearnedWord struct {
	Word  string `json:"word"`
	Topic string `json:"topic"`
	Level string `json:"level"`
	Hint  string `json:"hint"`
}

// session holds the mutable per-session state. Guarded by the store mutex.
type session struct {
	turns   []Turn
	learned []LearnedWord
}

// Store is the process-wide session registry, keyed by opaque session id.
// Sessions are created on first reference.
//
// The store mutex makes individual operations safe under concurrency, but
// two concurrent requests for the same session id may still interleave
// their turn appends. Sessions model a single interactive user, so this is
// a documented limitation rather than something the store serializes.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*session)}
}

// NewID mints a fresh opaque session id.
func (s *Store) NewID() string {
	return uuid.New().String()
}

// get returns the session for id, creating it if needed. Caller must hold
// the write lock.
func (s *Store) get(id string) *session {
	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{}
		s.sessions[id] = sess
	}
	return sess
}

// AppendTurn appends a conversation turn to the session's history.
func (s *Store) AppendTurn(id string, role Role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.get(id)
	sess.turns = append(sess.turns, Turn{Role: role, Text: text, CreatedAt: time.Now().UTC()})
}

// AppendLearned appends learned-word records to the session.
func (s *Store) AppendLearned(id string, records ...LearnedWord) {
	if len(records) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.get(id)
	sess.learned = append(sess.learned, records...)
}

// Turns returns a copy of the session's conversation history, oldest first.
// An unknown id yields an empty slice.
func (s *Store) Turns(id string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return []Turn{}
	}
	out := make([]Turn, len(sess.turns))
	copy(out, sess.turns)
	return out
}

// Learned returns a copy of the session's learned-word records, oldest
// first. An unknown id yields an empty slice.
func (s *Store) Learned(id string) []LearnedWord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return []LearnedWord{}
	}
	out := make([]LearnedWord, len(sess.learned))
	copy(out, sess.learned)
	return out
}

// Reset clears the named session. Other sessions are unaffected.
func (s *Store) Reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
