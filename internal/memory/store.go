package memory

import (
	"sync"
	"time"
)

// Store keeps one SummaryBuffer per session ID. Buffers idle for longer than
// the TTL are dropped on the next access.
type Store struct {
	mu        sync.Mutex
	ttl       time.Duration
	newBuffer func() *SummaryBuffer
	now       func() time.Time
	sessions  map[string]*session
}

type session struct {
	buffer   *SummaryBuffer
	lastUsed time.Time
}

// NewStore returns a store creating buffers with newBuffer. A zero ttl keeps
// sessions forever.
func NewStore(ttl time.Duration, newBuffer func() *SummaryBuffer) *Store {
	return &Store{
		ttl:       ttl,
		newBuffer: newBuffer,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
}

// Get returns the buffer for id, creating it if the session is new or expired.
func (s *Store) Get(id string) *SummaryBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictLocked(now)

	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{buffer: s.newBuffer()}
		s.sessions[id] = sess
	}
	sess.lastUsed = now
	return sess.buffer
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) evictLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for id, sess := range s.sessions {
		if now.Sub(sess.lastUsed) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
