package infrastructure

import (
	"context"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/roxyplus/roxy/internal/modules/player/domain"
)

// MemoryVoiceSessionStore is an in-memory implementation of
// VoiceSessionStore. The session id and the token/endpoint pair arrive in
// separate gateway dispatches in either order; waiters registered through
// AwaitComplete are released once both halves are present.
type MemoryVoiceSessionStore struct {
	mu       sync.Mutex
	sessions map[snowflake.ID]domain.VoiceSession
	waiters  map[snowflake.ID][]chan struct{}
}

// NewMemoryVoiceSessionStore creates a new MemoryVoiceSessionStore.
func NewMemoryVoiceSessionStore() *MemoryVoiceSessionStore {
	return &MemoryVoiceSessionStore{
		sessions: make(map[snowflake.ID]domain.VoiceSession),
		waiters:  make(map[snowflake.ID][]chan struct{}),
	}
}

// RecordSessionUpdate stores the session id half of the credential triple.
func (s *MemoryVoiceSessionStore) RecordSessionUpdate(guildID snowflake.ID, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.sessions[guildID]
	session.SessionID = sessionID
	s.sessions[guildID] = session
	s.notifyLocked(guildID)
}

// RecordServerUpdate stores the token/endpoint half of the credential triple.
func (s *MemoryVoiceSessionStore) RecordServerUpdate(guildID snowflake.ID, token, endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.sessions[guildID]
	session.Token = token
	session.Endpoint = endpoint
	s.sessions[guildID] = session
	s.notifyLocked(guildID)
}

// notifyLocked releases waiters once the triple is complete. Callers hold mu.
func (s *MemoryVoiceSessionStore) notifyLocked(guildID snowflake.ID) {
	if !s.sessions[guildID].Complete() {
		return
	}
	for _, ch := range s.waiters[guildID] {
		close(ch)
	}
	delete(s.waiters, guildID)
}

// Get returns the guild's recorded session.
func (s *MemoryVoiceSessionStore) Get(guildID snowflake.ID) (domain.VoiceSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[guildID]
	return session, ok
}

// IsComplete reports whether the full credential triple is recorded.
func (s *MemoryVoiceSessionStore) IsComplete(guildID snowflake.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions[guildID].Complete()
}

// AwaitComplete blocks until the credential triple is complete or the
// context expires.
func (s *MemoryVoiceSessionStore) AwaitComplete(ctx context.Context, guildID snowflake.ID) error {
	s.mu.Lock()
	if s.sessions[guildID].Complete() {
		s.mu.Unlock()
		return nil
	}
	ready := make(chan struct{})
	s.waiters[guildID] = append(s.waiters[guildID], ready)
	s.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		s.removeWaiter(guildID, ready)
		return ctx.Err()
	}
}

func (s *MemoryVoiceSessionStore) removeWaiter(guildID snowflake.ID, ch chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	waiters := s.waiters[guildID]
	for i, w := range waiters {
		if w == ch {
			s.waiters[guildID] = append(waiters[:i], waiters[i+1:]...)
			return
		}
	}
}

// Clear forgets the guild's session. Pending waiters stay registered and
// will be released by the next complete triple.
func (s *MemoryVoiceSessionStore) Clear(guildID snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, guildID)
}

// Ensure MemoryVoiceSessionStore implements VoiceSessionStore.
var _ domain.VoiceSessionStore = (*MemoryVoiceSessionStore)(nil)
