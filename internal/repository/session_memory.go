package repository

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/courtweb-service/internal/domain"
)

type memorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.SessionRecord
}

// NewMemorySessionStore returns an in-process implementation used for
// tests and local runs without backing infrastructure.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{sessions: make(map[string]domain.SessionRecord)}
}

func (s *memorySessionStore) Upsert(_ context.Context, record *domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[record.SessionID] = *record
	return nil
}

func (s *memorySessionStore) Get(_ context.Context, sessionID string) (*domain.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if record.Expired(time.Now()) {
		delete(s.sessions, sessionID)
		return nil, ErrSessionNotFound
	}
	copied := record
	return &copied, nil
}

func (s *memorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *memorySessionStore) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for id, record := range s.sessions {
		if record.Expired(now) {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}
