package demo

import (
	"context"
	"sync"
	"time"

	"storefront-backend/internal/payments"
)

// Store persists demo sessions. Implementations return payments.ErrSessionNotFound
// for unknown ids.
type Store interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	// MarkComplete moves a pending session to complete. The boolean is true
	// only for the call that performed the transition.
	MarkComplete(ctx context.Context, id string, at time.Time) (*Session, bool, error)
	// DeleteOlderThan removes sessions created at or before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	Count(ctx context.Context) (int, error)
}

// MemoryStore keeps sessions in a process-wide map. Nothing survives a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (s *MemoryStore) Save(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session.clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, payments.ErrSessionNotFound
	}
	return session.clone(), nil
}

func (s *MemoryStore) MarkComplete(_ context.Context, id string, at time.Time) (*Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, false, payments.ErrSessionNotFound
	}
	if session.Status == StatusComplete {
		return session.clone(), false, nil
	}
	session.complete(at)
	return session.clone(), true, nil
}

func (s *MemoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.sessions {
		if !session.CreatedAt.After(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}
