package demo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-backend/internal/payments"
	"storefront-backend/pkg/cache"
)

const (
	redisKeyPrefix       = "demo_session:"
	redisCompletedSuffix = ":completed"
)

// RedisStore keeps sessions as JSON documents in Redis so several API
// instances can share them. Keys expire with the retention window even if the
// janitor never runs.
type RedisStore struct {
	cache     *cache.Cache
	retention time.Duration
}

func NewRedisStore(c *cache.Cache, retention time.Duration) (*RedisStore, error) {
	if !c.Enabled() {
		return nil, errors.New("redis store requires an enabled cache")
	}
	if retention <= 0 {
		return nil, errors.New("redis store requires a positive retention")
	}
	return &RedisStore{cache: c, retention: retention}, nil
}

func sessionKey(id string) string {
	return redisKeyPrefix + id
}

func completedKey(id string) string {
	return redisKeyPrefix + id + redisCompletedSuffix
}

func (s *RedisStore) Save(ctx context.Context, session *Session) error {
	if err := s.cache.Set(ctx, sessionKey(session.ID), session, s.retention); err != nil {
		return fmt.Errorf("failed to save demo session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	var session Session
	if err := s.cache.Get(ctx, sessionKey(id), &session); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, payments.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load demo session: %w", err)
	}
	return &session, nil
}

// MarkComplete claims a completion marker with SETNX so concurrent callers on
// any instance agree on which one performed the transition.
func (s *RedisStore) MarkComplete(ctx context.Context, id string, at time.Time) (*Session, bool, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if session.Status == StatusComplete {
		return session, false, nil
	}

	acquired, err := s.cache.SetNX(ctx, completedKey(id), at, s.retention)
	if err != nil {
		return nil, false, fmt.Errorf("failed to mark demo session complete: %w", err)
	}
	if !acquired {
		var completedAt time.Time
		if err := s.cache.Get(ctx, completedKey(id), &completedAt); err != nil {
			completedAt = at
		}
		session.complete(completedAt)
		return session, false, nil
	}

	// XX keeps a session the janitor removed in the meantime from being
	// recreated without an expiry.
	session.complete(at)
	updated, err := s.cache.SetXX(ctx, sessionKey(id), session, cache.KeepTTL)
	if err != nil {
		return nil, false, fmt.Errorf("failed to save demo session: %w", err)
	}
	if !updated {
		return nil, false, payments.ErrSessionNotFound
	}
	return session, true, nil
}

func (s *RedisStore) sessionIDs(ctx context.Context) ([]string, error) {
	keys, err := s.cache.Keys(ctx, redisKeyPrefix+IDPrefix+"*")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		if strings.HasSuffix(key, redisCompletedSuffix) {
			continue
		}
		ids = append(ids, strings.TrimPrefix(key, redisKeyPrefix))
	}
	return ids, nil
}

func (s *RedisStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	ids, err := s.sessionIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list demo sessions: %w", err)
	}

	removed := 0
	for _, id := range ids {
		session, err := s.Get(ctx, id)
		if errors.Is(err, payments.ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return removed, err
		}
		if session.CreatedAt.After(cutoff) {
			continue
		}
		if err := s.cache.Delete(ctx, sessionKey(id), completedKey(id)); err != nil {
			return removed, fmt.Errorf("failed to delete demo session: %w", err)
		}
		removed++
	}
	return removed, nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	ids, err := s.sessionIDs(ctx)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}
