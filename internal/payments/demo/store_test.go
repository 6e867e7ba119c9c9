package demo

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/payments"
	"storefront-backend/pkg/cache"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	session := &Session{
		ID:          NewSessionID(),
		Status:      StatusPending,
		Items:       []LineItem{{Name: "Tee", Price: 3980, Quantity: 1}},
		TotalAmount: 3980,
		Currency:    "jpy",
		CreatedAt:   created,
	}
	require.NoError(t, store.Save(ctx, session))

	// the store keeps its own copy
	session.Items[0].Quantity = 99

	loaded, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), loaded.Items[0].Quantity)
	require.True(t, created.Equal(loaded.CreatedAt))

	_, err = store.Get(ctx, NewSessionID())
	require.ErrorIs(t, err, payments.ErrSessionNotFound)

	completed, transitioned, err := store.MarkComplete(ctx, session.ID, created.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, transitioned)
	require.Equal(t, StatusComplete, completed.Status)

	again, transitioned, err := store.MarkComplete(ctx, session.ID, created.Add(2*time.Minute))
	require.NoError(t, err)
	require.False(t, transitioned)
	require.True(t, created.Add(time.Minute).Equal(*again.CompletedAt))

	_, _, err = store.MarkComplete(ctx, NewSessionID(), created)
	require.ErrorIs(t, err, payments.ErrSessionNotFound)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	removed, err := store.DeleteOlderThan(ctx, created.Add(-time.Second))
	require.NoError(t, err)
	require.Zero(t, removed)

	removed, err = store.DeleteOlderThan(ctx, created)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = store.Get(ctx, session.ID)
	require.ErrorIs(t, err, payments.ErrSessionNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	c, err := cache.NewCache(mr.Addr(), true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	store, err := NewRedisStore(c, time.Hour)
	require.NoError(t, err)
	return store, mr
}

func TestRedisStore(t *testing.T) {
	store, _ := newRedisStore(t)
	exerciseStore(t, store)
}

func TestRedisStoreCompletionKeepsExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	session := &Session{ID: NewSessionID(), Status: StatusPending, CreatedAt: now}
	require.NoError(t, store.Save(ctx, session))

	mr.FastForward(10 * time.Minute)

	_, transitioned, err := store.MarkComplete(ctx, session.ID, now)
	require.NoError(t, err)
	require.True(t, transitioned)
	require.Equal(t, 50*time.Minute, mr.TTL(sessionKey(session.ID)))
}

func TestRedisStoreCompletionAfterRemoval(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	session := &Session{ID: NewSessionID(), Status: StatusPending, CreatedAt: now}
	require.NoError(t, store.Save(ctx, session))

	// the janitor drops the session between the read and the write
	loaded, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	mr.Del(sessionKey(session.ID))

	acquired, err := store.cache.SetNX(ctx, completedKey(session.ID), now, time.Hour)
	require.NoError(t, err)
	require.True(t, acquired)

	loaded.complete(now)
	updated, err := store.cache.SetXX(ctx, sessionKey(session.ID), loaded, cache.KeepTTL)
	require.NoError(t, err)
	require.False(t, updated)
	require.False(t, mr.Exists(sessionKey(session.ID)))

	_, _, err = store.MarkComplete(ctx, session.ID, now)
	require.ErrorIs(t, err, payments.ErrSessionNotFound)
	require.False(t, mr.Exists(sessionKey(session.ID)))
}

func TestRedisStoreConcurrentCompletion(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	session := &Session{ID: NewSessionID(), Status: StatusPending, CreatedAt: now}
	require.NoError(t, store.Save(ctx, session))

	var (
		wg   sync.WaitGroup
		wins int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			completed, transitioned, err := store.MarkComplete(ctx, session.ID, now)
			if err != nil || completed.Status != StatusComplete {
				t.Errorf("unexpected completion result: %+v %v", completed, err)
				return
			}
			if transitioned {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), wins)
}

func TestRedisStoreRequiresEnabledCache(t *testing.T) {
	c, err := cache.NewCache("", false)
	require.NoError(t, err)

	_, err = NewRedisStore(c, time.Hour)
	require.Error(t, err)
}
