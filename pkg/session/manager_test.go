package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/docstore"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

const day = 24 * time.Hour

// clock is a manually advanced time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newManager(t *testing.T, docs docstore.Store, clk *clock) *session.Manager {
	t.Helper()
	return session.New(session.NewDocStore(docs), session.WithClock(clk.Now))
}

func TestManager_Create(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := newClock()
	docs := docstore.NewMemoryStore()
	m := newManager(t, docs, clk)

	token, rec, err := m.Create(ctx, "user-1", session.Metadata{UserAgent: "test-agent", IPAddress: "10.0.0.1"})
	require.NoError(t, err)

	assert.NotEmpty(t, token)
	assert.Equal(t, "user-1", rec.UserID)
	assert.NotEmpty(t, rec.SessionID)
	assert.NotEqual(t, token, rec.TokenHash, "raw token must not be the key")
	assert.Len(t, rec.TokenHash, 64)
	assert.Equal(t, clk.Now(), rec.CreatedAt)
	assert.Equal(t, clk.Now(), rec.LastActiveAt)
	assert.Equal(t, clk.Now(), rec.LastRotatedAt)
	assert.Equal(t, clk.Now().Add(30*day), rec.ExpiresAt)
	assert.Nil(t, rec.RevokedAt)
	assert.Equal(t, "test-agent", rec.UserAgent)
	assert.Equal(t, "10.0.0.1", rec.IPAddress)

	t.Run("raw token is never persisted", func(t *testing.T) {
		var stored map[string]any
		require.NoError(t, docs.Get(ctx, session.DefaultCollection, rec.TokenHash, &stored))
		for k, v := range stored {
			assert.NotEqual(t, token, v, "field %s holds the raw token", k)
		}
	})

	t.Run("tokens are unique", func(t *testing.T) {
		other, _, err := m.Create(ctx, "user-1", session.Metadata{})
		require.NoError(t, err)
		assert.NotEqual(t, token, other)
	})

	t.Run("empty user id", func(t *testing.T) {
		_, _, err := m.Create(ctx, "", session.Metadata{})
		assert.ErrorIs(t, err, session.ErrInvalidUserID)
	})
}

func TestManager_PersistenceRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := newClock()
	docs := docstore.NewMemoryStore()

	token, _, err := newManager(t, docs, clk).Create(ctx, "user-42", session.Metadata{})
	require.NoError(t, err)

	// A fresh manager over the same persisted state sees the session.
	rec, err := newManager(t, docs, clk).Touch(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", rec.UserID)
}

func TestManager_Touch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("slides expiry without moving rotation time", func(t *testing.T) {
		clk := newClock()
		m := newManager(t, docstore.NewMemoryStore(), clk)

		token, created, err := m.Create(ctx, "user-1", session.Metadata{})
		require.NoError(t, err)

		clk.Advance(10 * day)
		rec, err := m.Touch(ctx, token)
		require.NoError(t, err)

		assert.Equal(t, clk.Now(), rec.LastActiveAt)
		assert.Equal(t, clk.Now().Add(30*day), rec.ExpiresAt)
		assert.Equal(t, created.LastRotatedAt, rec.LastRotatedAt)
		assert.Equal(t, created.SessionID, rec.SessionID)
	})

	t.Run("active session never expires", func(t *testing.T) {
		clk := newClock()
		m := newManager(t, docstore.NewMemoryStore(), clk)

		token, _, err := m.Create(ctx, "user-1", session.Metadata{})
		require.NoError(t, err)

		for range 5 {
			clk.Advance(20 * day)
			_, err := m.Touch(ctx, token)
			require.NoError(t, err)
		}
	})

	t.Run("expires after inactivity", func(t *testing.T) {
		clk := newClock()
		docs := docstore.NewMemoryStore()
		m := newManager(t, docs, clk)

		token, rec, err := m.Create(ctx, "user-1", session.Metadata{})
		require.NoError(t, err)

		clk.Advance(31 * day)
		_, err = m.Touch(ctx, token)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)

		stored, err := session.NewDocStore(docs).Get(ctx, rec.TokenHash)
		require.NoError(t, err)
		require.NotNil(t, stored.RevokedAt)
		assert.Equal(t, session.ReasonExpired, stored.RevokeReason)

		// Expiry is terminal even if the clock went backwards.
		clk.Advance(-30 * day)
		_, err = m.Touch(ctx, token)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("expires exactly at ttl", func(t *testing.T) {
		clk := newClock()
		m := newManager(t, docstore.NewMemoryStore(), clk)

		token, _, err := m.Create(ctx, "user-1", session.Metadata{})
		require.NoError(t, err)

		clk.Advance(30 * day)
		_, err = m.Touch(ctx, token)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("unknown and empty tokens", func(t *testing.T) {
		m := newManager(t, docstore.NewMemoryStore(), newClock())

		_, err := m.Touch(ctx, "does-not-exist")
		assert.ErrorIs(t, err, session.ErrSessionNotFound)

		_, err = m.Touch(ctx, "")
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})
}

func TestManager_Rotate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("no-op before the rotation window", func(t *testing.T) {
		clk := newClock()
		m := newManager(t, docstore.NewMemoryStore(), clk)

		token, created, err := m.Create(ctx, "user-1", session.Metadata{})
		require.NoError(t, err)

		clk.Advance(time.Hour)
		rot, err := m.Rotate(ctx, token, session.Metadata{})
		require.NoError(t, err)

		assert.False(t, rot.Rotated)
		assert.Equal(t, token, rot.Token)
		assert.Equal(t, created.SessionID, rot.Record.SessionID)
		assert.Equal(t, clk.Now().Add(30*day), rot.Record.ExpiresAt)

		_, err = m.Touch(ctx, token)
		assert.NoError(t, err, "original token stays valid")
	})

	t.Run("replaces the token once the window elapsed", func(t *testing.T) {
		clk := newClock()
		docs := docstore.NewMemoryStore()
		m := newManager(t, docs, clk)

		token, created, err := m.Create(ctx, "user-1", session.Metadata{UserAgent: "old-agent", IPAddress: "10.0.0.1"})
		require.NoError(t, err)

		clk.Advance(7 * day)
		rot, err := m.Rotate(ctx, token, session.Metadata{IPAddress: "10.0.0.2"})
		require.NoError(t, err)

		require.True(t, rot.Rotated)
		assert.NotEqual(t, token, rot.Token)
		assert.Equal(t, "user-1", rot.Record.UserID)
		assert.NotEqual(t, created.SessionID, rot.Record.SessionID)
		assert.Equal(t, clk.Now(), rot.Record.LastRotatedAt)
		assert.Equal(t, clk.Now().Add(30*day), rot.Record.ExpiresAt)
		assert.Equal(t, "old-agent", rot.Record.UserAgent, "missing metadata is inherited")
		assert.Equal(t, "10.0.0.2", rot.Record.IPAddress)

		_, err = m.Touch(ctx, token)
		assert.ErrorIs(t, err, session.ErrSessionNotFound, "old token is dead")

		rec, err := m.Touch(ctx, rot.Token)
		require.NoError(t, err)
		assert.Equal(t, rot.Record.SessionID, rec.SessionID)

		old, err := session.NewDocStore(docs).Get(ctx, created.TokenHash)
		require.NoError(t, err)
		require.NotNil(t, old.RevokedAt)
		assert.Equal(t, session.ReasonRotated, old.RevokeReason)
		assert.Equal(t, rot.Record.SessionID, old.RotatedTo)
	})

	t.Run("rotation interval is measured from the last rotation", func(t *testing.T) {
		clk := newClock()
		m := newManager(t, docstore.NewMemoryStore(), clk)

		token, _, err := m.Create(ctx, "user-1", session.Metadata{})
		require.NoError(t, err)

		// Frequent touches do not postpone rotation.
		for range 6 {
			clk.Advance(day)
			_, err := m.Touch(ctx, token)
			require.NoError(t, err)
		}
		clk.Advance(day)

		rot, err := m.Rotate(ctx, token, session.Metadata{})
		require.NoError(t, err)
		assert.True(t, rot.Rotated)

		again, err := m.Rotate(ctx, rot.Token, session.Metadata{})
		require.NoError(t, err)
		assert.False(t, again.Rotated, "fresh successor is not rotated again")
	})

	t.Run("revoked and expired sessions are not rotated", func(t *testing.T) {
		clk := newClock()
		m := newManager(t, docstore.NewMemoryStore(), clk)

		revoked, _, err := m.Create(ctx, "user-1", session.Metadata{})
		require.NoError(t, err)
		require.NoError(t, m.Revoke(ctx, revoked, session.ReasonLogout))

		expired, _, err := m.Create(ctx, "user-1", session.Metadata{})
		require.NoError(t, err)

		clk.Advance(40 * day)

		_, err = m.Rotate(ctx, revoked, session.Metadata{})
		assert.ErrorIs(t, err, session.ErrSessionNotFound)

		_, err = m.Rotate(ctx, expired, session.Metadata{})
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("concurrent rotations produce one successor", func(t *testing.T) {
		clk := newClock()
		docs := docstore.NewMemoryStore(docstore.WithMaxAttempts(100))
		m := newManager(t, docs, clk)

		token, created, err := m.Create(ctx, "user-1", session.Metadata{})
		require.NoError(t, err)
		clk.Advance(8 * day)

		const callers = 20
		var (
			wg       sync.WaitGroup
			winners  atomic.Int32
			mu       sync.Mutex
			newToken string
		)
		wg.Add(callers)
		for range callers {
			go func() {
				defer wg.Done()
				rot, err := m.Rotate(ctx, token, session.Metadata{})
				if errors.Is(err, session.ErrSessionNotFound) {
					return
				}
				if !assert.NoError(t, err) {
					return
				}
				if rot.Rotated {
					winners.Add(1)
					mu.Lock()
					newToken = rot.Token
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		require.Equal(t, int32(1), winners.Load())

		old, err := session.NewDocStore(docs).Get(ctx, created.TokenHash)
		require.NoError(t, err)

		rec, err := m.Touch(ctx, newToken)
		require.NoError(t, err)
		assert.Equal(t, old.RotatedTo, rec.SessionID, "predecessor links to the only successor")
	})
}

func TestManager_Revoke(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("logout is terminal", func(t *testing.T) {
		clk := newClock()
		docs := docstore.NewMemoryStore()
		m := newManager(t, docs, clk)

		token, rec, err := m.Create(ctx, "user-1", session.Metadata{})
		require.NoError(t, err)

		require.NoError(t, m.Revoke(ctx, token, session.ReasonLogout))

		for range 3 {
			_, err := m.Touch(ctx, token)
			assert.ErrorIs(t, err, session.ErrSessionNotFound)
			clk.Advance(8 * day)
		}

		stored, err := session.NewDocStore(docs).Get(ctx, rec.TokenHash)
		require.NoError(t, err)
		assert.Equal(t, session.ReasonLogout, stored.RevokeReason)
	})

	t.Run("idempotent", func(t *testing.T) {
		clk := newClock()
		docs := docstore.NewMemoryStore()
		m := newManager(t, docs, clk)

		token, rec, err := m.Create(ctx, "user-1", session.Metadata{})
		require.NoError(t, err)

		require.NoError(t, m.Revoke(ctx, token, session.ReasonLogout))
		clk.Advance(time.Hour)
		require.NoError(t, m.Revoke(ctx, token, session.ReasonReplaced))

		stored, err := session.NewDocStore(docs).Get(ctx, rec.TokenHash)
		require.NoError(t, err)
		assert.Equal(t, session.ReasonLogout, stored.RevokeReason, "first revocation wins")
		assert.Equal(t, rec.CreatedAt, *stored.RevokedAt)
	})

	t.Run("unknown token is a no-op", func(t *testing.T) {
		m := newManager(t, docstore.NewMemoryStore(), newClock())
		assert.NoError(t, m.Revoke(ctx, "nope", session.ReasonLogout))
		assert.NoError(t, m.Revoke(ctx, "", session.ReasonLogout))
	})
}

func TestManager_Lookup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := newClock()
	m := newManager(t, docstore.NewMemoryStore(), clk)

	token, created, err := m.Create(ctx, "user-1", session.Metadata{})
	require.NoError(t, err)

	clk.Advance(day)
	rec, err := m.Lookup(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, created.ExpiresAt, rec.ExpiresAt, "lookup does not slide expiry")

	clk.Advance(30 * day)
	_, err = m.Lookup(ctx, token)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestManager_StoreErrorsPropagate(t *testing.T) {
	t.Parallel()

	boom := errors.New("store down")
	m := session.New(failingStore{err: boom})

	_, _, err := m.Create(context.Background(), "user-1", session.Metadata{})
	assert.ErrorIs(t, err, boom)

	_, err = m.Touch(context.Background(), "token")
	assert.ErrorIs(t, err, boom)

	err = m.Revoke(context.Background(), "token", session.ReasonLogout)
	assert.ErrorIs(t, err, boom)
}

func TestNew_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { session.New(nil) })
	assert.Panics(t, func() {
		session.New(failingStore{}, session.WithTTL(0))
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	store := session.NewDocStore(docstore.NewMemoryStore())

	cfg := session.DefaultConfig()
	cfg.TTL = time.Hour
	m, err := session.NewFromConfig(store, cfg)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, m.Config().TTL)

	cfg.TokenPepper = string(make([]byte, 65))
	_, err = session.NewFromConfig(store, cfg)
	assert.ErrorIs(t, err, session.ErrInvalidPepper)
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) (*session.Record, error) { return nil, f.err }
func (f failingStore) Create(context.Context, *session.Record) error      { return f.err }
func (f failingStore) Update(context.Context, *session.Record) error      { return f.err }
func (f failingStore) Rotate(context.Context, string, *session.Record, time.Time) (*session.Record, error) {
	return nil, f.err
}
