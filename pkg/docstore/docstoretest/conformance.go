// Package docstoretest provides a behavioural test suite that every
// docstore.Store implementation is expected to pass.
package docstoretest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/docstore"
)

type document struct {
	N     int    `json:"n" bson:"n"`
	Label string `json:"label,omitempty" bson:"label,omitempty"`
}

// Run exercises store. Every subtest uses a fresh collection so the suite
// can run against shared live servers.
func Run(t *testing.T, store docstore.Store) {
	t.Helper()

	ctx := context.Background()
	collection := func() string { return "conformance_" + uuid.NewString()[:8] }

	t.Run("get missing", func(t *testing.T) {
		var d document
		err := store.Get(ctx, collection(), "missing", &d)
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("create get update delete", func(t *testing.T) {
		c := collection()

		require.NoError(t, store.Create(ctx, c, "a", document{N: 1, Label: "first"}))
		assert.ErrorIs(t, store.Create(ctx, c, "a", document{N: 2}), docstore.ErrAlreadyExists)

		var d document
		require.NoError(t, store.Get(ctx, c, "a", &d))
		assert.Equal(t, document{N: 1, Label: "first"}, d)

		require.NoError(t, store.Update(ctx, c, "a", document{N: 5}))
		require.NoError(t, store.Get(ctx, c, "a", &d))
		assert.Equal(t, 5, d.N)

		require.NoError(t, store.Delete(ctx, c, "a"))
		assert.ErrorIs(t, store.Get(ctx, c, "a", &d), docstore.ErrNotFound)
		assert.NoError(t, store.Delete(ctx, c, "a"))
	})

	t.Run("update missing", func(t *testing.T) {
		err := store.Update(ctx, collection(), "missing", document{N: 1})
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("set upserts", func(t *testing.T) {
		c := collection()

		require.NoError(t, store.Set(ctx, c, "a", document{N: 1}))
		require.NoError(t, store.Set(ctx, c, "a", document{N: 2}))

		var d document
		require.NoError(t, store.Get(ctx, c, "a", &d))
		assert.Equal(t, 2, d.N)
	})

	t.Run("transaction error rolls back", func(t *testing.T) {
		c := collection()
		boom := errors.New("boom")

		err := store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
			if err := tx.Set(ctx, c, "a", document{N: 1}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		var d document
		assert.ErrorIs(t, store.Get(ctx, c, "a", &d), docstore.ErrNotFound)
	})

	t.Run("transaction reads own writes", func(t *testing.T) {
		c := collection()

		err := store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
			if err := tx.Set(ctx, c, "a", document{N: 7}); err != nil {
				return err
			}
			var d document
			if err := tx.Get(ctx, c, "a", &d); err != nil {
				return err
			}
			if d.N != 7 {
				return errors.New("own write not visible")
			}
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("concurrent read-modify-write", func(t *testing.T) {
		c := collection()
		const workers = 10

		var wg sync.WaitGroup
		errs := make(chan error, workers)
		wg.Add(workers)

		for range workers {
			go func() {
				defer wg.Done()
				errs <- store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
					var d document
					if err := tx.Get(ctx, c, "shared", &d); err != nil && !errors.Is(err, docstore.ErrNotFound) {
						return err
					}
					d.N++
					return tx.Set(ctx, c, "shared", d)
				})
			}()
		}
		wg.Wait()
		close(errs)

		succeeded := 0
		for err := range errs {
			if err == nil {
				succeeded++
			} else {
				// Contended stores may exhaust their retry budget; that must never lose an update.
				require.ErrorIs(t, err, docstore.ErrTooManyAttempts)
			}
		}

		var d document
		require.NoError(t, store.Get(ctx, c, "shared", &d))
		assert.Equal(t, succeeded, d.N)
	})
}
