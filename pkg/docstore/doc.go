// Package docstore defines a small transactional document store used as the
// shared state layer for sessions and rate-limit counters.
//
// The abstraction is intentionally narrow: documents are addressed by a
// collection name and an id, read and written whole, and can be mutated
// atomically inside RunTransaction. Backends live in sub-packages:
//
//   - docstore (this package) – MemoryStore, an in-process implementation with
//     optimistic concurrency control. Used in tests and single-node setups.
//   - docstore/mongostore – MongoDB multi-document transactions.
//   - docstore/redisstore – Redis WATCH/MULTI/EXEC.
//   - docstore/pgstore – PostgreSQL SERIALIZABLE transactions over a jsonb table.
//
// # Usage
//
//	store := docstore.NewMemoryStore()
//
//	err := store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
//	    var c counter
//	    if err := tx.Get(ctx, "counters", "a", &c); err != nil && !errors.Is(err, docstore.ErrNotFound) {
//	        return err
//	    }
//	    c.N++
//	    return tx.Set(ctx, "counters", "a", c)
//	})
//
// # Transactions
//
// The callback passed to RunTransaction may be executed more than once: when a
// backend reports a write conflict the whole callback is retried, up to the
// configured number of attempts. Callbacks must therefore be free of side
// effects outside the transaction and must use the context they receive.
//
// # Error Handling
//
//   - ErrNotFound        – no document with the given id
//   - ErrAlreadyExists   – Create on an occupied id
//   - ErrTxConflict      – a concurrent writer won; retried by RunTransaction
//   - ErrTooManyAttempts – conflicts persisted past the retry budget
package docstore
