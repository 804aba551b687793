// Package pgstore implements docstore.Store on PostgreSQL using pgx/v5.
//
// All collections share one table, documents(collection, id, data jsonb),
// created by the goose migration embedded in this package. Transactions run
// at SERIALIZABLE isolation and lock the rows they read with FOR UPDATE, which
// gives the check-then-write atomicity the rate limiter and session rotation
// rely on. Serialization failures (40001), deadlocks (40P01) and unique
// violations raised inside a transaction are retried.
//
// # Usage
//
//	var cfg pgstore.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pgstore.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	if err := pgstore.Migrate(ctx, pool, cfg, log); err != nil {
//	    return err
//	}
//	store := pgstore.New(pool, cfg.TxMaxAttempts)
package pgstore
