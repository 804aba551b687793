// Package redisstore implements docstore.Store on Redis with go-redis v9.
//
// Plain operations map onto GET, SET, SETNX (Create), SET XX (Update) and DEL.
// Transactions use the classic optimistic pattern: keys are WATCHed as they
// are read, writes are queued and sent in a single MULTI/EXEC. If any watched
// key changed, EXEC aborts, the attempt is reported as docstore.ErrTxConflict
// and the whole callback runs again.
//
// # Usage
//
//	var cfg redisstore.Config
//	config.MustLoad(&cfg)
//
//	store, err := redisstore.NewFromConfig(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	limiter := ratelimiter.New(store)
package redisstore
