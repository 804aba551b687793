package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/docstore"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// DefaultCollection is the docstore collection holding counters.
const DefaultCollection = "rate_limits"

// Limiter enforces fixed-window quotas. Counters live in a docstore so any
// number of processes share them; each check-and-increment is one store
// transaction.
type Limiter struct {
	store      docstore.Store
	collection string
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithCollection overrides the counter collection.
func WithCollection(name string) Option {
	return func(l *Limiter) {
		if name != "" {
			l.collection = name
		}
	}
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(l *Limiter) {
		l.logger = log
	}
}

// New creates a limiter over store. Panics if store is nil.
func New(store docstore.Store, opts ...Option) *Limiter {
	if store == nil {
		panic("ratelimiter: store is required")
	}

	l := &Limiter{
		store:      store,
		collection: DefaultCollection,
		now:        time.Now,
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewFromConfig creates a limiter using cfg.
func NewFromConfig(store docstore.Store, cfg Config, opts ...Option) *Limiter {
	return New(store, append([]Option{WithCollection(cfg.Collection)}, opts...)...)
}

// Enforce counts one request against key and reports whether it fits into
// limit requests per window.
//
// A key whose window has elapsed starts a new window at now. A denied call
// does not change the counter.
func (l *Limiter) Enforce(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	if err := (Policy{Limit: limit, Window: window}).validate(); err != nil {
		return nil, fmt.Errorf("%w: limit=%d window=%s", err, limit, window)
	}
	if key == "" {
		return nil, ErrEmptyKey
	}

	var result *Result
	err := l.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		now := l.now()

		var c Counter
		err := tx.Get(ctx, l.collection, key, &c)
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return err
		}

		switch {
		case errors.Is(err, docstore.ErrNotFound) || now.Sub(c.WindowStart) > window:
			c = Counter{Count: 1, WindowStart: now}
		case c.Count >= limit:
			result = &Result{
				Allowed:   false,
				Limit:     limit,
				Remaining: 0,
				ResetAt:   c.WindowStart.Add(window),
			}
			return nil
		default:
			c.Count++
		}

		if err := tx.Set(ctx, l.collection, key, c); err != nil {
			return err
		}
		result = &Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit - c.Count,
			ResetAt:   c.WindowStart.Add(window),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Allowed {
		l.logger.DebugContext(ctx, "rate limit exceeded",
			logger.RateKey(key),
			slog.Time("reset_at", result.ResetAt),
		)
	}
	return result, nil
}

// Allow is Enforce with the limit and window of p.
func (l *Limiter) Allow(ctx context.Context, key string, p Policy) (*Result, error) {
	return l.Enforce(ctx, key, p.Limit, p.Window)
}

// Reset drops the counter for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return l.store.Delete(ctx, l.collection, key)
}
