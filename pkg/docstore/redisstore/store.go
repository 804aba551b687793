package redisstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sessionkit/pkg/docstore"
)

// Store implements docstore.Store on Redis. Documents are JSON strings under
// "<prefix><collection>:<id>" with no expiry.
type Store struct {
	client      redis.UniversalClient
	prefix      string
	maxAttempts int
}

var _ docstore.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix namespaces every key written by the store.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithMaxAttempts bounds how often a conflicting transaction is re-run.
func WithMaxAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// New wraps an existing client.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client:      client,
		maxAttempts: docstore.DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig connects using cfg and returns a ready store.
func NewFromConfig(ctx context.Context, cfg Config) (*Store, error) {
	client, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(client, WithKeyPrefix(cfg.KeyPrefix), WithMaxAttempts(cfg.MaxAttempts)), nil
}

// Client exposes the underlying client for health checks and shutdown.
func (s *Store) Client() redis.UniversalClient {
	return s.client
}

func (s *Store) Get(ctx context.Context, collection, id string, dst any) error {
	if err := docstore.ValidateKey(collection, id); err != nil {
		return err
	}
	return decode(s.client.Get(ctx, s.key(collection, id)), dst)
}

func (s *Store) Create(ctx context.Context, collection, id string, doc any) error {
	if err := docstore.ValidateKey(collection, id); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, s.key(collection, id), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return docstore.ErrAlreadyExists
	}
	return nil
}

func (s *Store) Set(ctx context.Context, collection, id string, doc any) error {
	if err := docstore.ValidateKey(collection, id); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(collection, id), data, 0).Err()
}

func (s *Store) Update(ctx context.Context, collection, id string, doc any) error {
	if err := docstore.ValidateKey(collection, id); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	ok, err := s.client.SetXX(ctx, s.key(collection, id), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := docstore.ValidateKey(collection, id); err != nil {
		return err
	}
	return s.client.Del(ctx, s.key(collection, id)).Err()
}

// RunTransaction implements optimistic locking with WATCH. Every key read
// inside fn is watched; buffered writes are flushed in MULTI/EXEC and an
// aborted EXEC is reported as a conflict and retried.
func (s *Store) RunTransaction(ctx context.Context, fn docstore.TxFunc) error {
	return docstore.Retry(ctx, s.maxAttempts, func(ctx context.Context) error {
		err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
			tx := &redisTx{store: s, rtx: rtx, writes: make(map[string]*[]byte)}
			if err := fn(ctx, tx); err != nil {
				return err
			}
			if len(tx.writes) == 0 {
				return nil
			}

			_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for key, data := range tx.writes {
					if data == nil {
						pipe.Del(ctx, key)
						continue
					}
					pipe.Set(ctx, key, *data, 0)
				}
				return nil
			})
			return err
		})
		if errors.Is(err, redis.TxFailedErr) {
			return docstore.ErrTxConflict
		}
		return err
	})
}

func (s *Store) key(collection, id string) string {
	return s.prefix + collection + ":" + id
}

// redisTx buffers writes until EXEC. A nil entry in writes marks a delete.
type redisTx struct {
	store  *Store
	rtx    *redis.Tx
	writes map[string]*[]byte
}

func (tx *redisTx) Get(ctx context.Context, collection, id string, dst any) error {
	if err := docstore.ValidateKey(collection, id); err != nil {
		return err
	}

	key := tx.store.key(collection, id)
	if data, ok := tx.writes[key]; ok {
		if data == nil {
			return docstore.ErrNotFound
		}
		return json.Unmarshal(*data, dst)
	}

	if err := tx.rtx.Watch(ctx, key).Err(); err != nil {
		return err
	}
	return decode(tx.rtx.Get(ctx, key), dst)
}

func (tx *redisTx) Set(ctx context.Context, collection, id string, doc any) error {
	if err := docstore.ValidateKey(collection, id); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	tx.writes[tx.store.key(collection, id)] = &data
	return nil
}

func (tx *redisTx) Delete(ctx context.Context, collection, id string) error {
	if err := docstore.ValidateKey(collection, id); err != nil {
		return err
	}
	tx.writes[tx.store.key(collection, id)] = nil
	return nil
}

func decode(cmd *redis.StringCmd, dst any) error {
	data, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return docstore.ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
