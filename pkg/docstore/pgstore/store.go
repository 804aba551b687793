package pgstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/sessionkit/pkg/docstore"
)

const (
	selectQuery    = `SELECT data FROM documents WHERE collection = $1 AND id = $2`
	selectForQuery = selectQuery + ` FOR UPDATE`
	insertQuery    = `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3) ON CONFLICT (collection, id) DO NOTHING`
	upsertQuery    = `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`
	updateQuery = `UPDATE documents SET data = $3, updated_at = now() WHERE collection = $1 AND id = $2`
	deleteQuery = `DELETE FROM documents WHERE collection = $1 AND id = $2`
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements docstore.Store on a single jsonb table.
type Store struct {
	pool        *pgxpool.Pool
	maxAttempts int
}

var _ docstore.Store = (*Store)(nil)

// New wraps an existing pool. The documents table must exist, see Migrate.
func New(pool *pgxpool.Pool, maxAttempts int) *Store {
	if maxAttempts <= 0 {
		maxAttempts = docstore.DefaultMaxAttempts
	}
	return &Store{pool: pool, maxAttempts: maxAttempts}
}

// Pool exposes the underlying pool for health checks and shutdown.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) Get(ctx context.Context, collection, id string, dst any) error {
	if err := docstore.ValidateKey(collection, id); err != nil {
		return err
	}
	return get(ctx, s.pool, selectQuery, collection, id, dst)
}

func (s *Store) Create(ctx context.Context, collection, id string, doc any) error {
	if err := docstore.ValidateKey(collection, id); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, insertQuery, collection, id, data)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return docstore.ErrAlreadyExists
	}
	return nil
}

func (s *Store) Set(ctx context.Context, collection, id string, doc any) error {
	if err := docstore.ValidateKey(collection, id); err != nil {
		return err
	}
	return set(ctx, s.pool, collection, id, doc)
}

func (s *Store) Update(ctx context.Context, collection, id string, doc any) error {
	if err := docstore.ValidateKey(collection, id); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, updateQuery, collection, id, data)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := docstore.ValidateKey(collection, id); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, deleteQuery, collection, id)
	return err
}

// RunTransaction runs fn in a SERIALIZABLE transaction. Rows read inside the
// transaction are locked with FOR UPDATE; phantom inserts of rows that did
// not exist yet are caught by serializable isolation. Serialization failures
// and deadlocks are reported as conflicts and retried.
func (s *Store) RunTransaction(ctx context.Context, fn docstore.TxFunc) error {
	return docstore.Retry(ctx, s.maxAttempts, func(ctx context.Context) error {
		err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(tx pgx.Tx) error {
			return fn(ctx, pgTx{tx: tx})
		})
		if isConflict(err) {
			return errors.Join(docstore.ErrTxConflict, err)
		}
		return err
	})
}

type pgTx struct {
	tx pgx.Tx
}

func (t pgTx) Get(ctx context.Context, collection, id string, dst any) error {
	if err := docstore.ValidateKey(collection, id); err != nil {
		return err
	}
	return get(ctx, t.tx, selectForQuery, collection, id, dst)
}

func (t pgTx) Set(ctx context.Context, collection, id string, doc any) error {
	if err := docstore.ValidateKey(collection, id); err != nil {
		return err
	}
	return set(ctx, t.tx, collection, id, doc)
}

func (t pgTx) Delete(ctx context.Context, collection, id string) error {
	if err := docstore.ValidateKey(collection, id); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, deleteQuery, collection, id)
	return err
}

func get(ctx context.Context, q querier, query, collection, id string, dst any) error {
	var data []byte
	err := q.QueryRow(ctx, query, collection, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return docstore.ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func set(ctx context.Context, q querier, collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, upsertQuery, collection, id, data)
	return err
}
