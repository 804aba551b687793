package session

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/docstore"
)

// Store persists session records keyed by token hash.
type Store interface {
	// Get returns the record stored under hash, revoked or not.
	// Returns ErrSessionNotFound when nothing is stored.
	Get(ctx context.Context, hash string) (*Record, error)

	// Create stores a new record. Returns ErrDuplicateToken if the hash is taken.
	Create(ctx context.Context, rec *Record) error

	// Update overwrites a live record. Returns ErrSessionNotFound when the
	// stored record is missing or already revoked, so a terminal record is
	// never brought back.
	Update(ctx context.Context, rec *Record) error

	// Rotate atomically revokes the live record under predecessorHash with
	// reason "rotated", links it to successor and stores successor. Returns
	// ErrSessionNotFound when the predecessor is missing or already revoked,
	// which is how the loser of two concurrent rotations finds out.
	Rotate(ctx context.Context, predecessorHash string, successor *Record, now time.Time) (*Record, error)
}

// DefaultCollection is the docstore collection holding session records.
const DefaultCollection = "sessions"

// DocStore implements Store on top of any docstore backend.
type DocStore struct {
	docs       docstore.Store
	collection string
}

// DocStoreOption configures a DocStore.
type DocStoreOption func(*DocStore)

// WithCollection overrides the collection name.
func WithCollection(name string) DocStoreOption {
	return func(s *DocStore) {
		if name != "" {
			s.collection = name
		}
	}
}

// NewDocStore wraps docs as a session Store.
func NewDocStore(docs docstore.Store, opts ...DocStoreOption) *DocStore {
	if docs == nil {
		panic("session: docstore is required")
	}

	s := &DocStore{docs: docs, collection: DefaultCollection}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DocStore) Get(ctx context.Context, hash string) (*Record, error) {
	var rec Record
	if err := s.docs.Get(ctx, s.collection, hash, &rec); err != nil {
		return nil, mapNotFound(err)
	}
	return &rec, nil
}

func (s *DocStore) Create(ctx context.Context, rec *Record) error {
	err := s.docs.Create(ctx, s.collection, rec.TokenHash, rec)
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return ErrDuplicateToken
	}
	return err
}

func (s *DocStore) Update(ctx context.Context, rec *Record) error {
	return s.docs.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		var current Record
		if err := tx.Get(ctx, s.collection, rec.TokenHash, &current); err != nil {
			return mapNotFound(err)
		}
		if current.IsRevoked() {
			return ErrSessionNotFound
		}
		return tx.Set(ctx, s.collection, rec.TokenHash, rec)
	})
}

func (s *DocStore) Rotate(ctx context.Context, predecessorHash string, successor *Record, now time.Time) (*Record, error) {
	var retired *Record

	err := s.docs.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		// Fresh value per attempt; decoding into a reused struct keeps stale fields.
		var predecessor Record
		if err := tx.Get(ctx, s.collection, predecessorHash, &predecessor); err != nil {
			return mapNotFound(err)
		}
		if predecessor.IsRevoked() {
			return ErrSessionNotFound
		}

		var existing Record
		switch err := tx.Get(ctx, s.collection, successor.TokenHash, &existing); {
		case err == nil:
			return ErrDuplicateToken
		case !errors.Is(err, docstore.ErrNotFound):
			return err
		}

		predecessor.revoke(now, ReasonRotated)
		predecessor.RotatedTo = successor.SessionID

		if err := tx.Set(ctx, s.collection, predecessorHash, &predecessor); err != nil {
			return err
		}
		if err := tx.Set(ctx, s.collection, successor.TokenHash, successor); err != nil {
			return err
		}
		retired = &predecessor
		return nil
	})
	if err != nil {
		return nil, err
	}
	return retired, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}
