package docstore

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// DefaultMaxAttempts is the number of times a conflicting transaction is run before giving up.
const DefaultMaxAttempts = 5

// Store is a collection-scoped document store with a transaction primitive.
type Store interface {
	// Get decodes the document into dst. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, collection, id string, dst any) error

	// Create stores a new document. Returns ErrAlreadyExists if the id is taken.
	Create(ctx context.Context, collection, id string, doc any) error

	// Set stores the document, replacing any previous version.
	Set(ctx context.Context, collection, id string, doc any) error

	// Update replaces an existing document. Returns ErrNotFound if it does not exist.
	Update(ctx context.Context, collection, id string, doc any) error

	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// RunTransaction executes fn atomically, retrying it on write conflicts.
	RunTransaction(ctx context.Context, fn TxFunc) error
}

// Tx is the view of the store available inside a transaction.
// Reads observe the transaction's own buffered writes.
type Tx interface {
	Get(ctx context.Context, collection, id string, dst any) error
	Set(ctx context.Context, collection, id string, doc any) error
	Delete(ctx context.Context, collection, id string) error
}

// TxFunc is the body of a transaction. It may run more than once.
type TxFunc func(ctx context.Context, tx Tx) error

// Retry runs attempt until it succeeds, fails with an error other than
// ErrTxConflict, or maxAttempts is exhausted. Backends share it to give every
// store the same conflict semantics.
func Retry(ctx context.Context, maxAttempts int, attempt func(ctx context.Context) error) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	for i := range maxAttempts {
		err := attempt(ctx)
		if err == nil || !errors.Is(err, ErrTxConflict) {
			return err
		}

		if i == maxAttempts-1 {
			break
		}

		timer := time.NewTimer(backoff(i))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return ErrTooManyAttempts
}

// maxBackoff caps the base delay between attempts.
const maxBackoff = 50 * time.Millisecond

// backoff returns a jittered delay that grows with the attempt number.
func backoff(attempt int) time.Duration {
	base := min(time.Duration(attempt+1)*2*time.Millisecond, maxBackoff)
	return base + rand.N(base)
}

// ValidateKey rejects empty collection names and ids.
func ValidateKey(collection, id string) error {
	if collection == "" || id == "" {
		return ErrInvalidKey
	}
	return nil
}
