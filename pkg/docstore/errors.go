package docstore

import "errors"

var (
	// ErrNotFound indicates the document does not exist.
	ErrNotFound = errors.New("docstore.not_found")

	// ErrAlreadyExists indicates Create hit an existing document.
	ErrAlreadyExists = errors.New("docstore.already_exists")

	// ErrTxConflict indicates a transaction lost a race with a concurrent writer.
	ErrTxConflict = errors.New("docstore.tx_conflict")

	// ErrTooManyAttempts indicates a transaction kept conflicting until the retry budget ran out.
	ErrTooManyAttempts = errors.New("docstore.too_many_attempts")

	// ErrInvalidKey indicates an empty collection or document id.
	ErrInvalidKey = errors.New("docstore.invalid_key")
)
