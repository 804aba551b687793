package session

import "errors"

var (
	// ErrSessionNotFound covers unknown, revoked and expired sessions alike.
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrDuplicateToken indicates the token hash is already bound to a record.
	ErrDuplicateToken = errors.New("session.duplicate_token")

	// ErrInvalidUserID indicates a session was requested for an empty user ID.
	ErrInvalidUserID = errors.New("session.invalid_user_id")

	// ErrTokenGeneration indicates token generation failed
	ErrTokenGeneration = errors.New("session.token_generation_failed")

	// ErrInvalidPepper indicates the hashing key is longer than BLAKE2b accepts.
	ErrInvalidPepper = errors.New("session.invalid_pepper")

	// ErrForbidden indicates the session's user lacks a required role.
	ErrForbidden = errors.New("session.forbidden")
)
