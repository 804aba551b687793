package pgstore

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrFailedToOpenConnection  = errors.New("pgstore.failed_to_open_connection")
	ErrFailedToParseConfig     = errors.New("pgstore.failed_to_parse_config")
	ErrFailedToApplyMigrations = errors.New("pgstore.failed_to_apply_migrations")
	ErrHealthcheckFailed       = errors.New("pgstore.healthcheck_failed")
)

// SQLSTATE codes that mean "another transaction won, try again".
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
)

// isConflict reports whether err is a concurrency failure that a fresh
// attempt of the same transaction can resolve.
func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeUniqueViolation:
		return true
	}
	return false
}
