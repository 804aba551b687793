package redisstore

import "errors"

var (
	ErrFailedToParseConnString = errors.New("redisstore.failed_to_parse_connection_string")
	ErrNotReady                = errors.New("redisstore.not_ready")
	ErrHealthcheckFailed       = errors.New("redisstore.healthcheck_failed")
)
