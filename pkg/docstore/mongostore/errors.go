package mongostore

import "errors"

var (
	ErrFailedToConnect   = errors.New("mongostore.failed_to_connect")
	ErrHealthcheckFailed = errors.New("mongostore.healthcheck_failed")
)
