package sessionapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/sessionkit/pkg/binder"
	"github.com/dmitrymomot/sessionkit/pkg/httperr"
	"github.com/dmitrymomot/sessionkit/pkg/identity"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

var (
	errMissingIDToken       = httperr.ErrBadRequest.WithDetail("reason", "idToken is required")
	errUnsupportedMediaType = httperr.New(http.StatusUnsupportedMediaType, "unsupported_media_type")
	errBodyTooLarge         = httperr.New(http.StatusRequestEntityTooLarge, "request_entity_too_large")
)

// toHTTPError maps domain errors onto the response taxonomy. Unknown,
// revoked and expired sessions all read as 401.
func toHTTPError(err error) httperr.HTTPError {
	var httpErr httperr.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, identity.ErrInvalidToken):
		return httperr.ErrUnauthorized
	case errors.Is(err, identity.ErrVerificationFailed):
		return httperr.ErrServiceUnavailable
	case errors.Is(err, binder.ErrMissingContentType),
		errors.Is(err, binder.ErrUnsupportedMediaType):
		return errUnsupportedMediaType
	case errors.Is(err, binder.ErrBodyTooLarge):
		return errBodyTooLarge
	case errors.Is(err, binder.ErrFailedToParseJSON):
		return httperr.ErrBadRequest
	default:
		return httperr.ErrInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httpErr := toHTTPError(err)
	if httpErr.Code >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "session request failed",
			logger.Event(r.Method+" "+r.URL.Path),
			logger.Error(err),
		)
	}
	_ = httperr.Write(w, httpErr)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write response", logger.Error(err))
	}
}
