package session

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/dmitrymomot/sessionkit/pkg/httperr"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// MiddlewareOption configures Authenticate.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	autoRotate bool
}

// WithAutoRotate makes Authenticate call Rotate instead of Touch and re-issue
// the token through the transport whenever it changes.
func WithAutoRotate() MiddlewareOption {
	return func(c *middlewareConfig) {
		c.autoRotate = true
	}
}

// Authenticate validates the token carried by t and stores the record in the
// request context. Requests without a valid session continue anonymously;
// store failures end the request with 500.
func Authenticate(m *Manager, t Transport, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	var cfg middlewareConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := t.GetToken(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			rec, err := m.authenticate(r.Context(), w, r, t, token, cfg.autoRotate)
			switch {
			case errors.Is(err, ErrSessionNotFound):
				_ = t.ClearToken(w)
				next.ServeHTTP(w, r)
				return
			case err != nil:
				m.logger.ErrorContext(r.Context(), "session validation failed", logger.Error(err))
				_ = httperr.Write(w, httperr.ErrInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithRecord(r.Context(), rec)))
		})
	}
}

func (m *Manager) authenticate(ctx context.Context, w http.ResponseWriter, r *http.Request, t Transport, token string, autoRotate bool) (*Record, error) {
	if !autoRotate {
		return m.Touch(ctx, token)
	}

	rot, err := m.Rotate(ctx, token, MetadataFromRequest(r))
	if err != nil {
		return nil, err
	}
	if rot.Rotated {
		if err := t.SetToken(w, rot.Token, m.config.TTL); err != nil {
			return nil, err
		}
	}
	return rot.Record, nil
}

// RequireSession rejects requests without a validated session with 401.
// Must run after Authenticate.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			_ = httperr.Write(w, httperr.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RoleResolver looks up the role of a user. User records live outside this
// package.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID string) (string, error)
}

// RoleResolverFunc adapts a function to RoleResolver.
type RoleResolverFunc func(ctx context.Context, userID string) (string, error)

func (f RoleResolverFunc) ResolveRole(ctx context.Context, userID string) (string, error) {
	return f(ctx, userID)
}

// RequireRole admits sessions whose user holds one of roles. No session is
// 401, any other role is 403, a resolver failure is 500.
func RequireRole(resolver RoleResolver, roles ...string) func(http.Handler) http.Handler {
	if resolver == nil {
		panic("session: role resolver is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				_ = httperr.Write(w, httperr.ErrUnauthorized)
				return
			}

			role, err := resolver.ResolveRole(r.Context(), userID)
			switch {
			case errors.Is(err, ErrForbidden):
				_ = httperr.Write(w, httperr.ErrForbidden)
				return
			case err != nil:
				_ = httperr.Write(w, httperr.ErrInternalServerError)
				return
			}

			if !slices.Contains(roles, role) {
				_ = httperr.Write(w, httperr.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
