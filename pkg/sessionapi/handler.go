package sessionapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/sessionkit/pkg/binder"
	"github.com/dmitrymomot/sessionkit/pkg/identity"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/ratelimiter"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// createKeyPrefix namespaces POST /session counters in the rate limit store.
const createKeyPrefix = "session:"

// Handler serves the session endpoints.
type Handler struct {
	sessions  *session.Manager
	transport session.Transport
	verifier  identity.Verifier
	limiter   *ratelimiter.Limiter
	policy    ratelimiter.Policy
	bind      binder.Bind
	logger    *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithRateLimit throttles POST /session per client IP.
func WithRateLimit(l *ratelimiter.Limiter, p ratelimiter.Policy) Option {
	return func(h *Handler) {
		h.limiter = l
		h.policy = p
	}
}

// WithMaxBodySize caps request bodies.
func WithMaxBodySize(n int64) Option {
	return func(h *Handler) {
		h.bind = binder.JSON(binder.WithMaxSize(n))
	}
}

// WithLogger sets the logger for unexpected failures.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a Handler. Panics if any dependency is nil.
func New(sessions *session.Manager, transport session.Transport, verifier identity.Verifier, opts ...Option) *Handler {
	if sessions == nil || transport == nil || verifier == nil {
		panic("sessionapi: manager, transport and verifier are required")
	}

	h := &Handler{
		sessions:  sessions,
		transport: transport,
		verifier:  verifier,
		bind:      binder.JSON(),
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewFromConfig creates a Handler using cfg. A nil limiter disables throttling.
func NewFromConfig(sessions *session.Manager, transport session.Transport, verifier identity.Verifier, limiter *ratelimiter.Limiter, cfg Config, opts ...Option) *Handler {
	configOpts := []Option{WithMaxBodySize(cfg.MaxBodySize)}
	if policy, ok := cfg.CreatePolicy(); ok && limiter != nil {
		configOpts = append(configOpts, WithRateLimit(limiter, policy))
	}
	return New(sessions, transport, verifier, append(configOpts, opts...)...)
}

// Routes returns a router serving /session.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/session", func(r chi.Router) {
		create := http.Handler(http.HandlerFunc(h.create))
		if h.limiter != nil {
			create = ratelimiter.Middleware(h.limiter, h.policy,
				ratelimiter.Prefixed(createKeyPrefix, ratelimiter.ByIP))(create)
		}

		r.Method(http.MethodPost, "/", create)
		r.Get("/", h.current)
		r.Put("/", h.rotate)
		r.Delete("/", h.logout)
	})

	return r
}
