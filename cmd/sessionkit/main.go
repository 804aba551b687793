// Command sessionkit serves the session lifecycle endpoints.
//
// Configuration comes from the environment (and an optional .env file):
// STORE_DRIVER selects memory, mongo, redis or postgres; see the Config
// types of the wired packages for the rest.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/sessionkit/pkg/clientip"
	"github.com/dmitrymomot/sessionkit/pkg/config"
	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/httpserver"
	"github.com/dmitrymomot/sessionkit/pkg/identity"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/ratelimiter"
	"github.com/dmitrymomot/sessionkit/pkg/requestid"
	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/sessionapi"
)

// closeTimeout bounds releasing the store after the server stopped.
const closeTimeout = 5 * time.Second

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "sessionkit: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := logger.New(
		logger.WithConfig(cfg.Log),
		logger.WithContextExtractors(requestid.LoggerExtractor(), clientip.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	be, err := openBackend(ctx, cfg.StoreDriver, log)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if err := be.close(ctx); err != nil {
			log.ErrorContext(ctx, "failed to close store", logger.Error(err))
		}
	}()

	handler, err := newHandler(cfg, be, log)
	if err != nil {
		return err
	}

	log.InfoContext(ctx, "starting sessionkit",
		logger.Driver(cfg.StoreDriver),
		slog.String("addr", cfg.HTTP.Addr),
		slog.Duration("session_ttl", cfg.Session.TTL),
	)

	return httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log)).Run(ctx, handler)
}

// newHandler wires the session services over be and mounts them with the
// health endpoints.
func newHandler(cfg appConfig, be *backend, log *slog.Logger) (http.Handler, error) {
	sessions, err := session.NewFromConfig(session.NewDocStore(be.store), cfg.Session,
		session.WithLogger(log.With(logger.Component("session"))))
	if err != nil {
		return nil, err
	}

	cookies, err := cookie.NewFromConfig(cfg.Cookie)
	if err != nil {
		return nil, err
	}
	transport := session.NewCookieTransport(cookies, cfg.Session.CookieName, cfg.secureCookies())

	verifier, err := identity.NewFromConfig(cfg.Identity)
	if err != nil {
		return nil, err
	}

	limiter := ratelimiter.NewFromConfig(be.store, cfg.RateLimit,
		ratelimiter.WithLogger(log.With(logger.Component("ratelimiter"))))

	api := sessionapi.NewFromConfig(sessions, transport, verifier, limiter, cfg.API,
		sessionapi.WithLogger(log.With(logger.Component("sessionapi"))))

	var checks []httpserver.Check
	if be.check != nil {
		checks = append(checks, *be.check)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(clientip.NewFromConfig(cfg.ClientIP).Middleware)

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, checks...))
	r.Mount("/", api.Routes())

	return r, nil
}
