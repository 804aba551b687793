package main

import (
	"github.com/dmitrymomot/sessionkit/pkg/clientip"
	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/httpserver"
	"github.com/dmitrymomot/sessionkit/pkg/identity"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/ratelimiter"
	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/sessionapi"
)

// Store drivers selectable with STORE_DRIVER.
const (
	driverMemory   = "memory"
	driverMongo    = "mongo"
	driverRedis    = "redis"
	driverPostgres = "postgres"
)

// appConfig is everything read from the environment at startup. Backend
// settings are loaded separately once the driver is known, since each of
// them has required variables of its own.
type appConfig struct {
	StoreDriver string `env:"STORE_DRIVER" envDefault:"memory"`

	Log       logger.Config
	HTTP      httpserver.Config
	Session   session.Config
	Cookie    cookie.Config
	ClientIP  clientip.Config
	Identity  identity.Config
	API       sessionapi.Config
	RateLimit ratelimiter.Config
}

// secureCookies is on in production regardless of SESSION_SECURE_COOKIES.
func (c appConfig) secureCookies() bool {
	return c.Session.SecureCookies || logger.IsProduction(c.Log.Env)
}
