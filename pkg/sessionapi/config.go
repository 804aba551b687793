package sessionapi

import (
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/ratelimiter"
)

// Config controls the session endpoints.
type Config struct {
	// CreateRateLimit caps POST /session per client IP. Zero disables limiting.
	CreateRateLimit  int           `env:"SESSION_CREATE_RATE_LIMIT" envDefault:"20"`
	CreateRateWindow time.Duration `env:"SESSION_CREATE_RATE_WINDOW" envDefault:"10m"`

	// MaxBodySize caps request bodies in bytes.
	MaxBodySize int64 `env:"SESSION_API_MAX_BODY_SIZE" envDefault:"16384"`
}

// DefaultConfig returns the default endpoint configuration.
func DefaultConfig() Config {
	return Config{
		CreateRateLimit:  20,
		CreateRateWindow: 10 * time.Minute,
		MaxBodySize:      16 << 10,
	}
}

// DefaultCreatePolicy is 20 session creations per 10 minutes.
func DefaultCreatePolicy() ratelimiter.Policy {
	cfg := DefaultConfig()
	return ratelimiter.Policy{Limit: cfg.CreateRateLimit, Window: cfg.CreateRateWindow}
}

// CreatePolicy returns the POST /session policy, or false when limiting is off.
func (c Config) CreatePolicy() (ratelimiter.Policy, bool) {
	if c.CreateRateLimit <= 0 || c.CreateRateWindow <= 0 {
		return ratelimiter.Policy{}, false
	}
	return ratelimiter.Policy{Limit: c.CreateRateLimit, Window: c.CreateRateWindow}, true
}
