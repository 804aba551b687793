package session

import "time"

// Config holds session configuration
type Config struct {
	// TTL is the sliding lifetime: every successful validation pushes expiry to now+TTL.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	// RotationInterval is how long a token lives before Rotate replaces it.
	RotationInterval time.Duration `env:"SESSION_ROTATION_INTERVAL" envDefault:"168h"`

	// CookieName is the name of the session cookie (default: "sid")
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"sid"`

	// SecureCookies enables the Secure flag on session cookies (recommended for production)
	SecureCookies bool `env:"SESSION_SECURE_COOKIES" envDefault:"false"`

	// TokenPepper keys the token hash. Changing it invalidates every session.
	TokenPepper string `env:"SESSION_TOKEN_PEPPER"`
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		TTL:              30 * 24 * time.Hour,
		RotationInterval: 7 * 24 * time.Hour,
		CookieName:       "sid",
	}
}

// NewFromConfig creates a Manager over store using cfg. The pepper, when set,
// keys the default BLAKE2b hasher.
func NewFromConfig(store Store, cfg Config, opts ...Option) (*Manager, error) {
	hasher, err := NewBlake2bHasher([]byte(cfg.TokenPepper))
	if err != nil {
		return nil, err
	}

	configOpts := []Option{
		WithConfig(cfg),
		WithHasher(hasher),
	}
	configOpts = append(configOpts, opts...)

	return New(store, configOpts...), nil
}
