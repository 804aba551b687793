package ratelimiter

// Config holds limiter storage settings.
type Config struct {
	Collection string `env:"RATELIMIT_COLLECTION" envDefault:"rate_limits"`
}

// DefaultConfig returns default limiter configuration.
func DefaultConfig() Config {
	return Config{Collection: DefaultCollection}
}
