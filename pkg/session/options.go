package session

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// WithConfig sets custom configuration
func WithConfig(config Config) Option {
	return func(m *Manager) {
		m.config = config
	}
}

// WithTTL sets the sliding session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.config.TTL = ttl
	}
}

// WithRotationInterval sets how long a token lives before it is rotated.
func WithRotationInterval(interval time.Duration) Option {
	return func(m *Manager) {
		m.config.RotationInterval = interval
	}
}

// WithHasher replaces the default token hasher.
func WithHasher(h Hasher) Option {
	return func(m *Manager) {
		m.hasher = h
	}
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}
