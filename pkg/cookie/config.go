package cookie

import (
	"net/http"
	"strings"
)

// Config holds cookie settings loaded from the environment.
type Config struct {
	// Secrets is a comma separated list; the first one writes.
	Secrets string `env:"COOKIE_SECRETS,required"`
	Domain  string `env:"COOKIE_DOMAIN"`
	Secure  bool   `env:"COOKIE_SECURE" envDefault:"false"`
}

// secrets splits the configured secret list.
func (c Config) secrets() []string {
	var out []string
	for s := range strings.SplitSeq(c.Secrets, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// NewFromConfig creates a Manager from cfg. Cookies are always Path=/,
// HttpOnly and SameSite=Lax.
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	configOpts := []Option{
		WithPath("/"),
		WithHTTPOnly(true),
		WithSameSite(http.SameSiteLaxMode),
		WithSecure(cfg.Secure),
	}
	if cfg.Domain != "" {
		configOpts = append(configOpts, WithDomain(cfg.Domain))
	}
	return New(cfg.secrets(), append(configOpts, opts...)...)
}
