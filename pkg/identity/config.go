package identity

import (
	"fmt"
	"net/http"
	"time"
)

// Config selects and configures the identity verifier.
type Config struct {
	Provider     string        `env:"IDENTITY_PROVIDER" envDefault:"jwt"` // "jwt" or "userinfo"
	JWTSecret    string        `env:"IDENTITY_JWT_SECRET"`
	JWTPublicKey string        `env:"IDENTITY_JWT_PUBLIC_KEY"` // PEM; takes precedence over the secret
	JWTIssuer    string        `env:"IDENTITY_JWT_ISSUER"`
	JWTAudience  string        `env:"IDENTITY_JWT_AUDIENCE"`
	JWTLeeway    time.Duration `env:"IDENTITY_JWT_LEEWAY" envDefault:"30s"`
	UserInfoURL  string        `env:"IDENTITY_USERINFO_URL"`
	HTTPTimeout  time.Duration `env:"IDENTITY_HTTP_TIMEOUT" envDefault:"10s"`
}

// NewFromConfig builds the verifier named by cfg.Provider.
func NewFromConfig(cfg Config) (Verifier, error) {
	switch cfg.Provider {
	case "jwt", "":
		opts := []JWTOption{
			WithIssuer(cfg.JWTIssuer),
			WithAudience(cfg.JWTAudience),
			WithLeeway(cfg.JWTLeeway),
		}
		if cfg.JWTPublicKey != "" {
			return NewPublicKeyVerifier([]byte(cfg.JWTPublicKey), opts...)
		}
		return NewHMACVerifier([]byte(cfg.JWTSecret), opts...)
	case "userinfo":
		return NewUserInfoVerifier(cfg.UserInfoURL, &http.Client{Timeout: cfg.HTTPTimeout})
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}
