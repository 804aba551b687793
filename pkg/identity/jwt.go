package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the ID token claims read by JWTVerifier.
type Claims struct {
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier validates signed ID tokens locally.
type JWTVerifier struct {
	key     any
	methods []string
	opts    []jwt.ParserOption
}

// JWTOption configures a JWTVerifier.
type JWTOption func(*JWTVerifier)

// WithIssuer requires the iss claim to equal issuer.
func WithIssuer(issuer string) JWTOption {
	return func(v *JWTVerifier) {
		if issuer != "" {
			v.opts = append(v.opts, jwt.WithIssuer(issuer))
		}
	}
}

// WithAudience requires aud to contain audience.
func WithAudience(audience string) JWTOption {
	return func(v *JWTVerifier) {
		if audience != "" {
			v.opts = append(v.opts, jwt.WithAudience(audience))
		}
	}
}

// WithLeeway tolerates clock skew on exp, nbf and iat.
func WithLeeway(d time.Duration) JWTOption {
	return func(v *JWTVerifier) {
		v.opts = append(v.opts, jwt.WithLeeway(d))
	}
}

// WithTimeFunc overrides the clock, mostly for tests.
func WithTimeFunc(now func() time.Time) JWTOption {
	return func(v *JWTVerifier) {
		v.opts = append(v.opts, jwt.WithTimeFunc(now))
	}
}

// NewHMACVerifier verifies HS256/384/512 tokens signed with secret.
func NewHMACVerifier(secret []byte, opts ...JWTOption) (*JWTVerifier, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty hmac secret", ErrInvalidConfig)
	}
	return newJWTVerifier(secret, []string{"HS256", "HS384", "HS512"}, opts), nil
}

// NewPublicKeyVerifier verifies RS*, PS* or ES* tokens against a PEM encoded
// RSA or ECDSA public key.
func NewPublicKeyVerifier(pemKey []byte, opts ...JWTOption) (*JWTVerifier, error) {
	if rsaKey, err := jwt.ParseRSAPublicKeyFromPEM(pemKey); err == nil {
		return newJWTVerifier(rsaKey, []string{"RS256", "RS384", "RS512", "PS256", "PS384", "PS512"}, opts), nil
	}
	if ecKey, err := jwt.ParseECPublicKeyFromPEM(pemKey); err == nil {
		return newJWTVerifier(ecKey, []string{"ES256", "ES384", "ES512"}, opts), nil
	}
	return nil, fmt.Errorf("%w: public key is neither RSA nor ECDSA PEM", ErrInvalidConfig)
}

func newJWTVerifier(key any, methods []string, opts []JWTOption) *JWTVerifier {
	v := &JWTVerifier{key: key, methods: methods}
	for _, opt := range opts {
		opt(v)
	}
	v.opts = append(v.opts,
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
	)
	return v
}

// Verify parses token and maps its subject to Identity.UserID.
func (v *JWTVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, v.opts...)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &Identity{
		UserID:        claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
	}, nil
}
