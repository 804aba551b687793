package identity

import (
	"context"
	"errors"
)

var (
	// ErrInvalidToken means the token was rejected: bad signature, expired,
	// wrong issuer or audience, or no subject.
	ErrInvalidToken = errors.New("identity.invalid_token")

	// ErrVerificationFailed means the token could not be checked, e.g. the
	// provider was unreachable.
	ErrVerificationFailed = errors.New("identity.verification_failed")

	// ErrInvalidConfig means the verifier is misconfigured.
	ErrInvalidConfig = errors.New("identity.invalid_config")
)

// Identity is a verified user.
type Identity struct {
	UserID        string
	Email         string
	EmailVerified bool
	Name          string
}

// Verifier checks an identity-provider token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, token string) (*Identity, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (*Identity, error) {
	return f(ctx, token)
}
