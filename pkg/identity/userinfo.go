package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// UserInfoVerifier accepts OAuth2 access tokens and resolves them through an
// OpenID Connect userinfo endpoint.
type UserInfoVerifier struct {
	endpoint string
	client   *http.Client
}

// NewUserInfoVerifier creates a verifier calling endpoint. A nil client uses
// http.DefaultClient as the transport base.
func NewUserInfoVerifier(endpoint string, client *http.Client) (*UserInfoVerifier, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: empty userinfo endpoint", ErrInvalidConfig)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &UserInfoVerifier{endpoint: endpoint, client: client}, nil
}

type userInfo struct {
	Sub           string `json:"sub"`
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

func (v *UserInfoVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	// oauth2.NewClient picks up the base client from the context.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, v.client)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint, nil)
	if err != nil {
		return nil, errors.Join(ErrVerificationFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Join(ErrVerificationFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: userinfo returned status %d", ErrVerificationFailed, resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, errors.Join(ErrVerificationFailed, err)
	}

	subject := info.Sub
	if subject == "" {
		subject = info.ID
	}
	if subject == "" {
		return nil, fmt.Errorf("%w: userinfo has no subject", ErrInvalidToken)
	}

	return &Identity{
		UserID:        subject,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          info.Name,
	}, nil
}
