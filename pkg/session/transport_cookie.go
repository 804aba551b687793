package session

import (
	"net/http"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
)

// CookieTransport carries the token in an encrypted, httpOnly, SameSite=Lax
// cookie scoped to "/" whose max-age matches the session TTL.
type CookieTransport struct {
	cookieMgr     *cookie.Manager
	cookieName    string
	secureCookies bool
	options       []cookie.Option
}

// NewCookieTransport creates a cookie transport. Panics if cookieMgr is nil.
func NewCookieTransport(cookieMgr *cookie.Manager, cookieName string, secureCookies bool, opts ...cookie.Option) *CookieTransport {
	if cookieMgr == nil {
		panic("session: cookie manager is required for cookie transport")
	}
	if cookieName == "" {
		cookieName = DefaultConfig().CookieName
	}
	return &CookieTransport{
		cookieMgr:     cookieMgr,
		cookieName:    cookieName,
		secureCookies: secureCookies,
		options:       opts,
	}
}

// NewCookieTransportFromConfig builds a cookie transport from session config.
func NewCookieTransportFromConfig(cookieMgr *cookie.Manager, cfg Config, opts ...cookie.Option) *CookieTransport {
	return NewCookieTransport(cookieMgr, cfg.CookieName, cfg.SecureCookies, opts...)
}

// GetToken extracts the session token from the cookie
func (t *CookieTransport) GetToken(r *http.Request) (string, error) {
	token, err := t.cookieMgr.GetEncrypted(r, t.cookieName)
	if err != nil || token == "" {
		return "", ErrSessionNotFound
	}
	return token, nil
}

// SetToken stores the session token in a cookie
func (t *CookieTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	opts := []cookie.Option{
		cookie.WithMaxAge(int(ttl.Seconds())),
		cookie.WithPath("/"),
		cookie.WithHTTPOnly(true),
		cookie.WithSameSite(http.SameSiteLaxMode),
	}
	if t.secureCookies {
		opts = append(opts, cookie.WithSecure(true))
	}
	opts = append(opts, t.options...)

	return t.cookieMgr.SetEncrypted(w, t.cookieName, token, opts...)
}

// ClearToken expires the session cookie
func (t *CookieTransport) ClearToken(w http.ResponseWriter) error {
	t.cookieMgr.Delete(w, t.cookieName)
	return nil
}
