package session_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newCookieTransport(t *testing.T, secure bool) *session.CookieTransport {
	t.Helper()
	mgr, err := cookie.New([]string{testSecret})
	require.NoError(t, err)
	return session.NewCookieTransport(mgr, "sid", secure)
}

// replay copies response cookies onto a new request.
func replay(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestCookieTransport(t *testing.T) {
	t.Parallel()

	t.Run("cookie contract", func(t *testing.T) {
		tr := newCookieTransport(t, true)
		rec := httptest.NewRecorder()

		require.NoError(t, tr.SetToken(rec, "raw-token", 30*day))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		c := cookies[0]
		assert.Equal(t, "sid", c.Name)
		assert.NotEqual(t, "raw-token", c.Value, "value is encrypted")
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, int((30 * day).Seconds()), c.MaxAge)

		token, err := tr.GetToken(replay(rec))
		require.NoError(t, err)
		assert.Equal(t, "raw-token", token)
	})

	t.Run("insecure in development", func(t *testing.T) {
		tr := newCookieTransport(t, false)
		rec := httptest.NewRecorder()
		require.NoError(t, tr.SetToken(rec, "raw-token", time.Hour))
		assert.False(t, rec.Result().Cookies()[0].Secure)
	})

	t.Run("clear expires the cookie", func(t *testing.T) {
		tr := newCookieTransport(t, true)
		rec := httptest.NewRecorder()
		require.NoError(t, tr.ClearToken(rec))

		header := rec.Header().Get("Set-Cookie")
		assert.True(t, strings.HasPrefix(header, "sid=;"), header)
		assert.Contains(t, header, "Max-Age=0")
	})

	t.Run("missing or tampered cookie", func(t *testing.T) {
		tr := newCookieTransport(t, true)

		_, err := tr.GetToken(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.ErrorIs(t, err, session.ErrSessionNotFound)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: "forged"})
		_, err = tr.GetToken(req)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("nil manager panics", func(t *testing.T) {
		assert.Panics(t, func() { session.NewCookieTransport(nil, "sid", false) })
	})
}

func TestHeaderTransport(t *testing.T) {
	t.Parallel()

	tr := session.NewHeaderTransport("")

	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"bearer", "Bearer abc", "abc", false},
		{"case insensitive scheme", "bearer abc", "abc", false},
		{"missing", "", "", true},
		{"wrong scheme", "Basic abc", "", true},
		{"empty token", "Bearer   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			token, err := tr.GetToken(req)
			if tt.wantErr {
				assert.ErrorIs(t, err, session.ErrSessionNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, token)
		})
	}

	t.Run("set and clear", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, tr.SetToken(rec, "abc", time.Hour))
		assert.Equal(t, "Bearer abc", rec.Header().Get("Authorization"))
		assert.NotEmpty(t, rec.Header().Get("Authorization-Expires"))

		require.NoError(t, tr.ClearToken(rec))
		assert.Empty(t, rec.Header().Get("Authorization"))
	})

	t.Run("custom header without prefix", func(t *testing.T) {
		custom := session.NewHeaderTransport("X-Session-Token", session.WithHeaderPrefix(""))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Session-Token", "abc")
		token, err := custom.GetToken(req)
		require.NoError(t, err)
		assert.Equal(t, "abc", token)
	})
}

func TestCompositeTransport(t *testing.T) {
	t.Parallel()

	cookieTr := newCookieTransport(t, false)
	headerTr := session.NewHeaderTransport("")
	tr := session.NewCompositeTransport(cookieTr, headerTr)

	t.Run("falls back to header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer from-header")
		token, err := tr.GetToken(req)
		require.NoError(t, err)
		assert.Equal(t, "from-header", token)
	})

	t.Run("writes through all transports", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, tr.SetToken(rec, "abc", time.Hour))
		assert.Len(t, rec.Result().Cookies(), 1)
		assert.Equal(t, "Bearer abc", rec.Header().Get("Authorization"))

		token, err := tr.GetToken(replay(rec))
		require.NoError(t, err)
		assert.Equal(t, "abc", token)
	})

	t.Run("nothing present", func(t *testing.T) {
		_, err := tr.GetToken(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})
}

func TestMetadataFromRequest(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:1234"
	req.Header.Set("User-Agent", strings.Repeat("a", 1000))

	meta := session.MetadataFromRequest(req)
	assert.Equal(t, "192.0.2.10", meta.IPAddress)
	assert.Len(t, meta.UserAgent, 512)
}
