package sessionapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/docstore"
	"github.com/dmitrymomot/sessionkit/pkg/httperr"
	"github.com/dmitrymomot/sessionkit/pkg/identity"
	"github.com/dmitrymomot/sessionkit/pkg/ratelimiter"
	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/sessionapi"
)

const (
	day        = 24 * time.Hour
	testSecret = "0123456789abcdef0123456789abcdef"
)

// verifier accepts "id:<user>" tokens.
var verifier = identity.VerifierFunc(func(_ context.Context, token string) (*identity.Identity, error) {
	switch {
	case token == "down":
		return nil, identity.ErrVerificationFailed
	case strings.HasPrefix(token, "id:"):
		return &identity.Identity{UserID: strings.TrimPrefix(token, "id:")}, nil
	default:
		return nil, identity.ErrInvalidToken
	}
})

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	t      *testing.T
	clock  *clock
	docs   *docstore.MemoryStore
	router http.Handler
}

func newHarness(t *testing.T, transport func(*testing.T) session.Transport, opts ...sessionapi.Option) *harness {
	t.Helper()

	h := &harness{
		t:     t,
		clock: &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		docs:  docstore.NewMemoryStore(docstore.WithMaxAttempts(100)),
	}

	manager := session.New(session.NewDocStore(h.docs), session.WithClock(h.clock.Now))
	api := sessionapi.New(manager, transport(t), verifier, opts...)
	h.router = api.Routes()
	return h
}

func cookieTransport(t *testing.T) session.Transport {
	t.Helper()
	mgr, err := cookie.New([]string{testSecret})
	require.NoError(t, err)
	return session.NewCookieTransport(mgr, "sid", true)
}

func headerTransport(*testing.T) session.Transport {
	return session.NewHeaderTransport("")
}

func (h *harness) limiter() *ratelimiter.Limiter {
	return ratelimiter.New(h.docs, ratelimiter.WithClock(h.clock.Now))
}

type call struct {
	method string
	body   string
	cookie *http.Cookie
	bearer string
	ip     string
}

func (h *harness) do(c call) *httptest.ResponseRecorder {
	h.t.Helper()

	req := httptest.NewRequest(c.method, "/session", strings.NewReader(c.body))
	if c.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	if c.ip != "" {
		req.RemoteAddr = c.ip + ":4711"
	}

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func login(user string) string {
	return `{"idToken":"id:` + user + `"}`
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sid" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) sessionapi.Response {
	t.Helper()
	var resp sessionapi.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func errorKey(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp httperr.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

func TestCreate(t *testing.T) {
	t.Parallel()

	t.Run("new session sets cookie", func(t *testing.T) {
		h := newHarness(t, cookieTransport)

		rec := h.do(call{method: http.MethodPost, body: login("alice")})
		require.Equal(t, http.StatusCreated, rec.Code)

		c := sessionCookie(t, rec)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, int((30 * day).Seconds()), c.MaxAge)

		resp := decode(t, rec)
		assert.Equal(t, "alice", resp.UserID)
		assert.NotEmpty(t, resp.SessionID)
		assert.False(t, resp.Rotated)
		assert.Equal(t, h.clock.Now().Add(30*day), resp.ExpiresAt.UTC())
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})

	t.Run("same user before rotation window keeps session", func(t *testing.T) {
		h := newHarness(t, cookieTransport)

		first := h.do(call{method: http.MethodPost, body: login("alice")})
		require.Equal(t, http.StatusCreated, first.Code)
		c := sessionCookie(t, first)
		created := decode(t, first)

		h.clock.Advance(time.Hour)
		again := h.do(call{method: http.MethodPost, body: login("alice"), cookie: c})
		require.Equal(t, http.StatusOK, again.Code)

		resp := decode(t, again)
		assert.False(t, resp.Rotated)
		assert.Equal(t, created.SessionID, resp.SessionID)
		assert.True(t, resp.ExpiresAt.After(created.ExpiresAt))
	})

	t.Run("same user after rotation window rotates", func(t *testing.T) {
		h := newHarness(t, cookieTransport)

		first := h.do(call{method: http.MethodPost, body: login("alice")})
		oldCookie := sessionCookie(t, first)
		created := decode(t, first)

		h.clock.Advance(8 * day)
		again := h.do(call{method: http.MethodPost, body: login("alice"), cookie: oldCookie})
		require.Equal(t, http.StatusOK, again.Code)

		resp := decode(t, again)
		assert.True(t, resp.Rotated)
		assert.NotEqual(t, created.SessionID, resp.SessionID)

		assert.Equal(t, http.StatusUnauthorized, h.do(call{method: http.MethodGet, cookie: oldCookie}).Code)
		assert.Equal(t, http.StatusOK, h.do(call{method: http.MethodGet, cookie: sessionCookie(t, again)}).Code)
	})

	t.Run("different user replaces session", func(t *testing.T) {
		h := newHarness(t, headerTransport)

		first := h.do(call{method: http.MethodPost, body: login("alice")})
		require.Equal(t, http.StatusCreated, first.Code)
		aliceToken := strings.TrimPrefix(first.Header().Get("Authorization"), "Bearer ")

		second := h.do(call{method: http.MethodPost, body: login("bob"), bearer: aliceToken})
		require.Equal(t, http.StatusCreated, second.Code)
		assert.Equal(t, "bob", decode(t, second).UserID)

		hasher, err := session.NewBlake2bHasher(nil)
		require.NoError(t, err)
		hash, err := hasher.Hash(aliceToken)
		require.NoError(t, err)

		old, err := session.NewDocStore(h.docs).Get(context.Background(), hash)
		require.NoError(t, err)
		assert.True(t, old.IsRevoked())
		assert.Equal(t, session.ReasonReplaced, old.RevokeReason)
	})

	t.Run("dead cookie is ignored", func(t *testing.T) {
		h := newHarness(t, cookieTransport)

		first := h.do(call{method: http.MethodPost, body: login("alice")})
		c := sessionCookie(t, first)
		require.Equal(t, http.StatusNoContent, h.do(call{method: http.MethodDelete, cookie: c}).Code)

		again := h.do(call{method: http.MethodPost, body: login("alice"), cookie: c})
		require.Equal(t, http.StatusCreated, again.Code)
		assert.False(t, decode(t, again).Rotated)
	})

	t.Run("rejected identity token", func(t *testing.T) {
		h := newHarness(t, cookieTransport)

		rec := h.do(call{method: http.MethodPost, body: `{"idToken":"forged"}`})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", errorKey(t, rec))
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("identity provider down", func(t *testing.T) {
		h := newHarness(t, cookieTransport)

		rec := h.do(call{method: http.MethodPost, body: `{"idToken":"down"}`})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("malformed bodies", func(t *testing.T) {
		h := newHarness(t, cookieTransport)

		assert.Equal(t, http.StatusBadRequest, h.do(call{method: http.MethodPost, body: `{"idToken":""}`}).Code)
		assert.Equal(t, http.StatusBadRequest, h.do(call{method: http.MethodPost, body: `{"idToken":`}).Code)
		assert.Equal(t, http.StatusBadRequest, h.do(call{method: http.MethodPost, body: `{"token":"id:alice"}`}).Code)
		assert.Equal(t, http.StatusUnsupportedMediaType, h.do(call{method: http.MethodPost}).Code)
	})
}

func TestCreate_RateLimited(t *testing.T) {
	t.Parallel()

	h := newHarness(t, cookieTransport)
	// Rebuild the router so the limiter shares the harness clock and store.
	h.router = sessionapi.New(
		session.New(session.NewDocStore(h.docs), session.WithClock(h.clock.Now)),
		cookieTransport(t),
		verifier,
		sessionapi.WithRateLimit(h.limiter(), sessionapi.DefaultCreatePolicy()),
	).Routes()

	for i := range 20 {
		rec := h.do(call{method: http.MethodPost, body: login("alice"), ip: "203.0.113.7"})
		require.Equal(t, http.StatusCreated, rec.Code, "request %d", i+1)
	}

	denied := h.do(call{method: http.MethodPost, body: login("alice"), ip: "203.0.113.7"})
	require.Equal(t, http.StatusTooManyRequests, denied.Code)
	assert.Equal(t, "600", denied.Header().Get("Retry-After"))

	var body httperr.Response
	require.NoError(t, json.NewDecoder(denied.Body).Decode(&body))
	assert.Equal(t, "too_many_requests", body.Error)
	assert.EqualValues(t, h.clock.Now().Add(10*time.Minute).UnixMilli(), body.Details["resetAt"])

	// Other callers and other endpoints are unaffected.
	assert.Equal(t, http.StatusCreated, h.do(call{method: http.MethodPost, body: login("bob"), ip: "198.51.100.1"}).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(call{method: http.MethodGet, ip: "203.0.113.7"}).Code)

	h.clock.Advance(10*time.Minute + time.Second)
	assert.Equal(t, http.StatusCreated, h.do(call{method: http.MethodPost, body: login("alice"), ip: "203.0.113.7"}).Code)
}

func TestCurrent(t *testing.T) {
	t.Parallel()

	t.Run("slides expiry", func(t *testing.T) {
		h := newHarness(t, cookieTransport)

		c := sessionCookie(t, h.do(call{method: http.MethodPost, body: login("alice")}))

		h.clock.Advance(20 * day)
		rec := h.do(call{method: http.MethodGet, cookie: c})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, h.clock.Now().Add(30*day), decode(t, rec).ExpiresAt.UTC())
	})

	t.Run("expired session is cleared", func(t *testing.T) {
		h := newHarness(t, cookieTransport)

		c := sessionCookie(t, h.do(call{method: http.MethodPost, body: login("alice")}))

		h.clock.Advance(31 * day)
		rec := h.do(call{method: http.MethodGet, cookie: c})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, -1, sessionCookie(t, rec).MaxAge)
	})

	t.Run("no cookie", func(t *testing.T) {
		h := newHarness(t, cookieTransport)
		assert.Equal(t, http.StatusUnauthorized, h.do(call{method: http.MethodGet}).Code)
	})

	t.Run("tampered cookie", func(t *testing.T) {
		h := newHarness(t, cookieTransport)
		rec := h.do(call{method: http.MethodGet, cookie: &http.Cookie{Name: "sid", Value: "tampered"}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRotate(t *testing.T) {
	t.Parallel()

	t.Run("before window echoes the same token", func(t *testing.T) {
		h := newHarness(t, headerTransport)

		first := h.do(call{method: http.MethodPost, body: login("alice")})
		token := strings.TrimPrefix(first.Header().Get("Authorization"), "Bearer ")

		rec := h.do(call{method: http.MethodPut, bearer: token})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, decode(t, rec).Rotated)
		assert.Equal(t, "Bearer "+token, rec.Header().Get("Authorization"))
	})

	t.Run("after window issues a new token", func(t *testing.T) {
		h := newHarness(t, headerTransport)

		first := h.do(call{method: http.MethodPost, body: login("alice")})
		token := strings.TrimPrefix(first.Header().Get("Authorization"), "Bearer ")

		h.clock.Advance(7 * day)
		rec := h.do(call{method: http.MethodPut, bearer: token})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decode(t, rec).Rotated)

		next := strings.TrimPrefix(rec.Header().Get("Authorization"), "Bearer ")
		assert.NotEqual(t, token, next)

		assert.Equal(t, http.StatusUnauthorized, h.do(call{method: http.MethodPut, bearer: token}).Code)
		assert.Equal(t, http.StatusOK, h.do(call{method: http.MethodGet, bearer: next}).Code)
	})

	t.Run("without session", func(t *testing.T) {
		h := newHarness(t, cookieTransport)
		assert.Equal(t, http.StatusUnauthorized, h.do(call{method: http.MethodPut}).Code)
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()

	t.Run("revokes and clears cookie", func(t *testing.T) {
		h := newHarness(t, cookieTransport)

		c := sessionCookie(t, h.do(call{method: http.MethodPost, body: login("alice")}))

		rec := h.do(call{method: http.MethodDelete, cookie: c})
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, -1, sessionCookie(t, rec).MaxAge)

		// Terminal, even long after.
		h.clock.Advance(365 * day)
		assert.Equal(t, http.StatusUnauthorized, h.do(call{method: http.MethodGet, cookie: c}).Code)
	})

	t.Run("idempotent", func(t *testing.T) {
		h := newHarness(t, cookieTransport)

		c := sessionCookie(t, h.do(call{method: http.MethodPost, body: login("alice")}))

		assert.Equal(t, http.StatusNoContent, h.do(call{method: http.MethodDelete, cookie: c}).Code)
		assert.Equal(t, http.StatusNoContent, h.do(call{method: http.MethodDelete, cookie: c}).Code)
		assert.Equal(t, http.StatusNoContent, h.do(call{method: http.MethodDelete}).Code)
	})
}

func TestNew_Panics(t *testing.T) {
	t.Parallel()

	manager := session.New(session.NewDocStore(docstore.NewMemoryStore()))
	assert.Panics(t, func() { sessionapi.New(nil, headerTransport(t), verifier) })
	assert.Panics(t, func() { sessionapi.New(manager, nil, verifier) })
	assert.Panics(t, func() { sessionapi.New(manager, headerTransport(t), nil) })
}

func TestConfig_CreatePolicy(t *testing.T) {
	t.Parallel()

	policy, ok := sessionapi.DefaultConfig().CreatePolicy()
	require.True(t, ok)
	assert.Equal(t, ratelimiter.Policy{Limit: 20, Window: 10 * time.Minute}, policy)

	_, ok = sessionapi.Config{CreateRateLimit: 0, CreateRateWindow: time.Minute}.CreatePolicy()
	assert.False(t, ok)
}
