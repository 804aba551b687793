package ratelimiter

import (
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/clientip"
	"github.com/dmitrymomot/sessionkit/pkg/httperr"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// maxKeyLength is the longest key stored verbatim; longer keys are hashed.
const maxKeyLength = 64

// KeyFunc extracts a rate limit key from the request. An empty key skips
// limiting for that request.
type KeyFunc func(r *http.Request) string

// ByIP keys requests by client IP.
func ByIP(r *http.Request) string {
	return clientip.GetIP(r)
}

// ByUser keys requests by the authenticated session's user.
func ByUser(r *http.Request) string {
	userID, _ := session.UserIDFromContext(r.Context())
	return userID
}

// Prefixed namespaces the key produced by fn, e.g. "session:" + IP.
func Prefixed(prefix string, fn KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		key := fn(r)
		if key == "" {
			return ""
		}
		return prefix + key
	}
}

// Composite joins the non-empty keys of keyFuncs with ":". Keys longer than
// 64 characters are replaced by their FNV-1a hash in base 36.
func Composite(keyFuncs ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(keyFuncs))
		for _, fn := range keyFuncs {
			if key := fn(r); key != "" {
				parts = append(parts, key)
			}
		}
		if len(parts) == 0 {
			return ""
		}

		combined := strings.Join(parts, ":")
		if len(combined) > maxKeyLength {
			h := fnv.New64a()
			h.Write([]byte(combined))
			return strconv.FormatUint(h.Sum64(), 36)
		}
		return combined
	}
}

// Middleware limits requests per key under p. Every response carries
// X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset (unix
// seconds). Denied requests get 429 with Retry-After and the reset time in
// unix milliseconds as details.resetAt.
func Middleware(l *Limiter, p Policy, keyFunc KeyFunc) func(http.Handler) http.Handler {
	if err := p.validate(); err != nil {
		panic("ratelimiter: " + err.Error())
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := l.Allow(r.Context(), key, p)
			if err != nil {
				l.logger.ErrorContext(r.Context(), "rate limit check failed",
					logger.RateKey(key),
					logger.Error(err),
				)
				_ = httperr.Write(w, httperr.ErrInternalServerError)
				return
			}

			WriteHeaders(w, result)
			if !result.Allowed {
				_ = WriteDenied(w, result, l.now())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WriteHeaders sets the X-RateLimit-* headers for result.
func WriteHeaders(w http.ResponseWriter, result *Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

// WriteDenied responds 429 with Retry-After and the reset time in unix
// milliseconds under details.resetAt.
func WriteDenied(w http.ResponseWriter, result *Result, now time.Time) error {
	retryAfter := retryAfterSeconds(result, now)
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

	return httperr.Write(w, httperr.ErrTooManyRequests.
		WithDetail("resetAt", result.ResetAt.UnixMilli()).
		WithDetail("retryAfter", retryAfter))
}

func retryAfterSeconds(result *Result, now time.Time) int {
	d := result.RetryAfter(now)
	if d <= 0 {
		return 0
	}
	// Round up so clients never retry early.
	return int((d + time.Second - 1) / time.Second)
}
