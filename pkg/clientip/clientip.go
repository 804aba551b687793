package clientip

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// DefaultHeaders are the proxy headers trusted by default, highest priority first.
var DefaultHeaders = []string{
	"CF-Connecting-IP",
	"DO-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// Config selects which proxy headers are trusted.
type Config struct {
	TrustProxy bool     `env:"CLIENT_IP_TRUST_PROXY" envDefault:"true"`
	Headers    []string `env:"CLIENT_IP_HEADERS" envSeparator:","`
}

// Resolver extracts client addresses from requests.
type Resolver struct {
	headers []string
}

// New creates a resolver trusting headers in order. No headers means only
// RemoteAddr is used.
func New(headers ...string) *Resolver {
	return &Resolver{headers: headers}
}

// NewFromConfig creates a resolver from cfg. An empty header list with
// TrustProxy set falls back to DefaultHeaders.
func NewFromConfig(cfg Config) *Resolver {
	if !cfg.TrustProxy {
		return New()
	}
	if len(cfg.Headers) == 0 {
		return New(DefaultHeaders...)
	}
	return New(cfg.Headers...)
}

var defaultResolver = New(DefaultHeaders...)

// Resolve returns the client address of r, or "".
func (res *Resolver) Resolve(r *http.Request) string {
	for _, header := range res.headers {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}
		// X-Forwarded-For style lists carry the client first.
		for candidate := range strings.SplitSeq(value, ",") {
			if ip := normalize(candidate); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return normalize(r.RemoteAddr)
	}
	return normalize(host)
}

// Middleware stores the resolved address in the request context.
func (res *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithIP(r.Context(), res.Resolve(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIP returns the address stored by Middleware, resolving with the
// default headers when the middleware did not run.
func GetIP(r *http.Request) string {
	if ip := FromContext(r.Context()); ip != "" {
		return ip
	}
	return defaultResolver.Resolve(r)
}

type contextKey struct{}

// WithIP stores ip in ctx.
func WithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKey{}, ip)
}

// FromContext returns the stored client address, or "".
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(contextKey{}).(string)
	return ip
}

// LoggerExtractor adds client_ip to log records of requests that passed
// through Middleware.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if ip := FromContext(ctx); ip != "" {
			return logger.ClientIP(ip), true
		}
		return slog.Attr{}, false
	}
}

// normalize validates an address and returns its canonical form.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	// Bracketed IPv6 without a port, e.g. "[::1]".
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	if s == "" {
		return ""
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
