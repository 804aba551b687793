// Package clientip resolves the originating client address of a request.
//
// A Resolver walks a list of trusted proxy headers (CF-Connecting-IP,
// DO-Connecting-IP, X-Forwarded-For, X-Real-IP by default) and falls back to
// the TCP peer address. With no trusted headers only RemoteAddr counts, which
// is what rate limit keys should use when the service is reachable without a
// proxy in front of it.
//
// Resolver.Middleware stores the resolved address in the request context so
// GetIP, the session metadata and IP rate limit keys all agree on it:
//
//	r := chi.NewRouter()
//	r.Use(clientip.NewFromConfig(cfg).Middleware)
//
// GetIP never fails; it returns "" when no valid address is found.
package clientip
