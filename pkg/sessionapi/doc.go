// Package sessionapi exposes the session lifecycle over HTTP.
//
// Handler.Routes mounts four endpoints on a chi router:
//
//	POST   /session   exchange an identity-provider token for a session
//	GET    /session   describe and refresh the current session
//	PUT    /session   rotate the current session token
//	DELETE /session   log out
//
// POST is rate limited per client IP when a limiter is configured. Failures
// use the httperr JSON envelope: 400 for malformed bodies, 401 for missing or
// dead sessions and rejected identity tokens, 429 with resetAt when throttled,
// 503 when the identity provider cannot be reached and 500 for store errors.
//
// Usage:
//
//	api := sessionapi.New(manager, transport, verifier,
//	    sessionapi.WithRateLimit(limiter, sessionapi.DefaultCreatePolicy()),
//	    sessionapi.WithLogger(log),
//	)
//	r := chi.NewRouter()
//	r.Mount("/", api.Routes())
package sessionapi
