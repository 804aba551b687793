// Package ratelimiter enforces fixed-window request quotas per logical key
// (user, IP, endpoint) on top of a shared docstore.
//
// Each key has one Counter{Count, WindowStart}. Enforce reads it, resets it
// when the window has elapsed, denies when Count reached the limit and
// increments otherwise, all inside a single store transaction. Concurrent
// callers on one key, in one process or many, therefore never get more than
// limit admissions per window. Across a window boundary up to 2×limit
// requests can pass; that is the fixed-window trade-off.
//
// # Usage
//
//	limiter := ratelimiter.New(docstore.NewMemoryStore())
//
//	res, err := limiter.Enforce(ctx, "contact:"+userID, 5, 10*time.Minute)
//	if err != nil {
//		return err
//	}
//	if !res.Allowed {
//		// respond 429 with res.ResetAt
//	}
//
// # HTTP Middleware
//
//	policy := ratelimiter.Policy{Limit: 20, Window: 10 * time.Minute}
//	r.With(ratelimiter.Middleware(limiter, policy, ratelimiter.Prefixed("login:", ratelimiter.ByIP))).
//		Post("/session", create)
//
// Responses carry X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset. Denied requests get 429, Retry-After and a JSON body
// whose details.resetAt is the reset time in unix milliseconds.
package ratelimiter
