package ratelimiter

import "time"

// Result is the outcome of one Enforce call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time // end of the window the call was counted in
}

// RetryAfter returns how long a denied caller should wait. Zero when allowed.
func (r *Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed || !r.ResetAt.After(now) {
		return 0
	}
	return r.ResetAt.Sub(now)
}

// Policy binds a limit to a fixed window length.
type Policy struct {
	Limit  int
	Window time.Duration
}

func (p Policy) validate() error {
	if p.Limit <= 0 || p.Window <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Counter is the stored state of one key.
type Counter struct {
	Count       int       `json:"count" bson:"count"`
	WindowStart time.Time `json:"window_start" bson:"window_start"`
}
