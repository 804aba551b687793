package session

import "context"

type recordContextKey struct{}

// WithRecord adds a validated session record to the context
func WithRecord(ctx context.Context, rec *Record) context.Context {
	return context.WithValue(ctx, recordContextKey{}, rec)
}

// FromContext retrieves the session record from the context
func FromContext(ctx context.Context) (*Record, bool) {
	rec, ok := ctx.Value(recordContextKey{}).(*Record)
	return rec, ok && rec != nil
}

// UserIDFromContext retrieves the user ID of the session in context
func UserIDFromContext(ctx context.Context) (string, bool) {
	rec, ok := FromContext(ctx)
	if !ok {
		return "", false
	}
	return rec.UserID, true
}
