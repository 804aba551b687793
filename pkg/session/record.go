package session

import "time"

// RevokeReason explains why a record reached its terminal state.
type RevokeReason string

const (
	ReasonExpired  RevokeReason = "expired"
	ReasonRotated  RevokeReason = "rotated"
	ReasonLogout   RevokeReason = "logout"
	ReasonReplaced RevokeReason = "replaced"
)

// Record is the persisted state of one issued session. It is stored under
// the hash of its token; the raw token is never persisted.
type Record struct {
	UserID    string `json:"user_id" bson:"user_id"`
	SessionID string `json:"session_id" bson:"session_id"`
	TokenHash string `json:"token_hash" bson:"token_hash"`

	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	LastActiveAt  time.Time `json:"last_active_at" bson:"last_active_at"`
	LastRotatedAt time.Time `json:"last_rotated_at" bson:"last_rotated_at"`
	ExpiresAt     time.Time `json:"expires_at" bson:"expires_at"`

	RevokedAt    *time.Time   `json:"revoked_at,omitempty" bson:"revoked_at,omitempty"`
	RevokeReason RevokeReason `json:"revoke_reason,omitempty" bson:"revoke_reason,omitempty"`
	RotatedTo    string       `json:"rotated_to,omitempty" bson:"rotated_to,omitempty"`

	// Provenance only. Never used for authorization.
	UserAgent string `json:"user_agent,omitempty" bson:"user_agent,omitempty"`
	IPAddress string `json:"ip_address,omitempty" bson:"ip_address,omitempty"`
}

// IsRevoked reports whether the record reached its terminal state.
func (r *Record) IsRevoked() bool {
	return r.RevokedAt != nil
}

// IsExpired reports whether the record is past its sliding expiry at now.
func (r *Record) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// RotationDue reports whether the record's token should be replaced at now.
func (r *Record) RotationDue(now time.Time, interval time.Duration) bool {
	return !now.Before(r.LastRotatedAt.Add(interval))
}

// revoke marks the record terminal.
func (r *Record) revoke(now time.Time, reason RevokeReason) {
	r.RevokedAt = &now
	r.RevokeReason = reason
}

// Rotation is the outcome of Manager.Rotate. When Rotated is false, Token is
// the caller's own token and Record its refreshed state.
type Rotation struct {
	Rotated bool
	Token   string
	Record  *Record
}
