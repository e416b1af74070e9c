package model

import "time"

// Session kinds. A session row references exactly one principal; the
// schema enforces the admin/user exclusivity with a CHECK constraint.
const (
	SessionKindAdmin = "admin"
	SessionKindUser  = "user"
)

type Session struct {
	ID         int64     `json:"id"`
	Token      string    `json:"token"`
	Kind       string    `json:"kind"`
	AdminID    *int64    `json:"admin_id"`
	UserID     *int64    `json:"user_id"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// EmailVerification is a pending 6-digit code proving control of an email
// address. At most one live code exists per email; issuing a new one
// deletes its predecessors.
type EmailVerification struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
