package model

import "time"

// Admin is a dashboard administrator. Admins authenticate with a username
// and password and are seeded at startup; they are never self-registered.
type Admin struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// User is a registered reader. A user may not log in until IsVerified is
// set by a successful email verification.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	IsVerified   bool       `json:"is_verified"`
	IsOnline     bool       `json:"is_online"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
}
