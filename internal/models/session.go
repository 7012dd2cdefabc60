package models

import "time"

// Session is an opaque bearer credential stored server-side.
// A nil ExpiresAt means the session never expires.
type Session struct {
	Token     string
	UserID    string
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// Expired reports whether the session is past its expiry at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}
