package models

import "time"

// Session is the ephemeral grant issued after a successful key verification.
// It authorizes one submission and is deleted when consumed.
type Session struct {
	Token     string    `json:"token"`
	KeyID     int64     `json:"key_id"`
	KeyValue  string    `json:"key_value"`
	Product   Product   `json:"product"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	ClientIP  string    `json:"client_ip"`
	UserAgent string    `json:"user_agent"`
}

// Expired reports whether the session may no longer be used at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
