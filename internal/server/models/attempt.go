package models

import "time"

// AttemptCounter tracks failed verifications for one fingerprint.
type AttemptCounter struct {
	Fingerprint  string     `json:"fingerprint"`
	Count        int        `json:"count"`
	FirstAttempt time.Time  `json:"first_attempt"`
	LastAttempt  time.Time  `json:"last_attempt"`
	LockedUntil  *time.Time `json:"locked_until,omitempty"`
}
