// Package models holds the records persisted and exchanged by the server.
package models

import "time"

// RequestContext carries caller identity and the clock reading for one
// request. It is passed explicitly instead of read from globals.
type RequestContext struct {
	IP        string
	UserAgent string
	Now       time.Time
}
