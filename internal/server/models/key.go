package models

import "time"

// Key is a single-use access key. Used flips false to true exactly once and
// DiagnosticID is written in the same update.
type Key struct {
	ID                 int64             `json:"id"`
	Value              string            `json:"value"`
	Product            Product           `json:"product"`
	IssuedAt           time.Time         `json:"issued_at"`
	ValidUntil         time.Time         `json:"valid_until"`
	Used               bool              `json:"used"`
	UsedAt             *time.Time        `json:"used_at,omitempty"`
	DiagnosticID       *string           `json:"diagnostic_id,omitempty"`
	ClientMetadata     map[string]string `json:"client_metadata,omitempty"`
	GeneratedBy        string            `json:"generated_by,omitempty"`
	RedemptionAttempts int               `json:"redemption_attempts"`
	LastAttempt        *time.Time        `json:"last_attempt,omitempty"`
	Version            int64             `json:"version"`
}

// Expired reports whether the key is past its validity window at now.
func (k *Key) Expired(now time.Time) bool {
	return now.After(k.ValidUntil)
}

// KeyFilter narrows admin key listings. Nil fields match everything.
type KeyFilter struct {
	Product *Product
	Used    *bool
}

// Match reports whether k passes the filter.
func (f KeyFilter) Match(k *Key) bool {
	if f.Product != nil && k.Product != *f.Product {
		return false
	}
	if f.Used != nil && k.Used != *f.Used {
		return false
	}
	return true
}

// ClientInfo describes the person who redeemed a key. It is merged into the
// key's client metadata when the key is consumed.
type ClientInfo struct {
	Name    string `json:"name,omitempty"`
	Company string `json:"company,omitempty"`
	Role    string `json:"role,omitempty"`
}

// Metadata returns the non-empty fields under client_* names. Nil when all
// fields are empty.
func (c ClientInfo) Metadata() map[string]string {
	out := map[string]string{}
	if c.Name != "" {
		out["client_name"] = c.Name
	}
	if c.Company != "" {
		out["client_company"] = c.Company
	}
	if c.Role != "" {
		out["client_role"] = c.Role
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
