// Package sessions stores the short-lived grants issued after a key passes
// verification.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ashdiag/internal/server/models"
)

// Repository persists sessions. Get and Consume treat expired sessions as
// absent and report common.ErrorNotFound for both cases.
type Repository interface {
	// Create prunes sessions expired at now, then stores s.
	Create(ctx context.Context, s *models.Session, now time.Time) error
	Get(ctx context.Context, token string, now time.Time) (*models.Session, error)
	// Consume atomically fetches and deletes the session.
	Consume(ctx context.Context, token string, now time.Time) (*models.Session, error)
	// Sweep removes every session expired at now and returns the count.
	Sweep(ctx context.Context, now time.Time) (int, error)
}
