// Package attempts stores failed-verification counters keyed by client
// fingerprint.
package attempts

import (
	"context"

	"github.com/dmitrijs2005/ashdiag/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, fingerprint string) (*models.AttemptCounter, error)
	Put(ctx context.Context, c *models.AttemptCounter) error
	Delete(ctx context.Context, fingerprint string) error
}
