// Package keys stores access key records.
package keys

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ashdiag/internal/server/models"
)

// Repository is the key store persistence contract.
//
// MarkUsed is conditional: it succeeds only while used is false and reports
// common.ErrKeyAlreadyUsed otherwise, so concurrent submissions have exactly
// one winner. metadata is merged into client_metadata by the same update.
// Lookups of absent keys report common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, key *models.Key) (*models.Key, error)
	FindByValue(ctx context.Context, value string) (*models.Key, error)
	GetByID(ctx context.Context, id int64) (*models.Key, error)
	// RecordAttempt bumps redemption_attempts (never above ceiling) and sets
	// last_attempt, returning the updated record.
	RecordAttempt(ctx context.Context, id int64, at time.Time, ceiling int) (*models.Key, error)
	MarkUsed(ctx context.Context, id int64, diagnosticID string, at time.Time, metadata map[string]string) error
	List(ctx context.Context, filter models.KeyFilter) ([]*models.Key, error)
}
