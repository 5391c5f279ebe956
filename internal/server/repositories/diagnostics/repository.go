// Package diagnostics is the append-only log of completed assessments.
package diagnostics

import (
	"context"

	"github.com/dmitrijs2005/ashdiag/internal/server/models"
)

type Repository interface {
	// Append stores d, assigning the next NumericID, and returns the stored
	// record.
	Append(ctx context.Context, d *models.Diagnostic) (*models.Diagnostic, error)
	// All returns every record in insertion order.
	All(ctx context.Context) ([]*models.Diagnostic, error)
}
