// Package repomanager selects a storage driver and vends the repositories
// built on it.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/ashdiag/internal/server/repositories/attempts"
	"github.com/dmitrijs2005/ashdiag/internal/server/repositories/diagnostics"
	"github.com/dmitrijs2005/ashdiag/internal/server/repositories/keys"
	"github.com/dmitrijs2005/ashdiag/internal/server/repositories/sessions"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

type RepositoryManager interface {
	// RunMigrations prepares the backing store (schema or data directory).
	RunMigrations(ctx context.Context) error
	Keys() keys.Repository
	Sessions() sessions.Repository
	Attempts() attempts.Repository
	Diagnostics() diagnostics.Repository
	Close() error
}
