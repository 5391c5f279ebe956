package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/ashdiag/internal/server/migrations"
	"github.com/dmitrijs2005/ashdiag/internal/server/repositories/attempts"
	"github.com/dmitrijs2005/ashdiag/internal/server/repositories/diagnostics"
	"github.com/dmitrijs2005/ashdiag/internal/server/repositories/keys"
	"github.com/dmitrijs2005/ashdiag/internal/server/repositories/sessions"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories over one
// connection pool and runs goose migrations from the embedded FS.
type PostgresRepositoryManager struct {
	db *sql.DB
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

// NewPostgresRepositoryManager opens a pgx pool for dsn.
func NewPostgresRepositoryManager(dsn string) (*PostgresRepositoryManager, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	return &PostgresRepositoryManager{db: db}, nil
}

// NewPostgresRepositoryManagerWithDB wraps an existing connection.
func NewPostgresRepositoryManagerWithDB(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db}
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}

func (m *PostgresRepositoryManager) Keys() keys.Repository {
	return keys.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) Sessions() sessions.Repository {
	return sessions.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) Attempts() attempts.Repository {
	return attempts.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) Diagnostics() diagnostics.Repository {
	return diagnostics.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
