package attempts

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/ashdiag/internal/common"
	"github.com/dmitrijs2005/ashdiag/internal/dbx"
	"github.com/dmitrijs2005/ashdiag/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, fingerprint string) (*models.AttemptCounter, error) {
	query :=
		`SELECT fingerprint, count, first_attempt, last_attempt, locked_until FROM attempts
		 WHERE fingerprint = $1
		 `

	var (
		c      models.AttemptCounter
		locked sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, fingerprint).Scan(&c.Fingerprint, &c.Count, &c.FirstAttempt, &c.LastAttempt, &locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, common.PersistenceErr("db error", err)
	}
	if locked.Valid {
		c.LockedUntil = &locked.Time
	}
	return &c, nil
}

func (r *PostgresRepository) Put(ctx context.Context, c *models.AttemptCounter) error {
	query :=
		`INSERT INTO attempts (fingerprint, count, first_attempt, last_attempt, locked_until)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (fingerprint) DO UPDATE SET
		 count = EXCLUDED.count, first_attempt = EXCLUDED.first_attempt,
		 last_attempt = EXCLUDED.last_attempt, locked_until = EXCLUDED.locked_until
		 `

	var locked sql.NullTime
	if c.LockedUntil != nil {
		locked = sql.NullTime{Time: *c.LockedUntil, Valid: true}
	}
	if _, err := r.db.ExecContext(ctx, query, c.Fingerprint, c.Count, c.FirstAttempt, c.LastAttempt, locked); err != nil {
		return common.PersistenceErr("db error", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, fingerprint string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM attempts WHERE fingerprint = $1`, fingerprint); err != nil {
		return common.PersistenceErr("db error", err)
	}
	return nil
}
