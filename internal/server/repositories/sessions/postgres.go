package sessions

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/ashdiag/internal/common"
	"github.com/dmitrijs2005/ashdiag/internal/dbx"
	"github.com/dmitrijs2005/ashdiag/internal/server/models"
)

const sessionColumns = `token, key_id, key_value, product, email, created_at, expires_at, client_ip, user_agent`

// PostgresRepository needs the *sql.DB itself because Create prunes and
// inserts in one transaction.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Session, now time.Time) error {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now); err != nil {
			return err
		}

		query :=
			`INSERT INTO sessions (` + sessionColumns + `)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 `
		_, err := tx.ExecContext(ctx, query, s.Token, s.KeyID, s.KeyValue, string(s.Product), s.Email,
			s.CreatedAt, s.ExpiresAt, s.ClientIP, s.UserAgent)
		return err
	})
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return common.PersistenceErr("db error", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		 WHERE token = $1 AND expires_at > $2
		 `
	return one(r.db.QueryRowContext(ctx, query, token, now))
}

func (r *PostgresRepository) Consume(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	query :=
		`DELETE FROM sessions
		 WHERE token = $1
		 RETURNING ` + sessionColumns

	s, err := one(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		return nil, err
	}
	if s.Expired(now) {
		return nil, common.ErrorNotFound
	}
	return s, nil
}

func (r *PostgresRepository) Sweep(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, common.PersistenceErr("db error", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, common.PersistenceErr("db error", err)
	}
	return int(n), nil
}

func one(row *sql.Row) (*models.Session, error) {
	var (
		s       models.Session
		product string
	)
	err := row.Scan(&s.Token, &s.KeyID, &s.KeyValue, &product, &s.Email, &s.CreatedAt, &s.ExpiresAt, &s.ClientIP, &s.UserAgent)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, common.PersistenceErr("db error", err)
	}
	s.Product = models.Product(product)
	return &s, nil
}
