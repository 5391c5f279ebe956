package keys

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ashdiag/internal/common"
	"github.com/dmitrijs2005/ashdiag/internal/dbx"
	"github.com/dmitrijs2005/ashdiag/internal/server/models"
)

const keyColumns = `id, value, product, issued_at, valid_until, used, used_at, diagnostic_id,
		 client_metadata, generated_by, redemption_attempts, last_attempt, version`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, key *models.Key) (*models.Key, error) {
	meta, err := json.Marshal(key.ClientMetadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	query :=
		`INSERT INTO keys (value, product, issued_at, valid_until, client_metadata, generated_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, version
		 `

	out := cloneKey(key)
	err = r.db.QueryRowContext(ctx, query,
		key.Value, string(key.Product), key.IssuedAt, key.ValidUntil, meta, key.GeneratedBy).Scan(&out.ID, &out.Version)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrAlreadyExists
		}
		return nil, common.PersistenceErr("db error", err)
	}
	return out, nil
}

func (r *PostgresRepository) FindByValue(ctx context.Context, value string) (*models.Key, error) {
	query := `SELECT ` + keyColumns + ` FROM keys
		 WHERE value = $1
		 `
	return r.one(ctx, query, value)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Key, error) {
	query := `SELECT ` + keyColumns + ` FROM keys
		 WHERE id = $1
		 `
	return r.one(ctx, query, id)
}

func (r *PostgresRepository) RecordAttempt(ctx context.Context, id int64, at time.Time, ceiling int) (*models.Key, error) {
	query :=
		`UPDATE keys SET redemption_attempts = LEAST(redemption_attempts + 1, $3),
		 last_attempt = $2, version = version + 1
		 WHERE id = $1
		 RETURNING ` + keyColumns

	return r.one(ctx, query, id, at, ceiling)
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, id int64, diagnosticID string, at time.Time, metadata map[string]string) error {
	meta := []byte("{}")
	if len(metadata) > 0 {
		var err error
		if meta, err = json.Marshal(metadata); err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
	}

	query :=
		`UPDATE keys SET used = TRUE, used_at = $2, diagnostic_id = $3,
		 client_metadata = COALESCE(client_metadata, '{}'::jsonb) || $4::jsonb, version = version + 1
		 WHERE id = $1 AND used = FALSE
		 `

	res, err := r.db.ExecContext(ctx, query, id, at, diagnosticID, string(meta))
	if err != nil {
		return common.PersistenceErr("db error", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.PersistenceErr("db error", err)
	}
	if n == 1 {
		return nil
	}

	// lost the race or the key is gone
	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM keys WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return common.PersistenceErr("db error", err)
	}
	if !exists {
		return common.ErrorNotFound
	}
	return common.ErrKeyAlreadyUsed
}

func (r *PostgresRepository) List(ctx context.Context, filter models.KeyFilter) ([]*models.Key, error) {
	query := `SELECT ` + keyColumns + ` FROM keys
		 WHERE ($1::text IS NULL OR product = $1) AND ($2::boolean IS NULL OR used = $2)
		 ORDER BY id
		 `

	var product, used any
	if filter.Product != nil {
		product = string(*filter.Product)
	}
	if filter.Used != nil {
		used = *filter.Used
	}

	rows, err := r.db.QueryContext(ctx, query, product, used)
	if err != nil {
		return nil, common.PersistenceErr("db error", err)
	}
	defer rows.Close()

	out := []*models.Key{}
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, common.PersistenceErr("db error", err)
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, common.PersistenceErr("db error", err)
	}
	return out, nil
}

func (r *PostgresRepository) one(ctx context.Context, query string, args ...any) (*models.Key, error) {
	k, err := scanKey(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, common.PersistenceErr("db error", err)
	}
	return k, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanKey(s scanner) (*models.Key, error) {
	var (
		k            models.Key
		product      string
		usedAt       sql.NullTime
		diagnosticID sql.NullString
		lastAttempt  sql.NullTime
		meta         []byte
	)
	err := s.Scan(&k.ID, &k.Value, &product, &k.IssuedAt, &k.ValidUntil, &k.Used, &usedAt, &diagnosticID,
		&meta, &k.GeneratedBy, &k.RedemptionAttempts, &lastAttempt, &k.Version)
	if err != nil {
		return nil, err
	}
	k.Product = models.Product(product)
	if usedAt.Valid {
		k.UsedAt = &usedAt.Time
	}
	if diagnosticID.Valid {
		k.DiagnosticID = &diagnosticID.String
	}
	if lastAttempt.Valid {
		k.LastAttempt = &lastAttempt.Time
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &k.ClientMetadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &k, nil
}
