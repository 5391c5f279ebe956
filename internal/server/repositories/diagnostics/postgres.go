package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"

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

// jsonb columns
type payload struct {
	answers, scores, findings, recommendations []byte
}

func encode(d *models.Diagnostic) (payload, error) {
	var (
		p   payload
		err error
	)
	if p.answers, err = json.Marshal(d.RawAnswers); err != nil {
		return p, err
	}
	if p.scores, err = json.Marshal(d.DimensionScores); err != nil {
		return p, err
	}
	if p.findings, err = json.Marshal(d.Findings); err != nil {
		return p, err
	}
	p.recommendations, err = json.Marshal(d.Recommendations)
	return p, err
}

func (r *PostgresRepository) Append(ctx context.Context, d *models.Diagnostic) (*models.Diagnostic, error) {
	p, err := encode(d)
	if err != nil {
		return nil, fmt.Errorf("encode diagnostic: %w", err)
	}

	query :=
		`INSERT INTO diagnostics (id, created_at, product, client_email, key_id, key_value, client_ip, user_agent,
		 raw_answers, dimension_scores, overall_average, status, priority, findings, recommendations, system_version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 RETURNING numeric_id
		 `

	stored := *d
	err = r.db.QueryRowContext(ctx, query,
		d.ID, d.CreatedAt, string(d.Product), d.ClientEmail, d.KeyID, d.KeyValue, d.ClientIP, d.UserAgent,
		p.answers, p.scores, d.OverallAverage, string(d.Status), string(d.Priority), p.findings, p.recommendations,
		d.SystemVersion).Scan(&stored.NumericID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrAlreadyExists
		}
		return nil, common.PersistenceErr("db error", err)
	}
	return &stored, nil
}

func (r *PostgresRepository) All(ctx context.Context) ([]*models.Diagnostic, error) {
	query :=
		`SELECT id, numeric_id, created_at, product, client_email, key_id, key_value, client_ip, user_agent,
		 raw_answers, dimension_scores, overall_average, status, priority, findings, recommendations, system_version
		 FROM diagnostics
		 ORDER BY numeric_id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, common.PersistenceErr("db error", err)
	}
	defer rows.Close()

	out := []*models.Diagnostic{}
	for rows.Next() {
		var (
			d                         models.Diagnostic
			product, status, prio     string
			answers, scores           []byte
			findings, recommendations []byte
		)
		err := rows.Scan(&d.ID, &d.NumericID, &d.CreatedAt, &product, &d.ClientEmail, &d.KeyID, &d.KeyValue,
			&d.ClientIP, &d.UserAgent, &answers, &scores, &d.OverallAverage, &status, &prio, &findings,
			&recommendations, &d.SystemVersion)
		if err != nil {
			return nil, common.PersistenceErr("db error", err)
		}
		d.Product = models.Product(product)
		d.Status = models.Status(status)
		d.Priority = models.Priority(prio)
		if err := decode(&d, answers, scores, findings, recommendations); err != nil {
			return nil, common.PersistenceErr("decode diagnostic "+d.ID, err)
		}
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, common.PersistenceErr("db error", err)
	}
	return out, nil
}

func decode(d *models.Diagnostic, answers, scores, findings, recommendations []byte) error {
	if err := json.Unmarshal(answers, &d.RawAnswers); err != nil {
		return err
	}
	if err := json.Unmarshal(scores, &d.DimensionScores); err != nil {
		return err
	}
	if err := json.Unmarshal(findings, &d.Findings); err != nil {
		return err
	}
	return json.Unmarshal(recommendations, &d.Recommendations)
}
