package attempts

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/ashdiag/internal/common"
	"github.com/dmitrijs2005/ashdiag/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestPostgres_Get(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	locked := t0.Add(15 * time.Minute)
	mock.ExpectQuery(`(?s)^SELECT\s+fingerprint,\s*count,\s*first_attempt,\s*last_attempt,\s*locked_until\s+FROM\s+attempts\s+WHERE\s+fingerprint\s*=\s*\$1\s*$`).
		WithArgs("fp").
		WillReturnRows(sqlmock.NewRows([]string{"fingerprint", "count", "first_attempt", "last_attempt", "locked_until"}).
			AddRow("fp", 3, t0, t0, locked))

	got, err := repo.Get(context.Background(), "fp")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Count)
	require.NotNil(t, got.LockedUntil)
	assert.Equal(t, locked, *got.LockedUntil)
}

func TestPostgres_Get_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+fingerprint`).WithArgs("fp").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "fp")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgres_Put_Upserts(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+attempts\s*\(fingerprint,\s*count,\s*first_attempt,\s*last_attempt,\s*locked_until\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*ON\s+CONFLICT\s*\(fingerprint\)\s*DO\s+UPDATE`
	mock.ExpectExec(q).
		WithArgs("fp", 1, t0, t0, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Put(context.Background(), &models.AttemptCounter{Fingerprint: "fp", Count: 1, FirstAttempt: t0, LastAttempt: t0}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Delete_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+attempts\s+WHERE\s+fingerprint\s*=\s*\$1$`).
		WithArgs("fp").
		WillReturnError(errors.New("db down"))

	require.ErrorIs(t, repo.Delete(context.Background(), "fp"), common.ErrPersistence)
}
