package owners

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/jointbank/internal/common"
	"github.com/dmitrijs2005/jointbank/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertQ = `(?s)^INSERT\s+INTO\s+joint_owners\s*\(account_id,\s*user_id,\s*role\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+created_at$`
	existsQ = `(?s)^SELECT\s+EXISTS\s*\(\s*SELECT\s+1\s+FROM\s+joint_owners\s+WHERE\s+account_id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2\s*\)$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(insertQ).
		WithArgs("a-1", "u-2", models.RoleMember).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	got, err := repo.Create(context.Background(), &models.JointOwner{AccountID: "a-1", UserID: "u-2", Role: models.RoleMember})
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(now))
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.JointOwner{AccountID: "a-1", UserID: "u-2", Role: models.RoleMember})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.JointOwner{AccountID: "a-1", UserID: "u-2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: db down")
}

func TestIsOwner(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(existsQ).
		WithArgs("a-1", "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(existsQ).
		WithArgs("a-1", "u-9").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(existsQ).
		WithArgs("a-1", "u-1").
		WillReturnError(errors.New("db err"))

	ok, err := repo.IsOwner(context.Background(), "a-1", "u-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsOwner(context.Background(), "a-1", "u-9")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.IsOwner(context.Background(), "a-1", "u-1")
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}
