package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/construtora/agenda-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var userRowColumns = []string{"id", "name", "email", "password_hash", "job_title", "department", "permission", "active", "last_login", "created_at", "updated_at"}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow("1", "Ana Souza", "ana@construtora.com", "hash", "Engenheira", "Obras", string(models.PermissionAdmin), true, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("ana@construtora.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), " ana@construtora.com ")
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", user.Name)
	assert.Equal(t, models.PermissionAdmin, user.Permission)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByNameNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE LOWER(name) = LOWER($1)")).
		WithArgs("Fulano").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByName(context.Background(), "Fulano")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByNameRejectsDuplicatedActiveNames(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow("1", "João Silva", "joao@construtora.com", "hash", "Mestre de obras", "Obras", string(models.PermissionViewer), true, nil, now, now).
		AddRow("2", "João Silva", "joao.silva@construtora.com", "hash", "Engenheiro", "Engenharia", string(models.PermissionEditor), true, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE LOWER(name) = LOWER($1) ORDER BY active DESC, created_at ASC LIMIT 2")).
		WithArgs("João Silva").
		WillReturnRows(rows)

	_, err := repo.FindByName(context.Background(), "João Silva")
	assert.ErrorIs(t, err, models.ErrAmbiguousName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByNameIgnoresInactiveNamesake(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow("1", "João Silva", "joao@construtora.com", "hash", "Mestre de obras", "Obras", string(models.PermissionViewer), true, nil, now, now).
		AddRow("2", "João Silva", "antigo@construtora.com", "hash", "Engenheiro", "Engenharia", string(models.PermissionEditor), false, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE LOWER(name) = LOWER($1)")).
		WithArgs("joão silva").
		WillReturnRows(rows)

	user, err := repo.FindByName(context.Background(), "joão silva")
	require.NoError(t, err)
	assert.Equal(t, "1", user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDsEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	users, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

	token := &models.RefreshToken{UserID: "u1", Token: "token", ExpiresAt: time.Now()}
	err := repo.CreateRefreshToken(context.Background(), token)
	require.NoError(t, err)
	assert.NotEmpty(t, token.ID)
	assert.False(t, token.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	listRows := sqlmock.NewRows(userRowColumns).
		AddRow("1", "Ana", "a@construtora.com", "hash", "", "Obras", string(models.PermissionEditor), true, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE 1=1 ORDER BY name ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(listRows)

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1")).WillReturnRows(countRows)

	users, total, err := repo.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Nil(t, users[0].LastLogin)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersWithFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	perm := models.PermissionViewer
	active := true
	filter := models.UserFilter{Permission: &perm, Department: "Obras", Active: &active, Search: "Ana", SortBy: "email", SortOrder: "desc", Page: 2, PageSize: 10}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND permission = $1 AND LOWER(department) = LOWER($2) AND active = $3 AND (LOWER(email) LIKE $4 OR LOWER(name) LIKE $4) ORDER BY email DESC LIMIT 10 OFFSET 10")).
		WithArgs(string(perm), "Obras", true, "%ana%").
		WillReturnRows(sqlmock.NewRows(userRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WithArgs(string(perm), "Obras", true, "%ana%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	users, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountActiveByDepartment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE LOWER(department) = LOWER($1) AND active = TRUE")).
		WithArgs("Obras").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.CountActiveByDepartment(context.Background(), "Obras")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
