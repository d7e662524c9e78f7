package repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/cardgate/internal/user/entity"
)

func newTestRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepo(sqlx.NewDb(db, "sqlmock")), mock
}

func TestCreateAssignsIDAndCreatedAt(t *testing.T) {
	r, mock := newTestRepo(t)

	created := time.Now()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice_01", "a@x.com", "hash", nil, nil, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(3), created))

	u := &entity.User{Username: "alice_01", Email: "a@x.com", PasswordHash: "hash", IsActive: true}
	require.NoError(t, r.Create(context.Background(), u))
	assert.Equal(t, int64(3), u.ID)
	assert.Equal(t, created, u.CreatedAt)
}

func TestCreateMapsUniqueViolations(t *testing.T) {
	cases := []struct {
		constraint string
		want       error
	}{
		{"idx_users_username", ErrDuplicateUsername},
		{"idx_users_email", ErrDuplicateEmail},
	}
	for _, tc := range cases {
		t.Run(tc.constraint, func(t *testing.T) {
			r, mock := newTestRepo(t)
			mock.ExpectQuery(`INSERT INTO users`).
				WillReturnError(&pq.Error{Code: "23505", Constraint: tc.constraint})

			err := r.Create(context.Background(), &entity.User{Username: "alice_01", Email: "a@x.com"})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreatePassesThroughOtherErrors(t *testing.T) {
	r, mock := newTestRepo(t)
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "57014"}) // query_canceled

	err := r.Create(context.Background(), &entity.User{Username: "alice_01", Email: "a@x.com"})
	assert.NotErrorIs(t, err, ErrDuplicateUsername)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
	assert.Error(t, err)
}

func TestGetByEmailScansRow(t *testing.T) {
	r, mock := newTestRepo(t)

	mock.ExpectQuery(`FROM users WHERE email=\$1`).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "username", "email", "password_hash", "first_name", "second_name", "is_active", "created_at"}).
			AddRow(int64(7), "alice_01", "a@x.com", "hash", "Alice", nil, true, time.Now()))

	u, err := r.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	require.NotNil(t, u.FirstName)
	assert.Equal(t, "Alice", *u.FirstName)
	assert.Nil(t, u.SecondName)
}

func TestSetActive(t *testing.T) {
	r, mock := newTestRepo(t)

	mock.ExpectExec(`UPDATE users SET is_active=\$2`).
		WithArgs(int64(7), false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.SetActive(context.Background(), 7, false))
	require.NoError(t, mock.ExpectationsWereMet())
}
