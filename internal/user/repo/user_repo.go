package repo

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/cardgate/internal/user/entity"
)

// Duplicate-key sentinels surfaced when an insert trips a unique index.
// They are the correctness backstop against two concurrent registrations
// passing the application-level availability check before either commits.
var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
)

const uniqueViolation = "23505"

// UserRepo provides data access for the users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// EnsureTable creates the users table if not exists (idempotent).
// This is a convenience for early development; prefer migrations in production.
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
  id BIGSERIAL PRIMARY KEY,
  username TEXT NOT NULL,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  first_name TEXT,
  second_name TEXT,
  is_active BOOLEAN NOT NULL DEFAULT true,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(username);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Create inserts a new user row and fills in the assigned ID and creation
// time. Unique-index violations come back as ErrDuplicateUsername or
// ErrDuplicateEmail.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (username, email, password_hash, first_name, second_name, is_active)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	err := r.db.QueryRowxContext(ctx, q,
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.SecondName, u.IsActive,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		switch pqErr.Constraint {
		case "idx_users_username":
			return ErrDuplicateUsername
		case "idx_users_email":
			return ErrDuplicateEmail
		}
	}
	return err
}

// GetByEmail returns a user matched by exact email or sql.ErrNoRows.
// Matching is case-sensitive: the column is TEXT, no normalization applied.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	const q = `SELECT id, username, email, password_hash, first_name, second_name, is_active, created_at
		FROM users WHERE email=$1`
	var row entity.User
	if err := r.db.GetContext(ctx, &row, q, email); err != nil {
		return nil, err
	}
	return &row, nil
}

// GetByUsername fetches by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	const q = `SELECT id, username, email, password_hash, first_name, second_name, is_active, created_at
		FROM users WHERE username=$1`
	var row entity.User
	if err := r.db.GetContext(ctx, &row, q, username); err != nil {
		return nil, err
	}
	return &row, nil
}

// GetByID fetches a full user row.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	const q = `SELECT id, username, email, password_hash, first_name, second_name, is_active, created_at
		FROM users WHERE id=$1`
	var row entity.User
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// UsernameExists reports whether a username is already taken.
func (r *UserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM users WHERE username=$1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, q, username); err != nil {
		return false, err
	}
	return exists, nil
}

// EmailExists reports whether an email is already registered.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM users WHERE email=$1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, q, email); err != nil {
		return false, err
	}
	return exists, nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	const q = `UPDATE users SET password_hash=$2 WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, id, hash)
	return err
}

// SetActive toggles the is_active flag (administrator operation; users are
// never physically deleted).
func (r *UserRepo) SetActive(ctx context.Context, id int64, active bool) error {
	const q = `UPDATE users SET is_active=$2 WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, id, active)
	return err
}
