package repo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/cardgate/internal/user/entity"
)

// ResetTokenRepo persists one-time password reset tokens.
type ResetTokenRepo struct {
	db *sqlx.DB
}

func NewResetTokenRepo(db *sqlx.DB) *ResetTokenRepo {
	return &ResetTokenRepo{db: db}
}

// EnsureTable creates the password_reset_tokens table if not exists.
func (r *ResetTokenRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS password_reset_tokens (
  token TEXT PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(id),
  expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_password_reset_tokens_user_id ON password_reset_tokens(user_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *ResetTokenRepo) Save(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	const q = `INSERT INTO password_reset_tokens (token, user_id, expires_at) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, q, token, userID, expiresAt)
	return err
}

func (r *ResetTokenRepo) Get(ctx context.Context, token string) (*entity.ResetToken, error) {
	const q = `SELECT token, user_id, expires_at FROM password_reset_tokens WHERE token=$1`
	var row entity.ResetToken
	if err := r.db.GetContext(ctx, &row, q, token); err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *ResetTokenRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE token=$1`, token)
	return err
}

// DeleteByUser drops every outstanding token for a user, called after a
// successful reset so stale links cannot be replayed.
func (r *ResetTokenRepo) DeleteByUser(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE user_id=$1`, userID)
	return err
}
