package entity

import "time"

// User represents an account row in the `users` table. Uniqueness of
// username and email is enforced by the storage layer, not just the
// application checks.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    *string   `db:"first_name" json:"first_name,omitempty"`
	SecondName   *string   `db:"second_name" json:"second_name,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ResetToken is a one-time password reset credential. Consumed on use,
// useless after ExpiresAt.
type ResetToken struct {
	Token     string    `db:"token"`
	UserID    int64     `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
}
