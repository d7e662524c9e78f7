package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/cardgate/internal/user/entity"
	userrepo "github.com/ovaphlow/cardgate/internal/user/repo"
	"github.com/ovaphlow/cardgate/pkg/utilities"
)

// Shared error taxonomy. Both HTTP surfaces (JSON API and session views) map
// these same values; validation never lives in a handler.
var (
	// ErrInvalidCredentials covers unknown email, wrong password, bad or
	// expired token and unresolvable subject alike. The caller must not be
	// able to tell which part failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveAccount means the credential verified but the account is
	// deactivated. Intentionally distinguishable from ErrInvalidCredentials:
	// a leaked-but-deactivated credential is an authorization decision, not
	// an authentication failure.
	ErrInactiveAccount = errors.New("inactive account")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrEmailTaken      = errors.New("email already taken")
	ErrNotFound        = errors.New("user not found")
)

// ValidationError reports malformed input caught before reaching storage.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// Letters, digits, underscore and dash only, 6-30 characters.
var usernameRE = regexp.MustCompile(`^[A-Za-z0-9_-]{6,30}$`)

const (
	minPasswordLen = 6
	resetTokenTTL  = 2 * time.Hour
)

// Service orchestrates registration, authentication and password lifecycle.
type Service struct {
	repo   *userrepo.UserRepo
	resets *userrepo.ResetTokenRepo
	hasher PasswordHasher
	logger *zap.SugaredLogger
}

func NewService(db *sqlx.DB, hasher PasswordHasher, logger *zap.SugaredLogger) *Service {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		repo:   userrepo.NewUserRepo(db),
		resets: userrepo.NewResetTokenRepo(db),
		hasher: hasher,
		logger: logger,
	}
}

// EnsureTables creates the backing tables, for development setups without
// migrations.
func (s *Service) EnsureTables(ctx context.Context) error {
	if err := s.repo.EnsureTable(ctx); err != nil {
		return err
	}
	return s.resets.EnsureTable(ctx)
}

// RegisterInput is the payload for Register, shared by both surfaces.
type RegisterInput struct {
	Username   string
	Email      string
	Password   string
	FirstName  *string
	SecondName *string
}

func (in *RegisterInput) validate() error {
	if !usernameRE.MatchString(in.Username) {
		return &ValidationError{Field: "username", Reason: "must be 6-30 letters, digits, _ or -"}
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return &ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	if len(in.Password) < minPasswordLen {
		return &ValidationError{Field: "password", Reason: "must be at least 6 characters"}
	}
	return nil
}

// Register validates input, rejects taken usernames and emails, hashes the
// password and persists the new account with is_active=true. The availability
// checks run first for field-specific errors; the unique indexes remain the
// backstop when a concurrent registration slips between check and insert.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	taken, err := s.repo.UsernameExists(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}
	taken, err = s.repo.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		SecondName:   in.SecondName,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		switch {
		case errors.Is(err, userrepo.ErrDuplicateUsername):
			return nil, ErrUsernameTaken
		case errors.Is(err, userrepo.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.logger.Infow("user registered", "id", u.ID, "username", u.Username)
	return u, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password produce the same error value, so responses cannot be used to
// enumerate accounts. Email matching is exact, no case normalization; two
// addresses differing only in case are distinct accounts.
func (s *Service) Login(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactiveAccount
	}
	return u, nil
}

// GetByID resolves a user id to an account, or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// RequestPasswordReset always acks, whether or not the email resolves to an
// account. When it does, a one-time token is persisted; delivery is left to
// an external mailer, so for now the token is only logged.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	tok := utilities.NewKSUID()
	if err := s.resets.Save(ctx, tok, u.ID, time.Now().Add(resetTokenTTL)); err != nil {
		return err
	}
	s.logger.Infow("password reset requested", "user_id", u.ID, "token", tok)
	return nil
}

// ResetPassword consumes a reset token and stores the new password hash.
// Missing, expired and already-used tokens all fail the same way.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return &ValidationError{Field: "password", Reason: "must be at least 6 characters"}
	}
	rt, err := s.resets.Get(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidCredentials
		}
		return err
	}
	if rt.ExpiresAt.Before(time.Now()) {
		_ = s.resets.Delete(ctx, token)
		return ErrInvalidCredentials
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, rt.UserID, hash); err != nil {
		return err
	}
	if err := s.resets.DeleteByUser(ctx, rt.UserID); err != nil {
		return err
	}
	s.logger.Infow("password reset completed", "user_id", rt.UserID)
	return nil
}

// SetActive toggles an account's is_active flag (administrator operation).
func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}
