package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ovaphlow/cardgate/internal/session"
	"github.com/ovaphlow/cardgate/internal/token"
	"github.com/ovaphlow/cardgate/internal/user"
	"github.com/ovaphlow/cardgate/internal/user/entity"
)

// Identity is the result of resolving a request's credentials: either an
// authenticated user or the anonymous visitor. Anonymous is a distinct state,
// not an error; calling code decides whether anonymous access is permitted.
type Identity struct {
	user *entity.User
}

func Anonymous() Identity { return Identity{} }

func Authenticated(u *entity.User) Identity { return Identity{user: u} }

func (id Identity) IsAnonymous() bool { return id.user == nil }

func (id Identity) User() (*entity.User, bool) {
	return id.user, id.user != nil
}

// Gate resolves the current user from request credentials. Two independent
// strategies share the same identity lookup: bearer tokens for the JSON API,
// session cookies for the rendered views.
type Gate struct {
	tokens   *token.Service
	sessions *session.Manager
	users    *user.Service
}

func NewGate(tokens *token.Service, sessions *session.Manager, users *user.Service) *Gate {
	return &Gate{tokens: tokens, sessions: sessions, users: users}
}

// FromBearer resolves an Authorization header. A missing header, a bad or
// expired token and an unresolvable subject all collapse to
// user.ErrInvalidCredentials; a resolved but deactivated account is
// user.ErrInactiveAccount.
func (g *Gate) FromBearer(ctx context.Context, authorization string) (*entity.User, error) {
	const prefix = "bearer "
	if len(authorization) < len(prefix) || !strings.EqualFold(authorization[:len(prefix)], prefix) {
		return nil, user.ErrInvalidCredentials
	}
	raw := strings.TrimSpace(authorization[len(prefix):])

	sub, err := g.tokens.Verify(raw)
	if err != nil {
		return nil, user.ErrInvalidCredentials
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, user.ErrInvalidCredentials
	}

	u, err := g.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, user.ErrInactiveAccount
	}
	return u, nil
}

// FromSession resolves the cookie session. An absent or stale user_id means
// anonymous; a deleted user is likewise anonymous. A deactivated account is
// the one failure surfaced as an error.
func (g *Gate) FromSession(r *http.Request) (Identity, error) {
	id, ok := g.sessions.UserID(r)
	if !ok {
		return Anonymous(), nil
	}
	u, err := g.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Anonymous(), nil
		}
		return Anonymous(), err
	}
	if !u.IsActive {
		return Anonymous(), user.ErrInactiveAccount
	}
	return Authenticated(u), nil
}
