package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ovaphlow/cardgate/internal/user"
	"github.com/ovaphlow/cardgate/internal/user/entity"
)

type contextKey struct{}

var userContextKey contextKey

// UserFromContext returns the user injected by RequireUser.
func UserFromContext(ctx context.Context) (*entity.User, bool) {
	u, ok := ctx.Value(userContextKey).(*entity.User)
	return u, ok
}

// RequireUser guards an endpoint with the bearer-token strategy. On success
// the resolved user is stored in the request context for the handler.
func (g *Gate) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := g.FromBearer(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			status := http.StatusUnauthorized
			msg := "invalid or missing credentials"
			if errors.Is(err, user.ErrInactiveAccount) {
				status = http.StatusForbidden
				msg = "account is inactive"
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, u)))
	})
}
