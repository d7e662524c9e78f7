package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ovaphlow/cardgate/internal/token"
	"github.com/ovaphlow/cardgate/internal/user"
)

// Handler exposes the JSON auth endpoints (register / login / me / logout /
// password reset). The session-backed view surface lives in internal/web and
// shares the same user service and error values.
type Handler struct {
	svc    *user.Service
	tokens *token.Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *user.Service, tokens *token.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, tokens: tokens, logger: logger}
}

// RegisterRequest request body for the register endpoint.
type RegisterRequest struct {
	Username   string  `json:"username"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	FirstName  *string `json:"first_name,omitempty"`
	SecondName *string `json:"second_name,omitempty"`
}

// Register creates an account. Unlike the view flow it does NOT log the new
// user in; the caller must call login separately.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	u, err := h.svc.Register(r.Context(), user.RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		SecondName: req.SecondName,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, u)
}

// LoginRequest login payload. Identification is by email, not username.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the minted bearer token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	u, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Debugw("login failed", "err", err)
		h.writeError(w, err)
		return
	}
	tok, err := h.tokens.Issue(strconv.FormatInt(u.ID, 10), 0)
	if err != nil {
		h.logger.Errorw("token issue failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "login failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, LoginResponse{
		AccessToken: tok,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokens.TTL().Seconds()),
	})
}

// Me returns the authenticated account. Requires the RequireUser middleware.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or missing credentials"})
		return
	}
	h.writeJSON(w, http.StatusOK, u)
}

// Logout acks. Tokens are stateless and stay valid until expiry; the client
// deletes its copy. This is the documented contract, not an oversight.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "logged out, delete the token client-side"})
}

// PasswordResetRequest body for the reset-request endpoint.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordReset acks identically whether or not the email has an account.
func (h *Handler) PasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := h.svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.logger.Errorw("password reset request failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "reset request failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"message": "if the email exists, a password reset link has been sent",
	})
}

// PasswordResetConfirmRequest body for the reset-confirm endpoint.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) PasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// writeError maps the shared error taxonomy to HTTP status classes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var vErr *user.ValidationError
	switch {
	case errors.As(err, &vErr):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": vErr.Field + " " + vErr.Reason,
		})
	case errors.Is(err, user.ErrUsernameTaken):
		h.writeJSON(w, http.StatusConflict, map[string]string{"error": "username already taken"})
	case errors.Is(err, user.ErrEmailTaken):
		h.writeJSON(w, http.StatusConflict, map[string]string{"error": "email already taken"})
	case errors.Is(err, user.ErrInvalidCredentials):
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
	case errors.Is(err, user.ErrInactiveAccount):
		h.writeJSON(w, http.StatusForbidden, map[string]string{"error": "account is inactive"})
	case errors.Is(err, user.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		h.logger.Errorw("internal error", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
