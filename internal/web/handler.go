package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/cardgate/internal/auth"
	"github.com/ovaphlow/cardgate/internal/session"
	"github.com/ovaphlow/cardgate/internal/user"
	"github.com/ovaphlow/cardgate/internal/user/entity"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Handler serves the session-backed view surface: login, registration,
// logout and the landing page. It shares the user service and error values
// with the JSON API; only the transport (signed cookie) and the error
// presentation (flash + redirect) differ.
type Handler struct {
	svc      *user.Service
	sessions *session.Manager
	gate     *auth.Gate
	logger   *zap.SugaredLogger
	tmpl     *template.Template
}

func NewHandler(svc *user.Service, sessions *session.Manager, gate *auth.Gate, logger *zap.SugaredLogger) *Handler {
	tmpl := template.Must(template.ParseFS(templatesFS, "templates/*.html"))
	return &Handler{svc: svc, sessions: sessions, gate: gate, logger: logger, tmpl: tmpl}
}

type pageData struct {
	Title   string
	User    *entity.User
	Flashes []session.Flash
	Error   string
	Form    map[string]string
}

func (h *Handler) render(w http.ResponseWriter, name string, data pageData) {
	if data.Form == nil {
		data.Form = map[string]string{}
	}
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Errorw("template render failed", "template", name, "err", err)
	}
}

// currentUser resolves the session identity. A deactivated account is signed
// out on the spot so the stale cookie cannot keep resurfacing the error.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) *entity.User {
	identity, err := h.gate.FromSession(r)
	if err != nil {
		if errors.Is(err, user.ErrInactiveAccount) {
			_ = h.sessions.SignOut(w, r)
			_ = h.sessions.AddFlash(w, r, "warning", "Your account has been deactivated")
		}
		return nil
	}
	u, _ := identity.User()
	return u
}

// Home renders the landing page for both anonymous and logged-in visitors.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	h.render(w, "home.html", pageData{
		Title:   "Card Access Administration",
		User:    u,
		Flashes: h.sessions.Flashes(w, r),
	})
}

// LoginPage shows the login form; an already logged-in visitor is sent home.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if u := h.currentUser(w, r); u != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, "login.html", pageData{
		Title:   "Sign in",
		Flashes: h.sessions.Flashes(w, r),
	})
}

// Login handles the login form. Failures flash and redirect back; the flash
// text for unknown email and wrong password is identical.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	email := r.FormValue("email")
	password := r.FormValue("password")

	u, err := h.svc.Login(r.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidCredentials):
			_ = h.sessions.AddFlash(w, r, "danger", "Invalid email/password combination")
		case errors.Is(err, user.ErrInactiveAccount):
			_ = h.sessions.AddFlash(w, r, "warning", "Your account has been deactivated")
		default:
			h.logger.Errorw("login failed", "err", err)
			_ = h.sessions.AddFlash(w, r, "danger", "Login failed, try again later")
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := h.sessions.SignIn(w, r, u.ID); err != nil {
		h.logger.Errorw("session write failed", "err", err)
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	_ = h.sessions.AddFlash(w, r, "info", "Logged in successfully")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RegisterPage shows the registration form.
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if u := h.currentUser(w, r); u != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, "register.html", pageData{
		Title:   "Register",
		Flashes: h.sessions.Flashes(w, r),
	})
}

// Register handles the registration form. Unlike the API flow the new user
// is logged in immediately. Validation and conflict errors re-render the
// form with the entered values preserved.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	in := user.RegisterInput{
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}
	if v := r.FormValue("first_name"); v != "" {
		in.FirstName = &v
	}
	if v := r.FormValue("second_name"); v != "" {
		in.SecondName = &v
	}

	u, err := h.svc.Register(r.Context(), in)
	if err != nil {
		h.render(w, "register.html", pageData{
			Title: "Register",
			Error: registerErrorMessage(err),
			Form: map[string]string{
				"username":    in.Username,
				"email":       in.Email,
				"first_name":  r.FormValue("first_name"),
				"second_name": r.FormValue("second_name"),
			},
		})
		return
	}

	if err := h.sessions.SignIn(w, r, u.ID); err != nil {
		h.logger.Errorw("session write failed", "err", err)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	_ = h.sessions.AddFlash(w, r, "info", "Welcome, "+u.Username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func registerErrorMessage(err error) string {
	var vErr *user.ValidationError
	switch {
	case errors.As(err, &vErr):
		return vErr.Field + " " + vErr.Reason
	case errors.Is(err, user.ErrUsernameTaken):
		return "This username is already taken"
	case errors.Is(err, user.ErrEmailTaken):
		return "This email is already used by another account"
	}
	return "Registration failed, try again later"
}

// Logout clears the session login state and flashes a notice.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(w, r); err != nil {
		h.logger.Warnw("sign out failed", "err", err)
	}
	_ = h.sessions.AddFlash(w, r, "info", "You have been logged out")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
