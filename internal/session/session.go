package session

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/ovaphlow/cardgate/internal/config"
)

// Flash is a one-shot notice queued for the next rendered page.
type Flash struct {
	Message  string
	Category string
}

func init() {
	gob.Register(Flash{})
	gob.Register(int64(0))
}

const userIDKey = "user_id"

// Manager wraps a signed cookie store. The cookie is signed, not encrypted:
// clients can read the values but cannot forge them without the secret, so
// nothing beyond identifiers belongs in session state.
type Manager struct {
	store *sessions.CookieStore
	name  string
}

func NewManager(cfg config.Session) *Manager {
	store := sessions.NewCookieStore(cfg.Secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{store: store, name: cfg.Name}
}

// Current resolves the session from the request cookie. A missing cookie or
// an invalid signature yields a fresh empty session, never an error.
func (m *Manager) Current(r *http.Request) *sessions.Session {
	sess, _ := m.store.Get(r, m.name)
	return sess
}

// SignIn records the authenticated user id and persists the cookie.
func (m *Manager) SignIn(w http.ResponseWriter, r *http.Request, userID int64) error {
	sess := m.Current(r)
	sess.Values[userIDKey] = userID
	return sess.Save(r, w)
}

// SignOut clears the login state. Flash messages queued in the same request
// survive so the logout notice can still render.
func (m *Manager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess := m.Current(r)
	delete(sess.Values, userIDKey)
	return sess.Save(r, w)
}

// UserID reports the logged-in user id, if any.
func (m *Manager) UserID(r *http.Request) (int64, bool) {
	sess := m.Current(r)
	id, ok := sess.Values[userIDKey].(int64)
	return id, ok
}

// Set stores a key/value pair and persists the cookie.
func (m *Manager) Set(w http.ResponseWriter, r *http.Request, key string, value any) error {
	sess := m.Current(r)
	sess.Values[key] = value
	return sess.Save(r, w)
}

// Get returns the value stored under key, if present.
func (m *Manager) Get(r *http.Request, key string) (any, bool) {
	sess := m.Current(r)
	v, ok := sess.Values[key]
	return v, ok
}

// Pop returns and removes the value stored under key.
func (m *Manager) Pop(w http.ResponseWriter, r *http.Request, key string) (any, bool) {
	sess := m.Current(r)
	v, ok := sess.Values[key]
	if ok {
		delete(sess.Values, key)
		_ = sess.Save(r, w)
	}
	return v, ok
}

// AddFlash queues a one-shot notice.
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, category, message string) error {
	sess := m.Current(r)
	sess.AddFlash(Flash{Message: message, Category: category})
	return sess.Save(r, w)
}

// Flashes returns queued notices and removes them from the session, so a
// second read within the cookie's lifetime comes back empty.
func (m *Manager) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	sess := m.Current(r)
	raw := sess.Flashes()
	if len(raw) > 0 {
		_ = sess.Save(r, w)
	}
	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	return out
}
