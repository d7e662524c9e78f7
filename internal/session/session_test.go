package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/cardgate/internal/config"
)

func testManager() *Manager {
	return NewManager(config.Session{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		Name:   "cardgate_session",
		MaxAge: 24 * time.Hour,
	})
}

// nextRequest builds a follow-up request carrying the cookies the previous
// response set, simulating the same browser.
func nextRequest(t *testing.T, resp *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range resp.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSetGetAcrossRequests(t *testing.T) {
	m := testManager()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	require.NoError(t, m.Set(resp, req, "user_id", int64(7)))

	// visible within the same request
	v, ok := m.Get(req, "user_id")
	require.True(t, ok)
	assert.Equal(t, int64(7), v)

	// and in a subsequent request using the same cookie
	req2 := nextRequest(t, resp)
	v, ok = m.Get(req2, "user_id")
	require.True(t, ok)
	assert.Equal(t, int64(7), v)
}

func TestPopRemovesKey(t *testing.T) {
	m := testManager()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	require.NoError(t, m.Set(resp, req, "user_id", int64(7)))

	req2 := nextRequest(t, resp)
	resp2 := httptest.NewRecorder()
	v, ok := m.Pop(resp2, req2, "user_id")
	require.True(t, ok)
	assert.Equal(t, int64(7), v)

	req3 := nextRequest(t, resp2)
	_, ok = m.Get(req3, "user_id")
	assert.False(t, ok)
}

func TestSignInSignOut(t *testing.T) {
	m := testManager()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	require.NoError(t, m.SignIn(resp, req, 7))

	req2 := nextRequest(t, resp)
	id, ok := m.UserID(req2)
	require.True(t, ok)
	assert.Equal(t, int64(7), id)

	resp2 := httptest.NewRecorder()
	require.NoError(t, m.SignOut(resp2, req2))

	req3 := nextRequest(t, resp2)
	_, ok = m.UserID(req3)
	assert.False(t, ok)
}

func TestFlashIsOneShot(t *testing.T) {
	m := testManager()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	require.NoError(t, m.AddFlash(resp, req, "info", "logged in"))

	req2 := nextRequest(t, resp)
	resp2 := httptest.NewRecorder()
	flashes := m.Flashes(resp2, req2)
	require.Len(t, flashes, 1)
	assert.Equal(t, "logged in", flashes[0].Message)
	assert.Equal(t, "info", flashes[0].Category)

	req3 := nextRequest(t, resp2)
	resp3 := httptest.NewRecorder()
	assert.Empty(t, m.Flashes(resp3, req3))
}

func TestForgedCookieYieldsFreshSession(t *testing.T) {
	m := testManager()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "cardgate_session", Value: "forged-by-client"})

	_, ok := m.UserID(req)
	assert.False(t, ok)
}
