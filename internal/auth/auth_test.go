package auth

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greencrop/storefront/internal/config"
)

func newManager() *Manager {
	return NewManager(config.Config{Auth: config.Auth{Secret: "s3cret", CookieName: "session", TokenTTL: time.Hour}})
}

func TestIssueAndParse(t *testing.T) {
	m := newManager()
	token, err := m.Issue(Identity{UserID: 7, Email: "ana@example.com"})
	require.NoError(t, err)

	id, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 7, Email: "ana@example.com"}, id)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	other := NewManager(config.Config{Auth: config.Auth{Secret: "other", TokenTTL: time.Hour}})
	token, err := other.Issue(Identity{UserID: 7})
	require.NoError(t, err)

	_, err = newManager().Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredTokens(t *testing.T) {
	m := newManager()
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.Issue(Identity{UserID: 7})
	require.NoError(t, err)

	_, err = newManager().Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddlewareAndRequireLogin(t *testing.T) {
	m := newManager()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/perfil", func(c echo.Context) error {
		id, ok := CurrentIdentity(c)
		require.True(t, ok)
		return c.String(http.StatusOK, "user "+strconv.FormatInt(id, 10))
	}, RequireLogin("/login"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/perfil", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))

	token, err := m.Issue(Identity{UserID: 7})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/perfil", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user 7", rec.Body.String())
}

func TestSignInAndOut(t *testing.T) {
	m := newManager()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/login", nil), httptest.NewRecorder())

	require.NoError(t, m.SignIn(c, Identity{UserID: 3, Email: "a@b.pe"}))
	assert.True(t, IsAuthenticated(c))

	m.SignOut(c)
	assert.False(t, IsAuthenticated(c))
}
