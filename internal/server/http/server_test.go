package http

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greencrop/storefront/internal/auth"
	"github.com/greencrop/storefront/internal/config"
)

func TestNewEchoAttachesRequestIDAndIdentity(t *testing.T) {
	cfg := config.Config{Auth: config.Auth{Secret: "test", CookieName: "session", TokenTTL: time.Hour}}
	manager := auth.NewManager(cfg)
	e := NewEcho(cfg, nil, manager, zap.NewNop())
	e.GET("/whoami", func(c echo.Context) error {
		id, _ := auth.CurrentIdentity(c)
		return c.String(http.StatusOK, strconv.FormatInt(id, 10))
	})

	token, err := manager.Issue(auth.Identity{UserID: 9})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "9", rec.Body.String())
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)
}

func TestNewEchoRecoversPanics(t *testing.T) {
	cfg := config.Config{Auth: config.Auth{Secret: "test", TokenTTL: time.Hour}}
	e := NewEcho(cfg, nil, auth.NewManager(cfg), zap.NewNop())
	e.GET("/boom", func(echo.Context) error { panic("boom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
