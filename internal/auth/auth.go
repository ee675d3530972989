// Package auth issues and verifies the signed identity cookie and exposes the
// current identity to handlers.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/greencrop/storefront/internal/config"
	"github.com/greencrop/storefront/internal/presentation/http/flash"
)

const identityKey = "auth.identity"

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid identity token")

// Identity is the authenticated user attached to a request.
type Identity struct {
	UserID int64
	Email  string
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Module provides the auth manager to Fx.
var Module = fx.Provide(NewManager)

// Manager signs identities into cookies and reads them back.
type Manager struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	now        func() time.Time
}

// NewManager builds a Manager from the auth settings.
func NewManager(cfg config.Config) *Manager {
	return &Manager{
		secret:     []byte(cfg.Auth.Secret),
		cookieName: cfg.Auth.CookieName,
		ttl:        cfg.Auth.TokenTTL,
		secure:     cfg.Auth.Secure,
		now:        time.Now,
	}
}

// Issue signs a token for id.
func (m *Manager) Issue(id Identity) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	return token.SignedString(m.secret)
}

// Parse verifies a token and returns the identity it carries.
func (m *Manager) Parse(raw string) (Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: id, Email: c.Email}, nil
}

// SignIn sets the identity cookie on the response.
func (m *Manager) SignIn(c echo.Context, id Identity) error {
	token, err := m.Issue(id)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(identityKey, id)
	return nil
}

// SignOut clears the identity cookie.
func (m *Manager) SignOut(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(identityKey, nil)
}

// Middleware attaches the identity of a valid cookie to the request. Requests
// without one continue as guests.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cookie, err := c.Cookie(m.cookieName); err == nil && cookie.Value != "" {
				if id, err := m.Parse(cookie.Value); err == nil {
					c.Set(identityKey, id)
				}
			}
			return next(c)
		}
	}
}

// RequireLogin sends guests to the login page.
func RequireLogin(loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !IsAuthenticated(c) {
				return flash.Redirect(c, flash.LevelInfo, "Por favor inicia sesión para continuar.", loginPath)
			}
			return next(c)
		}
	}
}

// Current returns the identity attached to the request.
func Current(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok && id.UserID > 0
}

// CurrentIdentity returns the authenticated user id, if any.
func CurrentIdentity(c echo.Context) (int64, bool) {
	id, ok := Current(c)
	return id.UserID, ok
}

// IsAuthenticated reports whether the request carries a valid identity.
func IsAuthenticated(c echo.Context) bool {
	_, ok := Current(c)
	return ok
}
