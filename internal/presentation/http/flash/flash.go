// Package flash carries one-shot user messages across a redirect in a
// short-lived cookie.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	cookieName = "flash"
	maxAge     = 5 * time.Minute
)

// Level classifies a message for display.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Message is a single flash entry.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"message"`
}

// Add appends a message to the ones pending for the next request.
func Add(c echo.Context, level Level, text string) {
	messages := append(pending(c), Message{Level: level, Text: text})
	raw, err := json.Marshal(messages)
	if err != nil {
		return
	}
	c.Set(cookieName, messages)
	c.SetCookie(&http.Cookie{
		Name:     cookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Redirect stores a message and redirects to target.
func Redirect(c echo.Context, level Level, text, target string) error {
	Add(c, level, text)
	return c.Redirect(http.StatusFound, target)
}

// Pop returns the pending messages and clears them.
func Pop(c echo.Context) []Message {
	messages := pending(c)
	c.Set(cookieName, []Message(nil))
	c.SetCookie(&http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return messages
}

// pending prefers messages added during this request over the cookie sent
// by the client.
func pending(c echo.Context) []Message {
	if messages, ok := c.Get(cookieName).([]Message); ok {
		return messages
	}
	cookie, err := c.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var messages []Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil
	}
	return messages
}
