// Package site serves the diagnostic and flash endpoints shared by every page.
package site

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greencrop/storefront/internal/presentation/http/flash"
	"github.com/greencrop/storefront/internal/presentation/http/response"
)

// MessageCounter reports how many contact messages are stored.
type MessageCounter interface {
	Count(ctx context.Context) (int, error)
}

// Handler serves /health, /health/db and /flash.
type Handler struct {
	messages MessageCounter
}

// NewHandler constructs a site Handler.
func NewHandler(messages MessageCounter) *Handler {
	return &Handler{messages: messages}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/health", h.health)
	e.GET("/health/db", h.database)
	e.GET("/flash", h.flash)
}

func (h *Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) database(c echo.Context) error {
	b := response.New(c)
	n, err := h.messages.Count(c.Request().Context())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]any{"status": "ok", "contact_messages": n}).Build()
}

func (h *Handler) flash(c echo.Context) error {
	messages := flash.Pop(c)
	if messages == nil {
		messages = []flash.Message{}
	}
	return c.JSON(http.StatusOK, messages)
}
