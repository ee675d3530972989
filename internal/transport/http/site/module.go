package site

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	contactservice "github.com/greencrop/storefront/internal/service/contact"
)

// Module wires the site handler; the contact service doubles as the store health check.
var Module = fx.Options(
	fx.Provide(func(svc *contactservice.Service) *Handler {
		return NewHandler(svc)
	}),
	fx.Invoke(func(e *echo.Echo, h *Handler) {
		Register(e, h)
	}),
)
