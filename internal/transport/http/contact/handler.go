package contact

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/greencrop/storefront/internal/presentation/http/flash"
	service "github.com/greencrop/storefront/internal/service/contact"
	"github.com/greencrop/storefront/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/greencrop/storefront/transport/http/contact")

const contactPath = "/contact"

// Handler accepts contact form submissions.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a contact Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.POST(contactPath, h.submit)
}

func (h *Handler) submit(c echo.Context) error {
	ctx, span := httpTracer.Start(c.Request().Context(), "contact.submit")
	defer span.End()

	_, err := h.svc.Submit(ctx, service.Message{
		Name:     c.FormValue("name"),
		Email:    c.FormValue("email"),
		Body:     c.FormValue("message"),
		ClientIP: c.RealIP(),
	})
	if err != nil {
		switch errorbank.From(err).Kind() {
		case errorbank.KindUnprocessableEntity:
			return flash.Redirect(c, flash.LevelError, "Por favor, completa todos los campos.", contactPath)
		case errorbank.KindTooManyRequests:
			return flash.Redirect(c, flash.LevelError, "Ya enviaste un mensaje hace poco. Intenta nuevamente en unos segundos.", contactPath)
		case errorbank.KindUnavailable:
			return flash.Redirect(c, flash.LevelError, "Error de conexión con la base de datos. Por favor, intenta más tarde.", contactPath)
		default:
			return flash.Redirect(c, flash.LevelError, "Error inesperado. Por favor, intenta nuevamente.", contactPath)
		}
	}
	return flash.Redirect(c, flash.LevelSuccess, "¡Mensaje enviado correctamente! Nos pondremos en contacto contigo pronto.", contactPath)
}
