package order

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/greencrop/storefront/internal/auth"
	"github.com/greencrop/storefront/internal/presentation/http/flash"
	service "github.com/greencrop/storefront/internal/service/order"
	"github.com/greencrop/storefront/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/greencrop/storefront/transport/http/order")

const (
	profilePath  = "/perfil"
	formPath     = "/formulario_compra"
	homePath     = "/"
	loginPath    = "/login"
	msgStoreDown = "Error de conexión con la base de datos. Por favor, intenta más tarde."
)

// Handler exposes the checkout endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	requireLogin := auth.RequireLogin(loginPath)

	e.POST("/crear_pedido", h.quickCheckout, requireLogin)
	e.GET("/descargar_factura/:id", h.invoice, requireLogin)
	e.GET(formPath, h.form)
	e.POST(formPath, h.formCheckout)
}

func (h *Handler) quickCheckout(c echo.Context) error {
	ownerID, _ := auth.CurrentIdentity(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.quickCheckout", trace.WithAttributes(attribute.Int64("user.id", ownerID)))
	defer span.End()

	receipt, err := h.svc.Checkout(ctx, service.CheckoutRequest{
		OwnerID:     &ownerID,
		Total:       c.FormValue("total"),
		Payload:     c.FormValue("datos_pedido"),
		PayloadKind: service.PayloadJSON,
	})
	if err != nil {
		if fields := errorbank.From(err).Fields(); len(fields) > 0 {
			return flash.Redirect(c, flash.LevelError, "Faltan campos: "+strings.Join(fields, ", "), profilePath)
		}
		if errorbank.Is(err, errorbank.KindUnavailable) {
			return flash.Redirect(c, flash.LevelError, msgStoreDown, profilePath)
		}
		return flash.Redirect(c, flash.LevelError, "Error al crear el pedido", profilePath)
	}
	return flash.Redirect(c, flash.LevelSuccess, receipt.Message, profilePath)
}

func (h *Handler) form(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"fields":   []string{"full-name", "email", "phone", "address", "payment-method", "cart-data", "total"},
		"messages": flash.Pop(c),
	})
}

func (h *Handler) formCheckout(c echo.Context) error {
	req := service.CheckoutRequest{
		Snapshot: service.Snapshot{
			Name:          c.FormValue("full-name"),
			Email:         c.FormValue("email"),
			Phone:         c.FormValue("phone"),
			Address:       c.FormValue("address"),
			PaymentMethod: c.FormValue("payment-method"),
		},
		Total:       c.FormValue("total"),
		Payload:     c.FormValue("cart-data"),
		PayloadKind: service.PayloadOpaque,
	}
	if id, ok := auth.CurrentIdentity(c); ok {
		req.OwnerID = &id
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.formCheckout", trace.WithAttributes(attribute.Bool("order.guest", req.OwnerID == nil)))
	defer span.End()

	receipt, err := h.svc.Checkout(ctx, req)
	if err != nil {
		appErr := errorbank.From(err)
		switch {
		case len(appErr.Fields()) > 0:
			return flash.Redirect(c, flash.LevelError, "Faltan campos: "+strings.Join(appErr.Fields(), ", "), formPath)
		case appErr.Kind() == errorbank.KindUnavailable:
			return flash.Redirect(c, flash.LevelError, msgStoreDown, formPath)
		default:
			return flash.Redirect(c, flash.LevelError, "Error al procesar el pedido. Intenta nuevamente.", formPath)
		}
	}
	return flash.Redirect(c, flash.LevelSuccess, receipt.Message, homePath)
}

func (h *Handler) invoice(c echo.Context) error {
	identity, _ := auth.Current(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return flash.Redirect(c, flash.LevelError, "Pedido no encontrado", profilePath)
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.invoice", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	doc, err := h.svc.Invoice(ctx, id, identity.UserID, identity.Email)
	if err != nil {
		switch errorbank.From(err).Kind() {
		case errorbank.KindNotFound:
			return flash.Redirect(c, flash.LevelError, "Pedido no encontrado", profilePath)
		case errorbank.KindUnavailable:
			return flash.Redirect(c, flash.LevelError, "Error de conexión con la base de datos.", profilePath)
		default:
			return flash.Redirect(c, flash.LevelError, "Error al generar la factura", profilePath)
		}
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=factura_%d.pdf", id))
	return c.Blob(http.StatusOK, "application/pdf", doc)
}
