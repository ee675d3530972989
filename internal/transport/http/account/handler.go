package account

import (
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/greencrop/storefront/internal/auth"
	"github.com/greencrop/storefront/internal/presentation/http/flash"
	"github.com/greencrop/storefront/internal/presentation/http/response"
	service "github.com/greencrop/storefront/internal/service/account"
	"github.com/greencrop/storefront/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/greencrop/storefront/transport/http/account")

const (
	registerPath = "/registro"
	loginPath    = "/login"
	profilePath  = "/perfil"
	productsPath = "/productos"
	msgStoreDown = "Error de conexión con la base de datos."
)

// Handler exposes account and profile endpoints.
type Handler struct {
	svc  *service.Service
	auth *auth.Manager
}

// NewHandler constructs an account Handler.
func NewHandler(svc *service.Service, manager *auth.Manager) *Handler {
	return &Handler{svc: svc, auth: manager}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	requireLogin := auth.RequireLogin(loginPath)

	e.POST(registerPath, h.register)
	e.POST(loginPath, h.login)
	e.GET("/logout", h.logout, requireLogin)
	e.GET(profilePath, h.profile, requireLogin)
	e.POST("/agregar_direccion", h.addAddress, requireLogin)
	e.POST("/agregar_favorito/:producto_id", h.addFavorite, requireLogin)
	e.POST("/eliminar_favorito/:item_id", h.removeFavorite, requireLogin)
	e.POST("/actualizar_preferencias", h.updatePreferences, requireLogin)
}

func (h *Handler) register(c echo.Context) error {
	ctx, span := httpTracer.Start(c.Request().Context(), "account.register")
	defer span.End()

	_, err := h.svc.Register(ctx, service.RegisterInput{
		Email:           c.FormValue("email"),
		Phone:           c.FormValue("telefono"),
		Password:        c.FormValue("password"),
		ConfirmPassword: c.FormValue("confirm_password"),
	})
	if err != nil {
		return flash.Redirect(c, flash.LevelError, registerError(err), registerPath)
	}
	return flash.Redirect(c, flash.LevelSuccess, "¡Registro exitoso! Ahora puedes iniciar sesión.", loginPath)
}

func registerError(err error) string {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		return "Completa todos los campos."
	case errors.Is(err, service.ErrPasswordMismatch):
		return "Las contraseñas no coinciden."
	case errors.Is(err, service.ErrPasswordTooShort):
		return "La contraseña debe tener al menos 6 caracteres."
	case errors.Is(err, service.ErrEmailTaken):
		return "El correo ya está registrado."
	case errorbank.Is(err, errorbank.KindUnavailable):
		return msgStoreDown
	default:
		return "Error al registrar. Intenta nuevamente."
	}
}

func (h *Handler) login(c echo.Context) error {
	ctx, span := httpTracer.Start(c.Request().Context(), "account.login")
	defer span.End()

	user, err := h.svc.Authenticate(ctx, c.FormValue("email"), c.FormValue("password"))
	if err != nil {
		if errorbank.Is(err, errorbank.KindUnavailable) {
			return flash.Redirect(c, flash.LevelError, msgStoreDown, loginPath)
		}
		return flash.Redirect(c, flash.LevelError, "Correo o contraseña incorrectos", loginPath)
	}

	if err := h.auth.SignIn(c, auth.Identity{UserID: user.ID, Email: user.Email}); err != nil {
		return response.New(c).WithError(errorbank.Internal("failed to sign in", errorbank.WithCause(err))).Build()
	}
	return flash.Redirect(c, flash.LevelSuccess, "Inicio de sesión exitoso", profilePath)
}

func (h *Handler) logout(c echo.Context) error {
	h.auth.SignOut(c)
	return flash.Redirect(c, flash.LevelInfo, "Has cerrado sesión correctamente", loginPath)
}

func (h *Handler) profile(c echo.Context) error {
	b := response.New(c)
	userID, _ := auth.CurrentIdentity(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "account.profile", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	profile, err := h.svc.Profile(ctx, userID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(profile).WithMessages().Build()
}

func (h *Handler) addAddress(c echo.Context) error {
	userID, _ := auth.CurrentIdentity(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "account.addAddress")
	defer span.End()

	err := h.svc.AddAddress(ctx, userID, service.AddressInput{
		Alias:      c.FormValue("alias"),
		Street:     c.FormValue("calle"),
		City:       c.FormValue("ciudad"),
		State:      c.FormValue("estado"),
		PostalCode: c.FormValue("codigo_postal"),
		Country:    c.FormValue("pais"),
		Primary:    checked(c, "es_principal"),
	})
	if err != nil {
		if fields := errorbank.From(err).Fields(); len(fields) > 0 {
			return flash.Redirect(c, flash.LevelError, "Faltan campos: "+strings.Join(fields, ", "), profilePath)
		}
		return flash.Redirect(c, flash.LevelError, "Error al agregar la dirección", profilePath)
	}
	return flash.Redirect(c, flash.LevelSuccess, "Dirección agregada exitosamente", profilePath)
}

func (h *Handler) addFavorite(c echo.Context) error {
	userID, _ := auth.CurrentIdentity(c)
	back := c.Request().Referer()
	if back == "" {
		back = productsPath
	}

	productID, err := strconv.ParseInt(c.Param("producto_id"), 10, 64)
	if err != nil {
		return flash.Redirect(c, flash.LevelError, "Error al agregar a favoritos", back)
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "account.addFavorite", trace.WithAttributes(attribute.Int64("product.id", productID)))
	defer span.End()

	added, err := h.svc.AddFavorite(ctx, userID, productID)
	switch {
	case err != nil:
		return flash.Redirect(c, flash.LevelError, "Error al agregar a favoritos", back)
	case !added:
		return flash.Redirect(c, flash.LevelInfo, "El producto ya está en tu lista de favoritos", back)
	default:
		return flash.Redirect(c, flash.LevelSuccess, "Producto agregado a favoritos", back)
	}
}

func (h *Handler) removeFavorite(c echo.Context) error {
	userID, _ := auth.CurrentIdentity(c)

	itemID, err := strconv.ParseInt(c.Param("item_id"), 10, 64)
	if err != nil {
		return flash.Redirect(c, flash.LevelError, "Error al eliminar de favoritos", profilePath)
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "account.removeFavorite")
	defer span.End()

	if err := h.svc.RemoveFavorite(ctx, userID, itemID); err != nil {
		return flash.Redirect(c, flash.LevelError, "Error al eliminar de favoritos", profilePath)
	}
	return flash.Redirect(c, flash.LevelSuccess, "Producto eliminado de favoritos", profilePath)
}

func (h *Handler) updatePreferences(c echo.Context) error {
	userID, _ := auth.CurrentIdentity(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "account.updatePreferences")
	defer span.End()

	err := h.svc.UpdatePreferences(ctx, userID,
		checked(c, "email_notificaciones"),
		checked(c, "sms_notificaciones"),
		checked(c, "emails_promocionales"),
	)
	if err != nil {
		return flash.Redirect(c, flash.LevelError, "Error al actualizar preferencias", profilePath)
	}
	return flash.Redirect(c, flash.LevelSuccess, "Preferencias actualizadas exitosamente", profilePath)
}

// checked reports whether a checkbox was submitted.
func checked(c echo.Context, name string) bool {
	form, err := c.FormParams()
	if err != nil {
		return false
	}
	_, ok := form[name]
	return ok
}
