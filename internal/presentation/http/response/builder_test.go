package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greencrop/storefront/internal/presentation/http/flash"
	"github.com/greencrop/storefront/pkg/errorbank"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestBuildSuccessCarriesRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/perfil", nil), rec)
	c.Response().Header().Set(echo.HeaderXRequestID, "req-42")

	require.NoError(t, New(c).WithStatus(http.StatusCreated).WithData(map[string]int{"id": 7}).Build())

	assert.Equal(t, http.StatusCreated, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Nil(t, env.Error)
	assert.Equal(t, "req-42", env.Meta["request_id"])
}

func TestBuildValidationErrorListsFields(t *testing.T) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/formulario_compra", nil), rec)

	require.NoError(t, New(c).WithError(errorbank.Validation([]string{"nombre", "total"})).Build())

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "unprocessable_entity", env.Error.Kind)
	assert.Equal(t, []string{"nombre", "total"}, env.Error.Fields)
	assert.Nil(t, env.Meta)
}

func TestBuildHidesInternalMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/perfil", nil), rec)

	require.NoError(t, New(c).WithError(errors.New("dial tcp 10.0.0.3:3306: refused")).Build())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, internalMessage, env.Error.Message)
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
}

func TestWithMessagesDrainsFlash(t *testing.T) {
	src := httptest.NewRecorder()
	flash.Add(echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/login", nil), src), flash.LevelSuccess, "Inicio de sesión exitoso")

	req := httptest.NewRequest(http.MethodGet, "/perfil", nil)
	for _, ck := range src.Result().Cookies() {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, New(echo.New().NewContext(req, rec)).WithMessages().Build())
	assert.JSONEq(t, `{"success":true,"meta":{"messages":[{"level":"success","message":"Inicio de sesión exitoso"}]}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	require.NoError(t, New(echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/perfil", nil), rec)).WithMessages().Build())
	assert.JSONEq(t, `{"success":true,"meta":{"messages":[]}}`, rec.Body.String())
}
