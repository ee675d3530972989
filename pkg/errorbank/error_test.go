package errorbank

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestStatusAndGRPCCodes(t *testing.T) {
	cases := []struct {
		err    *AppError
		status int
		code   codes.Code
	}{
		{BadRequest("x"), http.StatusBadRequest, codes.InvalidArgument},
		{Unauthorized("x"), http.StatusUnauthorized, codes.Unauthenticated},
		{Conflict("x"), http.StatusConflict, codes.AlreadyExists},
		{NotFound("x"), http.StatusNotFound, codes.NotFound},
		{Validation([]string{"total"}), http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{TooManyRequests("x"), http.StatusTooManyRequests, codes.ResourceExhausted},
		{Unavailable("x"), http.StatusServiceUnavailable, codes.Unavailable},
		{Internal("x"), http.StatusInternalServerError, codes.Internal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.StatusCode(), tc.err.Kind())
		assert.Equal(t, tc.code, tc.err.GRPCCode(), tc.err.Kind())
	}
}

func TestValidationFields(t *testing.T) {
	err := Validation([]string{"email", "total"})

	assert.Equal(t, []string{"email", "total"}, err.Fields())
	assert.Equal(t, "missing fields: email, total", err.Message())
	assert.True(t, Is(err, KindUnprocessableEntity))
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("boom")

	appErr := From(cause)
	require.NotNil(t, appErr)
	assert.Equal(t, KindInternal, appErr.Kind())
	assert.ErrorIs(t, appErr, cause)

	wrapped := NotFound("order not found")
	assert.Same(t, wrapped, From(wrapped))
	assert.Nil(t, From(nil))
}

func TestGRPCStatusHidesInternalCauses(t *testing.T) {
	st, ok := status.FromError(Internal("failed to create order", WithCause(errors.New("dial tcp 10.0.0.3:3306"))))
	require.True(t, ok)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal error", st.Message())

	st, ok = status.FromError(NotFound("order not found"))
	require.True(t, ok)
	assert.Equal(t, codes.NotFound, st.Code())
	assert.Equal(t, "order not found", st.Message())
}

func TestNewFallsBackToInternalForUnknownKinds(t *testing.T) {
	err := New(Kind("teapot"), "")
	assert.Equal(t, KindInternal, err.Kind())
	assert.Equal(t, http.StatusInternalServerError, err.StatusCode())
	assert.Equal(t, "internal", err.Message())
}
