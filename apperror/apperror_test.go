package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodes(t *testing.T) {
	cases := []struct {
		err    *AppError
		status int
	}{
		{NewDatabaseError("db", nil), http.StatusInternalServerError},
		{NewConfigError("cfg", nil), http.StatusInternalServerError},
		{NewInternalError("boom", nil), http.StatusInternalServerError},
		{NewAuthError("auth", nil), http.StatusUnauthorized},
		{NewUnauthorizedError("forbidden", nil), http.StatusForbidden},
		{NewNotFoundError("missing", nil), http.StatusNotFound},
		{NewValidationError("invalid", nil), http.StatusBadRequest},
		{NewBadRequestError("bad", nil), http.StatusBadRequest},
		{NewExternalServiceError("upstream", nil), http.StatusBadGateway},
		{NewConflictError("dup", nil), http.StatusConflict},
		{NewAppError(UnknownError, "unknown", nil), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.StatusCode(), tc.err.Message)
	}
}

func TestErrorStringAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewDatabaseError("failed to query", cause)

	assert.Equal(t, "failed to query: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewNotFoundError("user not found", nil)
	assert.Equal(t, "user not found", bare.Error())
}

func TestToResponseHidesCause(t *testing.T) {
	err := NewInternalError("something went wrong", errors.New("secret detail"))
	resp := err.ToResponse()
	assert.Equal(t, "something went wrong", resp.Error)
	assert.NotContains(t, resp.Error, "secret detail")
}

func TestFromErrorUnwrapsChains(t *testing.T) {
	inner := NewConflictError("already exists", nil)
	wrapped := fmt.Errorf("while registering: %w", inner)

	appErr, ok := FromError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ConflictError, appErr.Type)

	_, ok = FromError(errors.New("plain"))
	assert.False(t, ok)
	_, ok = FromError(nil)
	assert.False(t, ok)
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFoundError("x", nil)))
	assert.True(t, IsAuthError(NewAuthError("x", nil)))
	assert.True(t, IsValidationError(NewValidationError("x", nil)))
	assert.True(t, IsConflictError(NewConflictError("x", nil)))
	assert.True(t, IsExternalServiceError(NewExternalServiceError("x", nil)))

	plain := errors.New("not an app error")
	assert.False(t, IsNotFound(plain))
	assert.False(t, IsExternalServiceError(plain))
}
