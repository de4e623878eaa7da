package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/pehnawa/pkg/apperr"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestFromError_DomainKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperr.InsufficientStock("only 2 left"), http.StatusBadRequest, "INSUFFICIENT_STOCK"},
		{fmt.Errorf("wrap: %w", apperr.NotFound("order not found")), http.StatusNotFound, "NOT_FOUND"},
		{apperr.Conflict("cannot move shipped order to pending"), http.StatusConflict, "CONFLICT"},
		{apperr.EmptyCart("cart is empty"), http.StatusBadRequest, "EMPTY_CART"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		FromError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)

		assert.Equal(t, tc.status, rec.Code)
		env := decode(t, rec)
		assert.False(t, env.Success)
		require.NotNil(t, env.Error)
		assert.Equal(t, tc.code, env.Error.Code)
	}
}

func TestFromError_ValidationFields(t *testing.T) {
	rec := httptest.NewRecorder()
	FromError(rec, httptest.NewRequest(http.MethodPost, "/", nil),
		apperr.ValidationFields(map[string]string{"email": "email is required"}))

	env := decode(t, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email is required", env.Error.Fields["email"])
}

func TestFromError_UnknownIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	FromError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("connection reset"))

	env := decode(t, rec)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
	assert.Equal(t, "Internal server error", env.Message)
}

func TestSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, "Order placed", map[string]int{"id": 7})

	env := decode(t, rec)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Order placed", env.Message)
	assert.Nil(t, env.Error)
}
