package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/pehnawa/pkg/apperr"
)

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("place order: %w", apperr.InsufficientStock("only %d left", 2))

	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
	assert.True(t, errors.Is(err, apperr.ErrInsufficientStock))
	assert.False(t, errors.Is(err, apperr.ErrNotFound))
}

func TestKindOf_Foreign(t *testing.T) {
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(errors.New("boom")))
}

func TestStatusMapping(t *testing.T) {
	cases := map[apperr.Kind]int{
		apperr.KindValidation:        http.StatusBadRequest,
		apperr.KindNotFound:          http.StatusNotFound,
		apperr.KindUnauthorized:      http.StatusUnauthorized,
		apperr.KindForbidden:         http.StatusForbidden,
		apperr.KindInsufficientStock: http.StatusBadRequest,
		apperr.KindEmptyCart:         http.StatusBadRequest,
		apperr.KindConflict:          http.StatusConflict,
		apperr.KindInternal:          http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.Status(), kind.Code())
	}
}

func TestInternal_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := apperr.Internal(cause, "save product")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "save product: disk full", err.Error())
}
