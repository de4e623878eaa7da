package bind

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/pehnawa/pkg/apperr"
)

type addItem struct {
	ProductID uint `json:"productId" validate:"required"`
	Quantity  int  `json:"quantity"  validate:"required,gte=1"`
}

func TestJSON_Valid(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"productId":3,"quantity":2}`))

	var in addItem
	require.NoError(t, JSON(httptest.NewRecorder(), req, &in))
	assert.Equal(t, uint(3), in.ProductID)
}

func TestJSON_FieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"productId":3,"quantity":0}`))

	err := JSON(httptest.NewRecorder(), req, &addItem{})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, e.Kind)
	assert.Contains(t, e.Fields, "quantity")
}

func TestJSON_Malformed(t *testing.T) {
	for _, body := range []string{"", "{not json"} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		err := JSON(httptest.NewRecorder(), req, &addItem{})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), body)
	}
}

func TestJSON_TooLarge(t *testing.T) {
	t.Setenv("MAX_BODY_BYTES", "16")
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"productId":1,"quantity":1,"pad":"xxxxxxxxxxxxxxxx"}`))

	err := JSON(httptest.NewRecorder(), req, &addItem{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}
