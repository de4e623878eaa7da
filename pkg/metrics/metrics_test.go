package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordOrderPlaced(t *testing.T) {
	before := testutil.ToFloat64(OrdersPlaced.WithLabelValues("cash_on_delivery", "guest"))
	revenue := testutil.ToFloat64(OrderRevenue)

	RecordOrderPlaced(context.Background(), "cash_on_delivery", true, 3150)

	assert.Equal(t, before+1, testutil.ToFloat64(OrdersPlaced.WithLabelValues("cash_on_delivery", "guest")))
	assert.Equal(t, revenue+3150, testutil.ToFloat64(OrderRevenue))
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/products/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/42", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(RequestTotal.WithLabelValues("GET", "/api/products/{id}", "418")))
}

func TestParseHeaders(t *testing.T) {
	h := parseHeaders("signoz-ingestion-key=abc, x-team = shop,broken")
	assert.Equal(t, map[string]string{"signoz-ingestion-key": "abc", "x-team": "shop"}, h)
}

func TestSetLowStock(t *testing.T) {
	SetLowStock(context.Background(), 7)
	assert.Equal(t, float64(7), testutil.ToFloat64(LowStockProducts))
}
