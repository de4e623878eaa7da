package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tag(value string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Chain", value)
			next.ServeHTTP(w, r)
		})
	}
}

func TestGroup_MiddlewareOrderAndParams(t *testing.T) {
	r := New()
	api := r.Group("/api", tag("api"))
	admin := api.Group("/admin", tag("admin"))
	admin.Put("/orders/{id}/status", "orders.status", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(chi.URLParam(req, "id")))
	}, tag("route"))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/admin/orders/17/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "17", rec.Body.String())
	assert.Equal(t, []string{"api", "admin", "route"}, rec.Header().Values("X-Chain"))
}

func TestURL(t *testing.T) {
	r := New()
	r.Group("/api").Get("/products/{idOrSlug}", "products.show", func(http.ResponseWriter, *http.Request) {})

	url, err := r.URL("products.show", map[string]string{"idOrSlug": "lawn-suit"})
	require.NoError(t, err)
	assert.Equal(t, "/api/products/lawn-suit", url)

	_, err = r.URL("products.show", nil)
	assert.Error(t, err)

	_, err = r.URL("missing", nil)
	assert.Error(t, err)
}

func TestRoutes_Sorted(t *testing.T) {
	r := New()
	noop := func(http.ResponseWriter, *http.Request) {}
	cart := r.Group("/api/cart")
	cart.Delete("/", "cart.clear", noop)
	cart.Get("/", "cart.show", noop)
	r.Post("/api/auth/login", "auth.login", noop)

	routes := r.Routes()
	require.Len(t, routes, 3)
	assert.Equal(t, RouteInfo{Method: "POST", Path: "/api/auth/login", Name: "auth.login"}, routes[0])
	assert.Equal(t, "DELETE", routes[1].Method)
	assert.Equal(t, "GET", routes[2].Method)
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "/", joinPath("", "/"))
	assert.Equal(t, "/api/orders", joinPath("/api/", "/orders/"))
}
