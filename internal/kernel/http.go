// Package kernel assembles the HTTP handler: the global middleware stack
// around the route table.
package kernel

import (
	"net/http"

	"github.com/shashiranjanraj/pehnawa/app/routes"
	"github.com/shashiranjanraj/pehnawa/pkg/metrics"
	"github.com/shashiranjanraj/pehnawa/pkg/middleware"
	"github.com/shashiranjanraj/pehnawa/pkg/reqid"
	"github.com/shashiranjanraj/pehnawa/pkg/response"
	"github.com/shashiranjanraj/pehnawa/pkg/router"
)

type Options struct {
	CORSOrigins []string
}

// New builds the router. Global middleware, outermost first:
//
//  1. request ID, so everything after can log it
//  2. request logger
//  3. panic recovery
//  4. CORS
//  5. Prometheus HTTP metrics
func New(h routes.Handlers, opts Options) *router.Router {
	r := router.New()
	r.Use(
		reqid.Middleware,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(middleware.DefaultCORSOptions(opts.CORSOrigins...)),
		metrics.Middleware(),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	routes.RegisterAPI(r, h)
	routes.RegisterWeb(r, h)
	return r
}
