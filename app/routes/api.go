// Package routes declares every HTTP route of the storefront.
package routes

import (
	"net/http"

	"github.com/shashiranjanraj/pehnawa/app/controllers"
	"github.com/shashiranjanraj/pehnawa/pkg/auth"
	"github.com/shashiranjanraj/pehnawa/pkg/ctx"
	"github.com/shashiranjanraj/pehnawa/pkg/middleware"
	"github.com/shashiranjanraj/pehnawa/pkg/rbac"
	"github.com/shashiranjanraj/pehnawa/pkg/router"
)

// Handlers are the controllers and raw handlers the route table points at.
// Raw handlers left nil are not mounted.
type Handlers struct {
	Issuer *auth.Issuer

	Auth        *controllers.AuthController
	Products    *controllers.ProductController
	Categories  *controllers.CategoryController
	Collections *controllers.CollectionController
	Cart        *controllers.CartController
	Orders      *controllers.OrderController
	Users       *controllers.UserController
	Admin       *controllers.AdminController
	Health      *controllers.HealthController

	// AuthLimiter throttles login and registration per client.
	AuthLimiter *middleware.RateLimiter

	GraphQL http.Handler
	Stock   http.Handler
	Metrics http.Handler
	Storage http.Handler
}

// RegisterAPI mounts the /api tree.
func RegisterAPI(r *router.Router, h Handlers) {
	w := ctx.Wrap

	authed := middleware.Authenticate(h.Issuer)
	admin := []router.Middleware{authed, rbac.Admin}
	var throttle []router.Middleware
	if h.AuthLimiter != nil {
		throttle = append(throttle, h.AuthLimiter.Middleware)
	}

	api := r.Group("/api")
	api.Get("/health", "health", w(h.Health.Show))

	// Auth
	a := api.Group("/auth")
	a.Post("/register", "auth.register", w(h.Auth.Register), throttle...)
	a.Post("/login", "auth.login", w(h.Auth.Login), throttle...)
	a.Post("/refresh", "auth.refresh", w(h.Auth.Refresh))
	a.Post("/logout", "auth.logout", w(h.Auth.Logout))
	a.Get("/me", "auth.me", w(h.Auth.Me), authed)

	// Catalog
	public := api.Group("", middleware.OptionalAuth(h.Issuer))
	public.Get("/products", "products.index", w(h.Products.Index))
	public.Get("/products/featured", "products.featured", w(h.Products.Featured))
	public.Get("/products/{idOrSlug}", "products.show", w(h.Products.Show))
	public.Get("/categories", "categories.index", w(h.Categories.Index))
	public.Get("/categories/{idOrSlug}", "categories.show", w(h.Categories.Show))
	public.Get("/collections", "collections.index", w(h.Collections.Index))
	public.Get("/collections/{idOrSlug}", "collections.show", w(h.Collections.Show))

	manage := api.Group("", admin...)
	manage.Post("/products", "products.store", w(h.Products.Store))
	manage.Put("/products/{id}", "products.update", w(h.Products.Update))
	manage.Delete("/products/{id}", "products.destroy", w(h.Products.Destroy))
	manage.Post("/products/{id}/images", "products.images.store", w(h.Products.UploadImage))
	manage.Delete("/products/{id}/images/{imageId}", "products.images.destroy", w(h.Products.DeleteImage))
	manage.Post("/categories", "categories.store", w(h.Categories.Store))
	manage.Put("/categories/{id}", "categories.update", w(h.Categories.Update))
	manage.Delete("/categories/{id}", "categories.destroy", w(h.Categories.Destroy))
	manage.Post("/collections", "collections.store", w(h.Collections.Store))
	manage.Put("/collections/{id}", "collections.update", w(h.Collections.Update))
	manage.Delete("/collections/{id}", "collections.destroy", w(h.Collections.Destroy))

	// Cart and account orders
	user := api.Group("", authed)
	user.Get("/cart", "cart.show", w(h.Cart.Show))
	user.Post("/cart/items", "cart.items.store", w(h.Cart.AddItem))
	user.Put("/cart/items/{id}", "cart.items.update", w(h.Cart.UpdateItem))
	user.Delete("/cart/items/{id}", "cart.items.destroy", w(h.Cart.RemoveItem))
	user.Delete("/cart", "cart.clear", w(h.Cart.Clear))
	user.Post("/orders", "orders.store", w(h.Orders.Store))
	user.Get("/orders", "orders.index", w(h.Orders.Index))
	user.Get("/orders/{id}", "orders.show", w(h.Orders.Show))

	manage.Get("/orders/admin/all", "orders.admin", w(h.Orders.AdminIndex))
	manage.Put("/orders/{id}/status", "orders.status", w(h.Orders.UpdateStatus))

	// Guest checkout
	api.Post("/guest-orders", "guest-orders.store", w(h.Orders.GuestStore))
	manage.Get("/guest-orders/admin", "guest-orders.admin", w(h.Orders.GuestAdminIndex))

	// Administration
	manage.Get("/users", "users.index", w(h.Users.Index))
	manage.Put("/users/{id}/role", "users.role", w(h.Users.UpdateRole))
	manage.Get("/admin/dashboard", "admin.dashboard", w(h.Admin.Dashboard))
	manage.Get("/admin/analytics/sales", "admin.sales", w(h.Admin.Sales))
	manage.Get("/admin/orders/stream", "admin.orders.stream", w(h.Admin.Stream))
}

// RegisterWeb mounts the non-JSON endpoints: GraphQL, the stock socket,
// Prometheus and the local file disk.
func RegisterWeb(r *router.Router, h Handlers) {
	if h.GraphQL != nil {
		r.Get("/graphql", "graphql.query", h.GraphQL.ServeHTTP, middleware.OptionalAuth(h.Issuer))
		r.Post("/graphql", "graphql", h.GraphQL.ServeHTTP, middleware.OptionalAuth(h.Issuer))
	}
	if h.Stock != nil {
		r.Get("/ws/stock", "ws.stock", h.Stock.ServeHTTP)
	}
	if h.Metrics != nil {
		r.Get("/metrics", "metrics", h.Metrics.ServeHTTP)
	}
	if h.Storage != nil {
		r.Mount("/storage", "storage", h.Storage)
	}
}
