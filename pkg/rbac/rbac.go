// Package rbac gates routes on the role carried by the access token.
package rbac

import (
	"net/http"

	"github.com/shashiranjanraj/pehnawa/pkg/middleware"
	"github.com/shashiranjanraj/pehnawa/pkg/response"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// HasRole allows only the listed roles. middleware.Authenticate must run
// first; a request without claims is answered 401, a wrong role 403.
func HasRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := middleware.RoleFromCtx(r)
			if !ok {
				response.Unauthorized(w, "")
				return
			}
			if !allowed[role] {
				response.Error(w, http.StatusForbidden, "FORBIDDEN", "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Admin is HasRole(RoleAdmin).
func Admin(next http.Handler) http.Handler {
	return HasRole(RoleAdmin)(next)
}
