// Package ctx gives handlers a single request object with helpers for
// params, binding, the authenticated user and the response envelope.
//
//	func (pc *ProductController) Show(c *ctx.Context) {
//	    p, err := pc.svc.FindProduct(c.Context(), c.Param("idOrSlug"), c.IsAdmin())
//	    if err != nil {
//	        c.Fail(err)
//	        return
//	    }
//	    c.Success(map[string]any{"product": p})
//	}
//
//	router.Get("/products/{idOrSlug}", "products.show", ctx.Wrap(pc.Show))
package ctx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/pehnawa/pkg/apperr"
	"github.com/shashiranjanraj/pehnawa/pkg/auth"
	"github.com/shashiranjanraj/pehnawa/pkg/bind"
	"github.com/shashiranjanraj/pehnawa/pkg/orm"
	"github.com/shashiranjanraj/pehnawa/pkg/response"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap adapts h to http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

type Context struct {
	W     http.ResponseWriter
	R     *http.Request
	mu    sync.RWMutex
	store map[string]any
}

var pool = sync.Pool{
	New: func() any { return &Context{store: make(map[string]any)} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	clear(c.store)
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request ─────────────────────────────────────────────────────────────────

func (c *Context) Context() context.Context { return c.R.Context() }

func (c *Context) Param(key string) string { return chi.URLParam(c.R, key) }

// ParamID parses a numeric path parameter. Non-numeric values are a
// validation error naming the parameter.
func (c *Context) ParamID(key string) (uint, error) {
	raw := c.Param(key)
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, apperr.Validation("invalid %s %q", key, raw)
	}
	return uint(n), nil
}

func (c *Context) Query(key string) string { return strings.TrimSpace(c.R.URL.Query().Get(key)) }

func (c *Context) DefaultQuery(key, def string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return def
}

// QueryInt parses an integer query value, returning def when absent or
// malformed.
func (c *Context) QueryInt(key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}

// QueryInt64Ptr parses an optional integer filter.
func (c *Context) QueryInt64Ptr(key string) *int64 {
	n, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// QueryBoolPtr parses an optional boolean filter ("true"/"false").
func (c *Context) QueryBoolPtr(key string) *bool {
	b, err := strconv.ParseBool(c.Query(key))
	if err != nil {
		return nil
	}
	return &b
}

func (c *Context) Header(key string) string { return c.R.Header.Get(key) }

func (c *Context) Cookie(name string) (string, error) {
	cookie, err := c.R.Cookie(name)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

func (c *Context) ClientIP() string {
	if fwd := c.R.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if real := c.R.Header.Get("X-Real-Ip"); real != "" {
		return real
	}
	ip := c.R.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// ─── Authenticated user ──────────────────────────────────────────────────────

func (c *Context) Claims() (*auth.Claims, bool) { return auth.FromContext(c.R.Context()) }

// UserID returns the authenticated user's ID, or 0.
func (c *Context) UserID() uint {
	if cl, ok := c.Claims(); ok {
		return cl.UserID
	}
	return 0
}

func (c *Context) IsAdmin() bool {
	cl, ok := c.Claims()
	return ok && cl.Role == "admin"
}

// ─── Per-request store ───────────────────────────────────────────────────────

func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	c.store[key] = val
	c.mu.Unlock()
}

func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	v, ok := c.store[key]
	c.mu.RUnlock()
	return v, ok
}

func (c *Context) GetString(key string) string {
	v, _ := c.Get(key)
	s, _ := v.(string)
	return s
}

// ─── Binding ─────────────────────────────────────────────────────────────────

// Bind decodes and validates the JSON body into dest.
func (c *Context) Bind(dest any) error { return bind.JSON(c.W, c.R, dest) }

// BindJSON is Bind that answers the failure itself. Returns false when the
// handler should stop.
func (c *Context) BindJSON(dest any) bool {
	if err := c.Bind(dest); err != nil {
		c.Fail(err)
		return false
	}
	return true
}

// ─── Response ────────────────────────────────────────────────────────────────

// JSON writes v without the envelope.
func (c *Context) JSON(code int, v any) {
	c.W.Header().Set("Content-Type", "application/json")
	c.W.WriteHeader(code)
	json.NewEncoder(c.W).Encode(v) //nolint:errcheck
}

func (c *Context) Success(data any) { response.Success(c.W, data) }

func (c *Context) Message(message string, data any) { response.Message(c.W, message, data) }

func (c *Context) Created(message string, data any) { response.Created(c.W, message, data) }

func (c *Context) Paginated(key string, items any, p orm.Pagination) {
	response.Paginated(c.W, key, items, p)
}

// Fail answers err through the apperr status mapping.
func (c *Context) Fail(err error) { response.FromError(c.W, c.R, err) }

func (c *Context) Error(status int, code, message string) {
	response.Error(c.W, status, code, message)
}

func (c *Context) NotFound(message string) { response.NotFound(c.W, message) }

func (c *Context) Unauthorized(message string) { response.Unauthorized(c.W, message) }

func (c *Context) SetHeader(key, value string) { c.W.Header().Set(key, value) }

func (c *Context) SetCookie(cookie *http.Cookie) { http.SetCookie(c.W, cookie) }
