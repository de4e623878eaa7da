// Package controllers turns HTTP requests into service calls. Handlers take
// a *ctx.Context and answer through the response envelope; they hold no
// business rules of their own.
package controllers

import (
	"net/http"
	"time"

	"github.com/shashiranjanraj/pehnawa/app/services"
	"github.com/shashiranjanraj/pehnawa/pkg/ctx"
)

// RefreshCookie carries the refresh token between the browser and
// /api/auth.
const RefreshCookie = "refreshToken"

type AuthController struct {
	svc        *services.AuthService
	refreshTTL time.Duration
	secure     bool
}

// NewAuthController sets the refresh cookie's lifetime to refreshTTL and
// marks it Secure when secure is true.
func NewAuthController(svc *services.AuthService, refreshTTL time.Duration, secure bool) *AuthController {
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &AuthController{svc: svc, refreshTTL: refreshTTL, secure: secure}
}

func (ac *AuthController) Register(c *ctx.Context) {
	var in services.RegisterInput
	if !c.BindJSON(&in) {
		return
	}
	sess, err := ac.svc.Register(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	ac.setRefresh(c, sess.RefreshToken, ac.refreshTTL)
	c.Created("User registered successfully", map[string]any{"user": sess.User, "accessToken": sess.AccessToken})
}

func (ac *AuthController) Login(c *ctx.Context) {
	var in services.LoginInput
	if !c.BindJSON(&in) {
		return
	}
	sess, err := ac.svc.Login(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	ac.setRefresh(c, sess.RefreshToken, ac.refreshTTL)
	c.Message("Login successful", map[string]any{"user": sess.User, "accessToken": sess.AccessToken})
}

// Refresh reads the token from the cookie first, then from the JSON body.
func (ac *AuthController) Refresh(c *ctx.Context) {
	access, err := ac.svc.Refresh(c.Context(), ac.refreshToken(c))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]any{"accessToken": access})
}

func (ac *AuthController) Logout(c *ctx.Context) {
	if err := ac.svc.Logout(c.Context(), ac.refreshToken(c)); err != nil {
		c.Fail(err)
		return
	}
	ac.setRefresh(c, "", -1)
	c.Message("Logged out successfully", nil)
}

func (ac *AuthController) Me(c *ctx.Context) {
	u, err := ac.svc.Me(c.Context(), c.UserID())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]any{"user": u})
}

func (ac *AuthController) refreshToken(c *ctx.Context) string {
	if v, err := c.Cookie(RefreshCookie); err == nil && v != "" {
		return v
	}
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if c.R.ContentLength != 0 {
		_ = c.Bind(&body)
	}
	return body.RefreshToken
}

// setRefresh writes the cookie; a negative ttl deletes it.
func (ac *AuthController) setRefresh(c *ctx.Context, token string, ttl time.Duration) {
	cookie := &http.Cookie{
		Name:     RefreshCookie,
		Value:    token,
		Path:     "/api/auth",
		HttpOnly: true,
		Secure:   ac.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		cookie.MaxAge = -1
	} else {
		cookie.MaxAge = int(ttl / time.Second)
		cookie.Expires = time.Now().Add(ttl)
	}
	c.SetCookie(cookie)
}
