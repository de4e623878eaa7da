package controllers

import (
	"github.com/shashiranjanraj/pehnawa/app/services"
	"github.com/shashiranjanraj/pehnawa/pkg/ctx"
)

type UserController struct {
	auth *services.AuthService
}

func NewUserController(auth *services.AuthService) *UserController {
	return &UserController{auth: auth}
}

func (uc *UserController) Index(c *ctx.Context) {
	users, p, err := uc.auth.ListUsers(c.Context(), c.QueryInt("page", 1), c.QueryInt("limit", 20))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated("users", users, p)
}

func (uc *UserController) UpdateRole(c *ctx.Context) {
	id, err := c.ParamID("id")
	if err != nil {
		c.Fail(err)
		return
	}
	var in services.RoleInput
	if !c.BindJSON(&in) {
		return
	}
	u, err := uc.auth.ChangeRole(c.Context(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Message("User role updated successfully", map[string]any{"user": u})
}
