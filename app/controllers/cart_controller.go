package controllers

import (
	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/app/resources"
	"github.com/shashiranjanraj/pehnawa/app/services"
	"github.com/shashiranjanraj/pehnawa/pkg/ctx"
)

type CartController struct {
	carts *services.CartService
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{carts: carts}
}

func (cc *CartController) Show(c *ctx.Context) {
	cart, err := cc.carts.GetOrCreateCart(c.Context(), c.UserID())
	cc.respond(c, "", cart, err)
}

func (cc *CartController) AddItem(c *ctx.Context) {
	var in services.AddItemInput
	if !c.BindJSON(&in) {
		return
	}
	cart, err := cc.carts.AddItem(c.Context(), c.UserID(), in)
	cc.respond(c, "Item added to cart", cart, err)
}

func (cc *CartController) UpdateItem(c *ctx.Context) {
	itemID, err := c.ParamID("id")
	if err != nil {
		c.Fail(err)
		return
	}
	var in struct {
		Quantity int `json:"quantity" validate:"required"`
	}
	if !c.BindJSON(&in) {
		return
	}
	cart, err := cc.carts.UpdateItemQuantity(c.Context(), c.UserID(), itemID, in.Quantity)
	cc.respond(c, "Cart updated", cart, err)
}

func (cc *CartController) RemoveItem(c *ctx.Context) {
	itemID, err := c.ParamID("id")
	if err != nil {
		c.Fail(err)
		return
	}
	cart, err := cc.carts.RemoveItem(c.Context(), c.UserID(), itemID)
	cc.respond(c, "Item removed from cart", cart, err)
}

func (cc *CartController) Clear(c *ctx.Context) {
	cart, err := cc.carts.Clear(c.Context(), c.UserID())
	cc.respond(c, "Cart cleared", cart, err)
}

func (cc *CartController) respond(c *ctx.Context, msg string, cart *models.Cart, err error) {
	if err != nil {
		c.Fail(err)
		return
	}
	c.Message(msg, map[string]any{"cart": resources.NewCart(cart)})
}
