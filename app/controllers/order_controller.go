package controllers

import (
	"github.com/shashiranjanraj/pehnawa/app/repositories"
	"github.com/shashiranjanraj/pehnawa/app/resources"
	"github.com/shashiranjanraj/pehnawa/app/services"
	"github.com/shashiranjanraj/pehnawa/pkg/ctx"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// Store checks out the caller's cart.
func (oc *OrderController) Store(c *ctx.Context) {
	var in services.PlaceOrderInput
	if !c.BindJSON(&in) {
		return
	}
	placed, err := oc.orders.PlaceOrder(c.Context(), c.UserID(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created("Order placed successfully", map[string]any{
		"order":        resources.NewOrder(placed.Order),
		"clientSecret": placed.ClientSecret,
	})
}

func (oc *OrderController) Index(c *ctx.Context) {
	orders, p, err := oc.orders.ListUserOrders(c.Context(), c.UserID(), c.QueryInt("page", 1), c.QueryInt("limit", 10))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated("orders", resources.Orders(orders), p)
}

func (oc *OrderController) Show(c *ctx.Context) {
	id, err := c.ParamID("id")
	if err != nil {
		c.Fail(err)
		return
	}
	o, err := oc.orders.GetUserOrder(c.Context(), c.UserID(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]any{"order": resources.NewOrder(o)})
}

func (oc *OrderController) AdminIndex(c *ctx.Context) {
	f := repositories.OrderFilter{Status: c.Query("status"), Guest: c.QueryBoolPtr("guest")}
	oc.adminList(c, f)
}

func (oc *OrderController) adminList(c *ctx.Context, f repositories.OrderFilter) {
	orders, p, err := oc.orders.ListAllOrders(c.Context(), f, c.QueryInt("page", 1), c.QueryInt("limit", 20))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated("orders", resources.Orders(orders), p)
}

// UpdateStatus moves an order along the fulfilment state machine.
func (oc *OrderController) UpdateStatus(c *ctx.Context) {
	id, err := c.ParamID("id")
	if err != nil {
		c.Fail(err)
		return
	}
	var in services.StatusUpdateInput
	if !c.BindJSON(&in) {
		return
	}
	o, err := oc.orders.TransitionOrderStatus(c.Context(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Message("Order status updated successfully", map[string]any{"order": resources.NewOrder(o)})
}

// GuestStore places an order without an account.
func (oc *OrderController) GuestStore(c *ctx.Context) {
	var in services.GuestOrderInput
	if !c.BindJSON(&in) {
		return
	}
	placed, err := oc.orders.PlaceGuestOrder(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created("Order placed successfully", map[string]any{
		"order":        resources.NewOrder(placed.Order),
		"orderNumber":  placed.Order.OrderNumber,
		"total":        placed.Order.Total,
		"clientSecret": placed.ClientSecret,
	})
}

func (oc *OrderController) GuestAdminIndex(c *ctx.Context) {
	guest := true
	oc.adminList(c, repositories.OrderFilter{Status: c.Query("status"), Guest: &guest})
}
