package resources

import (
	"time"

	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/pkg/collection"
)

// Order adds the statuses an admin may move the order to next.
type Order struct {
	*models.Order
	NextStatuses []string `json:"nextStatuses"`
}

func NewOrder(o *models.Order) *Order {
	if o.Items == nil {
		o.Items = []models.OrderItem{}
	}
	return &Order{Order: o, NextStatuses: models.NextStatuses(o.Status)}
}

func Orders(os []models.Order) []*Order {
	if os == nil {
		return []*Order{}
	}
	return collection.Map(os, func(o models.Order) *Order { return NewOrder(&o) })
}

// OrderEvent is the slim payload pushed to the admin live feed.
type OrderEvent struct {
	ID          uint      `json:"id"`
	OrderNumber string    `json:"orderNumber"`
	Status      string    `json:"status"`
	From        string    `json:"from,omitempty"`
	Total       int64     `json:"total"`
	IsGuest     bool      `json:"isGuest"`
	Items       int       `json:"items"`
	At          time.Time `json:"at"`
}

func NewOrderEvent(o *models.Order, from string, at time.Time) OrderEvent {
	return OrderEvent{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		From:        from,
		Total:       o.Total,
		IsGuest:     o.IsGuest,
		Items:       collection.SumBy(o.Items, func(it models.OrderItem) int { return it.Quantity }),
		At:          at,
	}
}
