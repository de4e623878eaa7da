package services

import "github.com/shashiranjanraj/pehnawa/app/models"

// Events fired after a write commits.
const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
	EventStockChanged       = "stock.changed"
	EventProductChanged     = "product.changed"
)

type OrderPlaced struct {
	Order *models.Order
}

type OrderStatusChanged struct {
	Order *models.Order
	From  string
	To    string
}

// StockLevel is the new stock of one product after an order or a restock.
type StockLevel struct {
	ProductID  uint `json:"productId"`
	TotalStock int  `json:"totalStock"`
}

type StockChanged struct {
	Reason string       `json:"reason"`
	Levels []StockLevel `json:"levels"`
}

// ProductChanged is fired after a product is created, edited or removed.
type ProductChanged struct {
	ID   uint   `json:"id"`
	Slug string `json:"slug"`
}
