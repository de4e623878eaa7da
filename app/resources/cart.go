package resources

import "github.com/shashiranjanraj/pehnawa/app/models"

type CartItem struct {
	ID       uint     `json:"id"`
	Product  *Product `json:"product"`
	Size     string   `json:"size"`
	Color    string   `json:"color"`
	Price    int64    `json:"price"`
	Quantity int      `json:"quantity"`
	Total    int64    `json:"total"`
}

type Cart struct {
	ID        uint       `json:"id"`
	UserID    uint       `json:"userId"`
	Items     []CartItem `json:"items"`
	Subtotal  int64      `json:"subtotal"`
	ItemCount int        `json:"itemCount"`
}

func NewCart(c *models.Cart) *Cart {
	out := &Cart{
		ID:        c.ID,
		UserID:    c.UserID,
		Items:     make([]CartItem, 0, len(c.Items)),
		Subtotal:  c.Subtotal(),
		ItemCount: c.ItemCount(),
	}
	for _, it := range c.Items {
		out.Items = append(out.Items, CartItem{
			ID:       it.ID,
			Product:  NewProduct(it.Product),
			Size:     it.Size,
			Color:    it.Color,
			Price:    it.Price,
			Quantity: it.Quantity,
			Total:    it.Price * int64(it.Quantity),
		})
	}
	return out
}
