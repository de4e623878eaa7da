package models

// Cart belongs to exactly one user and is created on first use.
type Cart struct {
	Base
	UserID uint       `gorm:"not null;uniqueIndex" json:"userId"`
	Items  []CartItem `json:"items"`
}

// CartItem stores the unit price seen when the line was added.
type CartItem struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	CartID    uint     `gorm:"not null;index" json:"cartId"`
	ProductID uint     `gorm:"not null;index" json:"productId"`
	Product   *Product `json:"product,omitempty"`
	Size      string   `gorm:"size:10" json:"size"`
	Color     string   `gorm:"size:50" json:"color"`
	Price     int64    `gorm:"not null" json:"price"`
	Quantity  int      `gorm:"not null" json:"quantity"`
}

func (c *Cart) Subtotal() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.Price * int64(it.Quantity)
	}
	return total
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}
