package models

import "time"

const (
	PaymentStripe = "stripe"
	PaymentPayPal = "paypal"
	PaymentCOD    = "cash_on_delivery"

	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// IsExternalPayment reports whether the method needs a gateway round trip.
func IsExternalPayment(method string) bool {
	return method == PaymentStripe || method == PaymentPayPal
}

// Address is embedded into orders; it is a snapshot, not a reference.
type Address struct {
	FirstName string `gorm:"size:50" json:"firstName" validate:"required,max=50"`
	LastName  string `gorm:"size:50" json:"lastName"  validate:"required,max=50"`
	Email     string `gorm:"size:255" json:"email"    validate:"nullable,email"`
	Phone     string `gorm:"size:30" json:"phone"     validate:"nullable,phone"`
	Street    string `gorm:"size:200" json:"street"   validate:"required,max=200"`
	City      string `gorm:"size:100" json:"city"     validate:"required,max=100"`
	State     string `gorm:"size:100" json:"state"    validate:"required,max=100"`
	ZipCode   string `gorm:"size:20" json:"zipCode"   validate:"required,max=20"`
	Country   string `gorm:"size:60" json:"country"`
}

// Customer holds guest contact details.
type Customer struct {
	FirstName string `gorm:"size:50" json:"firstName" validate:"required,max=50"`
	LastName  string `gorm:"size:50" json:"lastName"  validate:"required,max=50"`
	Email     string `gorm:"size:255;index" json:"email" validate:"required,email"`
	Phone     string `gorm:"size:30" json:"phone"     validate:"required,phone"`
}

type Order struct {
	Base
	OrderNumber string `gorm:"size:40;not null;uniqueIndex" json:"orderNumber"`
	UserID      *uint  `gorm:"index" json:"userId"`
	User        *User  `json:"user,omitempty"`
	IsGuest     bool   `gorm:"not null;default:false;index" json:"isGuest"`

	Customer        Customer `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	ShippingAddress Address  `gorm:"embedded;embeddedPrefix:ship_" json:"shippingAddress"`

	PaymentMethod    string     `gorm:"size:30;not null" json:"paymentMethod"`
	PaymentStatus    string     `gorm:"size:20;not null;default:pending" json:"paymentStatus"`
	PaymentReference string     `gorm:"size:500" json:"-"`
	PaidAt           *time.Time `json:"paidAt,omitempty"`

	Status   string `gorm:"size:20;not null;default:pending;index" json:"status"`
	Subtotal int64  `gorm:"not null" json:"subtotal"`
	Tax      int64  `gorm:"not null;default:0" json:"tax"`
	Shipping int64  `gorm:"not null;default:0" json:"shipping"`
	Discount int64  `gorm:"not null;default:0" json:"discount"`
	Total    int64  `gorm:"not null" json:"total"`

	Carrier        string     `gorm:"size:50" json:"carrier,omitempty"`
	TrackingNumber string     `gorm:"size:100" json:"trackingNumber,omitempty"`
	ShippedAt      *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt    *time.Time `json:"deliveredAt,omitempty"`
	CancelledAt    *time.Time `json:"cancelledAt,omitempty"`
	Notes          string     `gorm:"size:500" json:"notes"`

	Items []OrderItem `json:"items"`
}

// OrderItem is an immutable snapshot of what was bought at what price.
type OrderItem struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	OrderID   uint   `gorm:"not null;index" json:"orderId"`
	ProductID uint   `gorm:"not null;index" json:"productId"`
	VariantID *uint  `json:"variantId,omitempty"`
	Name      string `gorm:"size:200;not null" json:"name"`
	Image     string `gorm:"size:500" json:"image"`
	Size      string `gorm:"size:10" json:"size"`
	Color     string `gorm:"size:50" json:"color"`
	SKU       string `gorm:"size:64" json:"sku"`
	Quantity  int    `gorm:"not null" json:"quantity"`
	Price     int64  `gorm:"not null" json:"price"`
	Total     int64  `gorm:"not null" json:"total"`
}

// ContactEmail returns the address notifications go to.
func (o *Order) ContactEmail() string {
	if o.Customer.Email != "" {
		return o.Customer.Email
	}
	if o.ShippingAddress.Email != "" {
		return o.ShippingAddress.Email
	}
	if o.User != nil {
		return o.User.Email
	}
	return ""
}
