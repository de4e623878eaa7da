package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/app/repositories"
	"github.com/shashiranjanraj/pehnawa/pkg/apperr"
	"github.com/shashiranjanraj/pehnawa/pkg/event"
	"github.com/shashiranjanraj/pehnawa/pkg/logger"
	"github.com/shashiranjanraj/pehnawa/pkg/metrics"
	"github.com/shashiranjanraj/pehnawa/pkg/orm"
)

const defaultCountry = "PK"

type OrderItemInput struct {
	ProductID uint   `json:"productId" validate:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"  validate:"required,gte=1,lte=100"`
}

// PlaceOrderInput checks out the authenticated user's cart.
type PlaceOrderInput struct {
	ShippingAddress models.Address `json:"shippingAddress"`
	PaymentMethod   string         `json:"paymentMethod" validate:"nullable,in=stripe|paypal|cash_on_delivery"`
	Notes           string         `json:"notes"         validate:"max=500"`
}

type GuestOrderInput struct {
	Customer        models.Customer  `json:"customer"`
	Items           []OrderItemInput `json:"items"`
	ShippingAddress models.Address   `json:"shippingAddress"`
	PaymentMethod   string           `json:"paymentMethod" validate:"nullable,in=stripe|paypal|cash_on_delivery"`
	Notes           string           `json:"notes"         validate:"max=500"`
}

type StatusUpdateInput struct {
	Status         string `json:"status"         validate:"required,in=pending|confirmed|processing|shipped|delivered|cancelled"`
	TrackingNumber string `json:"trackingNumber" validate:"max=100"`
	Carrier        string `json:"carrier"        validate:"max=50"`
}

// Placement is the outcome of a checkout.
type Placement struct {
	Order        *models.Order `json:"order"`
	ClientSecret string        `json:"clientSecret,omitempty"`
}

type OrderConfig struct {
	FreeShippingThreshold int64
	ShippingFee           int64
}

// OrderService runs checkout and the admin fulfilment workflow.
type OrderService struct {
	db       *gorm.DB
	orders   *repositories.OrderRepository
	products *repositories.ProductRepository
	carts    *repositories.CartRepository
	payments PaymentGateway
	events   *event.Dispatcher
	cfg      OrderConfig

	now    func() time.Time
	suffix func() int
}

func NewOrderService(db *gorm.DB, payments PaymentGateway, events *event.Dispatcher, cfg OrderConfig) *OrderService {
	return &OrderService{
		db:       db,
		orders:   repositories.NewOrderRepository(db),
		products: repositories.NewProductRepository(db),
		carts:    repositories.NewCartRepository(db),
		payments: payments,
		events:   events,
		cfg:      cfg,
		now:      time.Now,
		suffix:   func() int { return rand.IntN(1000) },
	}
}

type line struct {
	ProductID uint
	Size      string
	Color     string
	Quantity  int
}

// PlaceOrder turns the user's cart into an order.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uint, in PlaceOrderInput) (*Placement, error) {
	if err := check(&in); err != nil {
		return nil, err
	}
	cart, err := s.carts.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, apperr.EmptyCart("Cart is empty")
	}

	lines := make([]line, len(cart.Items))
	for i, it := range cart.Items {
		lines[i] = line{ProductID: it.ProductID, Size: it.Size, Color: it.Color, Quantity: it.Quantity}
	}

	method := in.PaymentMethod
	if method == "" {
		method = models.PaymentStripe
	}
	addr := in.ShippingAddress
	o := &models.Order{
		UserID: &userID,
		Customer: models.Customer{
			FirstName: addr.FirstName,
			LastName:  addr.LastName,
			Email:     addr.Email,
			Phone:     addr.Phone,
		},
		ShippingAddress: withCountry(addr),
		PaymentMethod:   method,
		Notes:           strings.TrimSpace(in.Notes),
	}
	return s.place(ctx, o, lines, &userID)
}

// PlaceGuestOrder checks out an explicit item list without an account.
func (s *OrderService) PlaceGuestOrder(ctx context.Context, in GuestOrderInput) (*Placement, error) {
	if len(in.Items) == 0 {
		return nil, apperr.EmptyCart("Order must contain at least one item")
	}
	if err := check(&in); err != nil {
		return nil, err
	}

	lines := make([]line, len(in.Items))
	for i, it := range in.Items {
		lines[i] = line{ProductID: it.ProductID, Size: strings.TrimSpace(it.Size), Color: strings.TrimSpace(it.Color), Quantity: it.Quantity}
	}

	method := in.PaymentMethod
	if method == "" {
		method = models.PaymentCOD
	}
	in.Customer.Email = strings.ToLower(strings.TrimSpace(in.Customer.Email))
	addr := withCountry(in.ShippingAddress)
	if addr.Email == "" {
		addr.Email = in.Customer.Email
	}
	if addr.Phone == "" {
		addr.Phone = in.Customer.Phone
	}
	o := &models.Order{
		IsGuest:         true,
		Customer:        in.Customer,
		ShippingAddress: addr,
		PaymentMethod:   method,
		Notes:           strings.TrimSpace(in.Notes),
	}
	return s.place(ctx, o, lines, nil)
}

// place prices, persists and reserves stock for o in one transaction.
// clearCartOf names the user whose cart is emptied on success.
func (s *OrderService) place(ctx context.Context, o *models.Order, lines []line, clearCartOf *uint) (*Placement, error) {
	var secret string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)

		var subtotal int64
		o.Items = make([]models.OrderItem, 0, len(lines))
		for _, l := range lines {
			p, err := products.FindByID(ctx, l.ProductID, true)
			if err != nil {
				return err
			}
			v, ok := p.FindVariant(l.Size, l.Color)
			if !ok {
				return apperr.NotFound("Variant %s/%s of %s not found", l.Size, l.Color, p.Name)
			}
			if avail := p.Available(v); avail < l.Quantity {
				return insufficient(p, v, l, avail)
			}

			unit := p.UnitPrice(v)
			item := models.OrderItem{
				ProductID: p.ID,
				Name:      p.Name,
				Size:      l.Size,
				Color:     l.Color,
				Quantity:  l.Quantity,
				Price:     unit,
				Total:     unit * int64(l.Quantity),
			}
			if v != nil {
				id := v.ID
				item.VariantID = &id
				item.Size, item.Color, item.SKU = v.Size, v.Color, v.SKU
			}
			if len(p.Images) > 0 {
				item.Image = p.Images[0].URL
			}
			o.Items = append(o.Items, item)
			subtotal += item.Total
		}

		o.Subtotal = subtotal
		o.Shipping = s.shippingFor(subtotal)
		o.Tax, o.Discount = 0, 0
		o.Total = o.Subtotal + o.Shipping
		o.Status = models.StatusPending
		o.PaymentStatus = models.PaymentPending
		o.OrderNumber = s.orderNumber(o.IsGuest)

		if err := s.orders.WithTx(tx).Create(ctx, o); err != nil {
			return err
		}

		for i, it := range o.Items {
			ok, err := products.DecrementStock(ctx, it.ProductID, it.VariantID, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.InsufficientStock("Insufficient stock for %s: requested %d", it.Name, lines[i].Quantity)
			}
		}

		if clearCartOf != nil {
			if err := s.carts.WithTx(tx).Clear(ctx, *clearCartOf); err != nil {
				return err
			}
		}

		if models.IsExternalPayment(o.PaymentMethod) {
			var err error
			if secret, err = s.initiatePayment(ctx, o); err != nil {
				return err
			}
			o.PaymentReference = secret
			return s.orders.WithTx(tx).SetPaymentReference(ctx, o.ID, secret)
		}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInsufficientStock {
			metrics.RecordStockRejection()
		}
		return nil, err
	}

	placed, err := s.orders.FindByID(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	logger.WithCtx(ctx).Info("order placed",
		"order", placed.OrderNumber, "total", placed.Total, "guest", placed.IsGuest, "payment", placed.PaymentMethod)

	s.events.DispatchAsync(ctx, EventOrderPlaced, OrderPlaced{Order: placed})
	s.announceStock(ctx, "order", placed)
	return &Placement{Order: placed, ClientSecret: secret}, nil
}

func insufficient(p *models.Product, v *models.Variant, l line, avail int) error {
	label := p.Name
	if v != nil {
		label = fmt.Sprintf("%s (%s/%s)", p.Name, v.Size, v.Color)
	}
	e := apperr.InsufficientStock("Insufficient stock for %s: requested %d, available %d", label, l.Quantity, avail)
	e.Fields = map[string]string{"product": p.Name, "requested": fmt.Sprint(l.Quantity), "available": fmt.Sprint(avail)}
	return e
}

func (s *OrderService) initiatePayment(ctx context.Context, o *models.Order) (string, error) {
	if s.payments == nil {
		return "", apperr.Internal(fmt.Errorf("no payment gateway"), "Payment initiation failed")
	}
	secret, err := s.payments.Initiate(ctx, PaymentIntent{
		OrderNumber: o.OrderNumber,
		Amount:      o.Total,
		Currency:    "PKR",
		Method:      o.PaymentMethod,
		Email:       o.ContactEmail(),
	})
	if err != nil {
		return "", apperr.Internal(err, "Payment initiation failed")
	}
	return secret, nil
}

// shippingFor is free at or above the threshold.
func (s *OrderService) shippingFor(subtotal int64) int64 {
	if subtotal >= s.cfg.FreeShippingThreshold {
		return 0
	}
	return s.cfg.ShippingFee
}

func (s *OrderService) orderNumber(guest bool) string {
	prefix := "ORD"
	if guest {
		prefix = "GO"
	}
	return fmt.Sprintf("%s-%d-%03d", prefix, s.now().UnixMilli(), s.suffix())
}

func withCountry(a models.Address) models.Address {
	if strings.TrimSpace(a.Country) == "" {
		a.Country = defaultCountry
	}
	return a
}

// ─── Fulfilment ──────────────────────────────────────────────────────────────

// TransitionOrderStatus moves an order along the fulfilment workflow.
// Transitions outside the allow-list are a Conflict.
func (s *OrderService) TransitionOrderStatus(ctx context.Context, orderID uint, in StatusUpdateInput) (*models.Order, error) {
	if err := check(&in); err != nil {
		return nil, err
	}
	to := in.Status
	var from string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		o, err := orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		from = o.Status
		if !models.CanTransition(from, to) {
			return apperr.Conflict("Cannot change order status from %s to %s", from, to)
		}

		now := s.now()
		changes := map[string]interface{}{"status": to}
		switch to {
		case models.StatusShipped:
			if strings.TrimSpace(in.TrackingNumber) == "" {
				return apperr.ValidationFields(map[string]string{"trackingNumber": "A tracking number is required to ship an order."})
			}
			changes["tracking_number"] = strings.TrimSpace(in.TrackingNumber)
			changes["carrier"] = strings.TrimSpace(in.Carrier)
			changes["shipped_at"] = now
		case models.StatusDelivered:
			changes["delivered_at"] = now
			if o.PaymentMethod == models.PaymentCOD {
				changes["payment_status"] = models.PaymentCompleted
				changes["paid_at"] = now
			}
		case models.StatusCancelled:
			changes["cancelled_at"] = now
			products := s.products.WithTx(tx)
			for _, it := range o.Items {
				if err := products.Restock(ctx, it.ProductID, it.VariantID, it.Size, it.Color, it.Quantity); err != nil {
					return err
				}
			}
		}

		ok, err := orders.UpdateFrom(ctx, o.ID, from, changes)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("Order %s was changed by another request", o.OrderNumber)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	logger.WithCtx(ctx).Info("order status changed", "order", o.OrderNumber, "from", from, "to", to)

	s.events.DispatchAsync(ctx, EventOrderStatusChanged, OrderStatusChanged{Order: o, From: from, To: to})
	if to == models.StatusCancelled {
		s.announceStock(ctx, "cancel", o)
	}
	return o, nil
}

// announceStock publishes the post-commit stock of every product in o.
func (s *OrderService) announceStock(ctx context.Context, reason string, o *models.Order) {
	if s.events == nil {
		return
	}
	ids := make([]uint, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.ProductID)
	}
	stocks, err := s.products.TotalStocks(ctx, ids)
	if err != nil {
		logger.WithCtx(ctx).Warn("order: read stock levels", "error", err)
		return
	}
	levels := make([]StockLevel, 0, len(stocks))
	for id, n := range stocks {
		levels = append(levels, StockLevel{ProductID: id, TotalStock: n})
	}
	s.events.DispatchAsync(ctx, EventStockChanged, StockChanged{Reason: reason, Levels: levels})
}

// ─── Reads ───────────────────────────────────────────────────────────────────

func (s *OrderService) ListUserOrders(ctx context.Context, userID uint, page, limit int) ([]models.Order, orm.Pagination, error) {
	page, limit = orm.PageParams(page, limit, 10, 50)
	return s.orders.ListForUser(ctx, userID, page, limit)
}

// GetUserOrder hides other users' orders as NotFound.
func (s *OrderService) GetUserOrder(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	return s.orders.FindForUser(ctx, userID, orderID)
}

func (s *OrderService) ListAllOrders(ctx context.Context, f repositories.OrderFilter, page, limit int) ([]models.Order, orm.Pagination, error) {
	if f.Status != "" && !models.IsValidStatus(f.Status) {
		return nil, orm.Pagination{}, apperr.ValidationFields(map[string]string{"status": "Unknown order status."})
	}
	page, limit = orm.PageParams(page, limit, 20, 100)
	return s.orders.List(ctx, f, page, limit)
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.orders.FindByID(ctx, orderID)
}
