package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/app/repositories"
	"github.com/shashiranjanraj/pehnawa/pkg/apperr"
	"github.com/shashiranjanraj/pehnawa/pkg/event"
	apphttp "github.com/shashiranjanraj/pehnawa/pkg/http"
	"github.com/shashiranjanraj/pehnawa/pkg/testkit"
)

var testOrderConfig = OrderConfig{FreeShippingThreshold: 3000, ShippingFee: 150}

type failingGateway struct{}

func (failingGateway) Initiate(context.Context, PaymentIntent) (string, error) {
	return "", errors.New("gateway down")
}

func newOrderService(t *testing.T, db *gorm.DB, gw PaymentGateway, events *event.Dispatcher) *OrderService {
	t.Helper()
	svc := NewOrderService(db, gw, events, testOrderConfig)
	svc.now = func() time.Time { return time.UnixMilli(1718000000000) }
	svc.suffix = func() int { return 7 }
	return svc
}

func fillCart(t *testing.T, db *gorm.DB, userID, productID uint, size, color string, qty int) {
	t.Helper()
	in := addInput(productID, size, color, qty)
	_, err := NewCartService(db).AddItem(context.Background(), userID, in)
	require.NoError(t, err)
}

func codOrder() PlaceOrderInput {
	return PlaceOrderInput{ShippingAddress: address(), PaymentMethod: models.PaymentCOD}
}

func TestPlaceOrderScenario(t *testing.T) {
	db := newDB(t)
	svc := newOrderService(t, db, nil, nil)
	ctx := context.Background()
	user := seedUser(t, db, models.RoleUser)
	p := seedProduct(t, db, seedCategory(t, db), 1000, 0,
		models.Variant{Size: "M", Color: "Black", Stock: 5})
	fillCart(t, db, user.ID, p.ID, "M", "Black", 3)

	placed, err := svc.PlaceOrder(ctx, user.ID, codOrder())
	require.NoError(t, err)
	o := placed.Order

	assert.Equal(t, "ORD-1718000000000-007", o.OrderNumber)
	assert.Equal(t, models.StatusPending, o.Status)
	assert.Equal(t, models.PaymentPending, o.PaymentStatus)
	assert.EqualValues(t, 3000, o.Subtotal)
	assert.EqualValues(t, 0, o.Shipping, "free shipping at the threshold")
	assert.EqualValues(t, 3000, o.Total)
	assert.Empty(t, placed.ClientSecret)
	assert.Equal(t, "PK", o.ShippingAddress.Country)
	assert.Equal(t, "ayesha@example.com", o.Customer.Email)

	require.Len(t, o.Items, 1)
	item := o.Items[0]
	assert.Equal(t, p.Name, item.Name)
	assert.Equal(t, "https://cdn.test/kurta.jpg", item.Image)
	assert.EqualValues(t, 1000, item.Price)
	assert.EqualValues(t, 3000, item.Total)
	require.NotNil(t, item.VariantID)

	after := reloadProduct(t, db, p.ID)
	assert.Equal(t, 2, after.Variants[0].Stock)
	assert.Equal(t, 2, after.TotalStock)
	assert.Equal(t, 3, after.SoldCount)

	cart, err := NewCartService(db).GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// Later price changes leave the order untouched.
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", p.ID).Update("price", 5000).Error)
	again, err := svc.GetUserOrder(ctx, user.ID, o.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3000, again.Total)
	assert.EqualValues(t, 1000, again.Items[0].Price)
}

func TestPlaceOrderChargesShippingBelowThreshold(t *testing.T) {
	db := newDB(t)
	svc := newOrderService(t, db, nil, nil)
	user := seedUser(t, db, models.RoleUser)
	p := seedProduct(t, db, seedCategory(t, db), 1000, 10)
	fillCart(t, db, user.ID, p.ID, "", "", 2)

	placed, err := svc.PlaceOrder(context.Background(), user.ID, codOrder())
	require.NoError(t, err)
	assert.EqualValues(t, 2000, placed.Order.Subtotal)
	assert.EqualValues(t, 150, placed.Order.Shipping)
	assert.Equal(t, placed.Order.Subtotal+placed.Order.Shipping, placed.Order.Total)
	assert.Equal(t, 8, reloadProduct(t, db, p.ID).Stock)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	db := newDB(t)
	svc := newOrderService(t, db, nil, nil)
	user := seedUser(t, db, models.RoleUser)

	_, err := svc.PlaceOrder(context.Background(), user.ID, codOrder())
	assert.Equal(t, apperr.KindEmptyCart, apperr.KindOf(err))
}

func TestPlaceOrderInsufficientStockLeavesStock(t *testing.T) {
	db := newDB(t)
	svc := newOrderService(t, db, nil, nil)
	ctx := context.Background()
	user := seedUser(t, db, models.RoleUser)
	p := seedProduct(t, db, seedCategory(t, db), 1000, 0,
		models.Variant{Size: "S", Color: "Red", Stock: 4})
	fillCart(t, db, user.ID, p.ID, "S", "Red", 4)

	// Stock drops after the item went into the cart.
	require.NoError(t, db.Model(&models.Variant{}).Where("product_id = ?", p.ID).Update("stock", 2).Error)

	_, err := svc.PlaceOrder(ctx, user.ID, codOrder())
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInsufficientStock, e.Kind)
	assert.Contains(t, e.Message, "requested 4, available 2")

	assert.Equal(t, 2, reloadProduct(t, db, p.ID).Variants[0].Stock)
	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)

	cart, err := NewCartService(db).GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1, "a failed checkout keeps the cart")
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	db := newDB(t)
	svc := newOrderService(t, db, nil, nil)
	p := seedProduct(t, db, seedCategory(t, db), 1000, 0,
		models.Variant{Size: "M", Color: "White", Stock: 5})

	users := []*models.User{seedUser(t, db, models.RoleUser), seedUser(t, db, models.RoleUser)}
	for _, u := range users {
		fillCart(t, db, u.ID, p.ID, "M", "White", 3)
	}
	svc.suffix = func() int { return int(time.Now().UnixNano() % 1000) }

	var (
		wg   sync.WaitGroup
		errs = make([]error, len(users))
	)
	for i, u := range users {
		wg.Add(1)
		go func(i int, userID uint) {
			defer wg.Done()
			_, errs[i] = svc.PlaceOrder(context.Background(), userID, codOrder())
		}(i, u.ID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 2, reloadProduct(t, db, p.ID).Variants[0].Stock)
}

func TestPlaceGuestOrder(t *testing.T) {
	db := newDB(t)
	svc := newOrderService(t, db, nil, nil)
	ctx := context.Background()
	p := seedProduct(t, db, seedCategory(t, db), 1800, 6)

	in := GuestOrderInput{
		Customer: models.Customer{FirstName: "Bilal", LastName: "Ahmed", Email: "Bilal@Example.com", Phone: "03001234567"},
		Items:    []OrderItemInput{{ProductID: p.ID, Quantity: 2}},
		ShippingAddress: models.Address{
			FirstName: "Bilal", LastName: "Ahmed", Street: "5 Canal View", City: "Lahore", State: "Punjab", ZipCode: "54000",
		},
	}
	placed, err := svc.PlaceGuestOrder(ctx, in)
	require.NoError(t, err)

	o := placed.Order
	assert.True(t, o.IsGuest)
	assert.Nil(t, o.UserID)
	assert.True(t, strings.HasPrefix(o.OrderNumber, "GO-"))
	assert.Equal(t, models.PaymentCOD, o.PaymentMethod)
	assert.Equal(t, "bilal@example.com", o.Customer.Email)
	assert.Equal(t, "bilal@example.com", o.ShippingAddress.Email)
	assert.EqualValues(t, 3600, o.Total)
	assert.Equal(t, 4, reloadProduct(t, db, p.ID).Stock)

	_, err = svc.PlaceGuestOrder(ctx, GuestOrderInput{Customer: in.Customer, ShippingAddress: in.ShippingAddress})
	assert.Equal(t, apperr.KindEmptyCart, apperr.KindOf(err))

	bad := in
	bad.Customer.Email = "not-an-email"
	_, err = svc.PlaceGuestOrder(ctx, bad)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Contains(t, e.Fields, "customer.email")
}

func TestPlaceOrderWithHTTPGateway(t *testing.T) {
	db := newDB(t)
	mt := testkit.NewMockTransport(testkit.MockStep{
		Match:  "https://pay.test/intents",
		Status: http.StatusOK,
		Body:   []byte(`{"id":"pi_123","clientSecret":"pi_123_secret"}`),
	})
	gw := NewHTTPGateway(apphttp.NewClient(apphttp.Options{Transport: mt}), "https://pay.test/intents", "sk_test")
	svc := newOrderService(t, db, gw, nil)
	user := seedUser(t, db, models.RoleUser)
	p := seedProduct(t, db, seedCategory(t, db), 4000, 3)
	fillCart(t, db, user.ID, p.ID, "", "", 1)

	in := codOrder()
	in.PaymentMethod = ""
	placed, err := svc.PlaceOrder(context.Background(), user.ID, in)
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStripe, placed.Order.PaymentMethod)
	assert.Equal(t, "pi_123_secret", placed.ClientSecret)
	assert.Equal(t, "pi_123_secret", placed.Order.PaymentReference)

	calls := mt.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer sk_test", calls[0].Header.Get("Authorization"))
	assert.Equal(t, placed.Order.OrderNumber, calls[0].Header.Get("Idempotency-Key"))
	assert.Empty(t, mt.Uncalled())
}

func TestPlaceOrderWithLocalGateway(t *testing.T) {
	db := newDB(t)
	gw, err := NewLocalGateway("local-secret")
	require.NoError(t, err)
	svc := newOrderService(t, db, gw, nil)
	user := seedUser(t, db, models.RoleUser)
	p := seedProduct(t, db, seedCategory(t, db), 4000, 3)
	fillCart(t, db, user.ID, p.ID, "", "", 1)

	in := codOrder()
	in.PaymentMethod = models.PaymentPayPal
	placed, err := svc.PlaceOrder(context.Background(), user.ID, in)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(placed.ClientSecret, "pi_local_"))

	intent, err := gw.Inspect(placed.ClientSecret)
	require.NoError(t, err)
	assert.Equal(t, placed.Order.OrderNumber, intent.OrderNumber)
	assert.EqualValues(t, 4000, intent.Amount)
	assert.Equal(t, models.PaymentPayPal, intent.Method)
}

func TestGatewayFailureRollsBack(t *testing.T) {
	db := newDB(t)
	svc := newOrderService(t, db, failingGateway{}, nil)
	ctx := context.Background()
	user := seedUser(t, db, models.RoleUser)
	p := seedProduct(t, db, seedCategory(t, db), 4000, 3)
	fillCart(t, db, user.ID, p.ID, "", "", 2)

	in := codOrder()
	in.PaymentMethod = models.PaymentStripe
	_, err := svc.PlaceOrder(ctx, user.ID, in)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))

	assert.Equal(t, 3, reloadProduct(t, db, p.ID).Stock)
	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
	cart, err := NewCartService(db).GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func placeOne(t *testing.T, db *gorm.DB, svc *OrderService, stock, qty int) (*models.Order, *models.Product) {
	t.Helper()
	user := seedUser(t, db, models.RoleUser)
	p := seedProduct(t, db, seedCategory(t, db), 1000, 0,
		models.Variant{Size: "L", Color: "Navy", Stock: stock})
	fillCart(t, db, user.ID, p.ID, "L", "Navy", qty)
	placed, err := svc.PlaceOrder(context.Background(), user.ID, codOrder())
	require.NoError(t, err)
	return placed.Order, p
}

func TestTransitionFollowsAllowList(t *testing.T) {
	db := newDB(t)
	svc := newOrderService(t, db, nil, nil)
	ctx := context.Background()
	o, _ := placeOne(t, db, svc, 5, 1)

	_, err := svc.TransitionOrderStatus(ctx, o.ID, StatusUpdateInput{Status: models.StatusDelivered})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = svc.TransitionOrderStatus(ctx, o.ID, StatusUpdateInput{Status: "lost"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	for _, status := range []string{models.StatusConfirmed, models.StatusProcessing} {
		o, err = svc.TransitionOrderStatus(ctx, o.ID, StatusUpdateInput{Status: status})
		require.NoError(t, err)
		assert.Equal(t, status, o.Status)
	}

	_, err = svc.TransitionOrderStatus(ctx, o.ID, StatusUpdateInput{Status: models.StatusShipped})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, e.Kind)
	assert.Contains(t, e.Fields, "trackingNumber")

	o, err = svc.TransitionOrderStatus(ctx, o.ID, StatusUpdateInput{Status: models.StatusShipped, TrackingNumber: "TCS-991", Carrier: "TCS"})
	require.NoError(t, err)
	assert.Equal(t, "TCS-991", o.TrackingNumber)
	assert.NotNil(t, o.ShippedAt)

	o, err = svc.TransitionOrderStatus(ctx, o.ID, StatusUpdateInput{Status: models.StatusDelivered})
	require.NoError(t, err)
	assert.NotNil(t, o.DeliveredAt)
	assert.Equal(t, models.PaymentCompleted, o.PaymentStatus, "cash on delivery is paid on delivery")

	_, err = svc.TransitionOrderStatus(ctx, o.ID, StatusUpdateInput{Status: models.StatusCancelled})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = svc.TransitionOrderStatus(ctx, 9999, StatusUpdateInput{Status: models.StatusConfirmed})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCancelRestocks(t *testing.T) {
	db := newDB(t)
	events := event.New(nil)
	var (
		mu      sync.Mutex
		changes []OrderStatusChanged
		stock   []StockChanged
	)
	events.Listen(EventOrderStatusChanged, func(_ context.Context, payload any) error {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, payload.(OrderStatusChanged))
		return nil
	})
	events.Listen(EventStockChanged, func(_ context.Context, payload any) error {
		mu.Lock()
		defer mu.Unlock()
		stock = append(stock, payload.(StockChanged))
		return nil
	})

	svc := newOrderService(t, db, nil, events)
	o, p := placeOne(t, db, svc, 5, 3)
	require.Equal(t, 2, reloadProduct(t, db, p.ID).TotalStock)

	o, err := svc.TransitionOrderStatus(context.Background(), o.ID, StatusUpdateInput{Status: models.StatusCancelled})
	require.NoError(t, err)
	assert.NotNil(t, o.CancelledAt)

	after := reloadProduct(t, db, p.ID)
	assert.Equal(t, 5, after.Variants[0].Stock)
	assert.Equal(t, 5, after.TotalStock)
	assert.Equal(t, 0, after.SoldCount)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 1)
	assert.Equal(t, models.StatusPending, changes[0].From)
	assert.Equal(t, models.StatusCancelled, changes[0].To)
	require.Len(t, stock, 2, "one for the order, one for the cancel")
	assert.Equal(t, "cancel", stock[1].Reason)
	assert.Equal(t, []StockLevel{{ProductID: p.ID, TotalStock: 5}}, stock[1].Levels)
}

func TestCancelAfterVariantEditRestocksSameVariant(t *testing.T) {
	db := newDB(t)
	svc := newOrderService(t, db, nil, nil)
	catalog := NewCatalogService(db, nil, nil, nil)
	ctx := context.Background()
	o, p := placeOne(t, db, svc, 5, 3)
	ordered := *o.Items[0].VariantID

	_, err := catalog.UpdateProduct(ctx, p.ID, ProductUpdate{Variants: []VariantInput{
		{Size: "L", Color: "Navy", Stock: 4},
		{Size: "S", Color: "Navy", Stock: 1},
	}})
	require.NoError(t, err)

	_, err = svc.TransitionOrderStatus(ctx, o.ID, StatusUpdateInput{Status: models.StatusCancelled})
	require.NoError(t, err)

	after := reloadProduct(t, db, p.ID)
	l, ok := after.FindVariant("L", "Navy")
	require.True(t, ok)
	assert.Equal(t, ordered, l.ID)
	assert.Equal(t, 7, l.Stock)
	assert.Equal(t, 8, after.TotalStock)
	assert.Equal(t, after.ComputeTotalStock(), after.TotalStock)
	assert.Equal(t, 0, after.SoldCount)
}

func TestCancelFindsReplacedVariantBySizeAndColor(t *testing.T) {
	db := newDB(t)
	svc := newOrderService(t, db, nil, nil)
	ctx := context.Background()
	o, p := placeOne(t, db, svc, 5, 3)
	old := *o.Items[0].VariantID

	replacement := models.Variant{ProductID: p.ID, Size: "L", Color: "Navy", Stock: 2}
	require.NoError(t, db.Create(&replacement).Error)
	require.NoError(t, db.Delete(&models.Variant{}, old).Error)
	require.NotEqual(t, old, replacement.ID)

	_, err := svc.TransitionOrderStatus(ctx, o.ID, StatusUpdateInput{Status: models.StatusCancelled})
	require.NoError(t, err)

	after := reloadProduct(t, db, p.ID)
	require.Len(t, after.Variants, 1)
	assert.Equal(t, 5, after.Variants[0].Stock)
	assert.Equal(t, after.ComputeTotalStock(), after.TotalStock)
}

func TestCancelConflictsWhenVariantRemoved(t *testing.T) {
	db := newDB(t)
	svc := newOrderService(t, db, nil, nil)
	catalog := NewCatalogService(db, nil, nil, nil)
	ctx := context.Background()
	o, p := placeOne(t, db, svc, 5, 3)

	_, err := catalog.UpdateProduct(ctx, p.ID, ProductUpdate{Variants: []VariantInput{
		{Size: "M", Color: "Navy", Stock: 4},
	}})
	require.NoError(t, err)

	_, err = svc.TransitionOrderStatus(ctx, o.ID, StatusUpdateInput{Status: models.StatusCancelled})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	var stored models.Order
	require.NoError(t, db.First(&stored, o.ID).Error)
	assert.Equal(t, models.StatusPending, stored.Status, "the cancel rolls back")

	after := reloadProduct(t, db, p.ID)
	assert.Equal(t, 4, after.TotalStock)
	assert.Equal(t, after.ComputeTotalStock(), after.TotalStock)
	assert.Equal(t, 3, after.SoldCount)
}

func TestOrderReads(t *testing.T) {
	db := newDB(t)
	svc := newOrderService(t, db, nil, nil)
	ctx := context.Background()
	o, _ := placeOne(t, db, svc, 5, 1)
	stranger := seedUser(t, db, models.RoleUser)

	_, err := svc.GetUserOrder(ctx, stranger.ID, o.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	mine, page, err := svc.ListUserOrders(ctx, *o.UserID, 0, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, 10, page.Limit)

	guest := true
	all, _, err := svc.ListAllOrders(ctx, repositories.OrderFilter{Guest: &guest}, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, all)

	all, _, err = svc.ListAllOrders(ctx, repositories.OrderFilter{Status: models.StatusPending}, 1, 20)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].User)

	_, _, err = svc.ListAllOrders(ctx, repositories.OrderFilter{Status: "lost"}, 1, 20)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	got, err := svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, got.OrderNumber)
}
