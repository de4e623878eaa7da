package listeners

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/pehnawa/app/jobs"
	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/app/resources"
	"github.com/shashiranjanraj/pehnawa/app/services"
	"github.com/shashiranjanraj/pehnawa/pkg/event"
	"github.com/shashiranjanraj/pehnawa/pkg/queue"
)

type published struct {
	name string
	data any
}

type fakeFeed struct {
	mu   sync.Mutex
	sent []published
}

func (f *fakeFeed) Publish(name string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, published{name, data})
	return nil
}

type fakeHub struct{ got []any }

func (h *fakeHub) Broadcast(v any) error {
	h.got = append(h.got, v)
	return nil
}

type fakeCatalog struct{ calls int }

func (c *fakeCatalog) Invalidate(context.Context) { c.calls++ }

type fixture struct {
	events  *event.Dispatcher
	driver  *queue.MemoryDriver
	feed    *fakeFeed
	hub     *fakeHub
	catalog *fakeCatalog
}

func newFixture() *fixture {
	f := &fixture{
		events:  event.New(nil),
		driver:  queue.NewMemoryDriver(10),
		feed:    &fakeFeed{},
		hub:     &fakeHub{},
		catalog: &fakeCatalog{},
	}
	Register(f.events, Deps{
		Queue:   queue.New(f.driver, queue.Options{}),
		Feed:    f.feed,
		Stock:   f.hub,
		Catalog: f.catalog,
		Now:     func() time.Time { return time.Unix(1718000000, 0) },
	})
	return f
}

// popJob reads the next queued envelope.
func popJob(t *testing.T, d *queue.MemoryDriver) (string, map[string]any) {
	t.Helper()
	raw, err := d.Pop(context.Background())
	require.NoError(t, err)
	var env struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	var payload map[string]any
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	return env.Type, payload
}

func order() *models.Order {
	return &models.Order{
		Base:          models.Base{ID: 9},
		OrderNumber:   "ORD-1718000000000-007",
		PaymentMethod: models.PaymentCOD,
		Status:        models.StatusPending,
		Total:         3000,
		Items:         []models.OrderItem{{Quantity: 3}},
	}
}

func TestOrderPlacedQueuesMailAndFeedsAdmins(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.events.Dispatch(context.Background(), services.EventOrderPlaced, services.OrderPlaced{Order: order()}))

	name, payload := popJob(t, f.driver)
	assert.Equal(t, jobs.NameOrderConfirmation, name)
	assert.EqualValues(t, 9, payload["order_id"])

	require.Len(t, f.feed.sent, 1)
	assert.Equal(t, FeedOrderPlaced, f.feed.sent[0].name)
	ev := f.feed.sent[0].data.(resources.OrderEvent)
	assert.Equal(t, 3, ev.Items)
	assert.Equal(t, "ORD-1718000000000-007", ev.OrderNumber)
}

func TestStatusChangeQueuesStatusMail(t *testing.T) {
	f := newFixture()
	o := order()
	o.Status = models.StatusConfirmed
	err := f.events.Dispatch(context.Background(), services.EventOrderStatusChanged, services.OrderStatusChanged{
		Order: o, From: models.StatusPending, To: models.StatusConfirmed,
	})
	require.NoError(t, err)

	name, payload := popJob(t, f.driver)
	assert.Equal(t, jobs.NameOrderStatus, name)
	assert.Equal(t, models.StatusConfirmed, payload["status"])

	require.Len(t, f.feed.sent, 1)
	assert.Equal(t, FeedOrderUpdated, f.feed.sent[0].name)
	assert.Equal(t, models.StatusPending, f.feed.sent[0].data.(resources.OrderEvent).From)
}

func TestStockChangedBroadcastsAndInvalidates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	levels := []services.StockLevel{{ProductID: 1, TotalStock: 2}}

	require.NoError(t, f.events.Dispatch(ctx, services.EventStockChanged, services.StockChanged{Reason: "order", Levels: levels}))
	require.NoError(t, f.events.Dispatch(ctx, services.EventStockChanged, services.StockChanged{Reason: "product.update", Levels: levels}))
	require.NoError(t, f.events.Dispatch(ctx, services.EventStockChanged, services.StockChanged{Reason: "cancel"}))

	assert.Len(t, f.hub.got, 2)
	assert.Equal(t, 2, f.catalog.calls)
}

func TestWrongPayloadIsAnError(t *testing.T) {
	f := newFixture()
	err := f.events.Dispatch(context.Background(), services.EventOrderPlaced, "nope")
	assert.Error(t, err)
	assert.Zero(t, f.driver.Len())
}

func TestProductChangedReachesFeed(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.events.Dispatch(context.Background(), services.EventProductChanged, services.ProductChanged{ID: 4, Slug: "lawn-suit"}))
	require.Len(t, f.feed.sent, 1)
	assert.Equal(t, FeedProduct, f.feed.sent[0].name)
}
