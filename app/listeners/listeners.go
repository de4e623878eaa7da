// Package listeners reacts to committed domain events: it records business
// metrics, queues customer mail, pushes the admin order feed and the public
// stock feed, and drops stale catalog cache entries.
package listeners

import (
	"context"
	"fmt"
	"time"

	"github.com/shashiranjanraj/pehnawa/app/jobs"
	"github.com/shashiranjanraj/pehnawa/app/resources"
	"github.com/shashiranjanraj/pehnawa/app/services"
	"github.com/shashiranjanraj/pehnawa/pkg/event"
	"github.com/shashiranjanraj/pehnawa/pkg/logger"
	"github.com/shashiranjanraj/pehnawa/pkg/metrics"
	"github.com/shashiranjanraj/pehnawa/pkg/queue"
)

// SSE event names on the admin order stream.
const (
	FeedOrderPlaced  = "order.placed"
	FeedOrderUpdated = "order.updated"
	FeedProduct      = "product.changed"
)

// Publisher is the admin live feed (an *sse.Broker in production).
type Publisher interface {
	Publish(name string, data any) error
}

// Broadcaster is the public stock feed (a *ws.Hub in production).
type Broadcaster interface {
	Broadcast(v any) error
}

// Invalidator drops cached catalog reads.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Deps are optional; a nil field switches that reaction off.
type Deps struct {
	Queue   *queue.Manager
	Feed    Publisher
	Stock   Broadcaster
	Catalog Invalidator
	Now     func() time.Time
}

// Register attaches every listener to d.
func Register(d *event.Dispatcher, deps Deps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	l := &listeners{Deps: deps}
	d.Listen(services.EventOrderPlaced, l.orderPlaced)
	d.Listen(services.EventOrderStatusChanged, l.orderStatusChanged)
	d.Listen(services.EventStockChanged, l.stockChanged)
	d.Listen(services.EventProductChanged, l.productChanged)
}

type listeners struct {
	Deps
}

func (l *listeners) orderPlaced(ctx context.Context, payload any) error {
	e, ok := payload.(services.OrderPlaced)
	if !ok || e.Order == nil {
		return fmt.Errorf("listeners: unexpected payload %T", payload)
	}
	o := e.Order
	metrics.RecordOrderPlaced(ctx, o.PaymentMethod, o.IsGuest, o.Total)

	var errs error
	if l.Queue != nil {
		if err := l.Queue.Dispatch(ctx, &jobs.OrderConfirmation{OrderID: o.ID}); err != nil {
			errs = fmt.Errorf("queue confirmation for order %d: %w", o.ID, err)
		}
	}
	l.publish(ctx, FeedOrderPlaced, resources.NewOrderEvent(o, "", l.Now()))
	return errs
}

func (l *listeners) orderStatusChanged(ctx context.Context, payload any) error {
	e, ok := payload.(services.OrderStatusChanged)
	if !ok || e.Order == nil {
		return fmt.Errorf("listeners: unexpected payload %T", payload)
	}
	metrics.RecordOrderTransition(e.From, e.To)

	var errs error
	if l.Queue != nil {
		job := &jobs.OrderStatusUpdate{OrderID: e.Order.ID, Status: e.To}
		if err := l.Queue.Dispatch(ctx, job); err != nil {
			errs = fmt.Errorf("queue status mail for order %d: %w", e.Order.ID, err)
		}
	}
	l.publish(ctx, FeedOrderUpdated, resources.NewOrderEvent(e.Order, e.From, l.Now()))
	return errs
}

func (l *listeners) stockChanged(ctx context.Context, payload any) error {
	e, ok := payload.(services.StockChanged)
	if !ok {
		return fmt.Errorf("listeners: unexpected payload %T", payload)
	}
	// Catalog writes invalidate on their own; orders and cancellations don't.
	if l.Catalog != nil && (e.Reason == "order" || e.Reason == "cancel") {
		l.Catalog.Invalidate(ctx)
	}
	if l.Stock == nil || len(e.Levels) == 0 {
		return nil
	}
	return l.Stock.Broadcast(e)
}

func (l *listeners) productChanged(ctx context.Context, payload any) error {
	e, ok := payload.(services.ProductChanged)
	if !ok {
		return fmt.Errorf("listeners: unexpected payload %T", payload)
	}
	logger.WithCtx(ctx).Debug("catalog: product changed", "product_id", e.ID, "slug", e.Slug)
	l.publish(ctx, FeedProduct, e)
	return nil
}

func (l *listeners) publish(ctx context.Context, name string, data any) {
	if l.Feed == nil {
		return
	}
	if err := l.Feed.Publish(name, data); err != nil {
		logger.WithCtx(ctx).Warn("listeners: feed publish failed", "event", name, "error", err)
	}
}
