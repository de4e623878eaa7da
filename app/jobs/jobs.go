// Package jobs holds the queued background work: customer order mails and
// the admin low-stock digest.
package jobs

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/app/repositories"
	"github.com/shashiranjanraj/pehnawa/pkg/mail"
	"github.com/shashiranjanraj/pehnawa/pkg/notification"
	"github.com/shashiranjanraj/pehnawa/pkg/queue"
)

const (
	NameOrderConfirmation = "mail.order_confirmation"
	NameOrderStatus       = "mail.order_status"
	NameLowStockDigest    = "notify.low_stock_digest"
)

// Deps are the collaborators the job factories hand to each decoded job.
type Deps struct {
	DB                *gorm.DB
	Mailer            mail.Mailer
	Notifier          *notification.Notifier
	StoreName         string
	AdminEmail        string
	LowStockThreshold int
}

// Register makes every job decodable by the queue workers.
func Register(q *queue.Manager, d Deps) {
	orders := repositories.NewOrderRepository(d.DB)
	products := repositories.NewProductRepository(d.DB)

	q.Register(NameOrderConfirmation, func() queue.Job {
		return &OrderConfirmation{mailer: d.Mailer, orders: orders, store: d.StoreName}
	})
	q.Register(NameOrderStatus, func() queue.Job {
		return &OrderStatusUpdate{mailer: d.Mailer, orders: orders, store: d.StoreName}
	})
	q.Register(NameLowStockDigest, func() queue.Job {
		return &LowStockDigestJob{
			notifier:  d.Notifier,
			products:  products,
			to:        d.AdminEmail,
			threshold: d.LowStockThreshold,
		}
	})
}

type orderFinder interface {
	FindByID(ctx context.Context, id uint) (*models.Order, error)
}

// FormatMoney renders whole rupees with thousands separators: "Rs. 12,500".
func FormatMoney(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-Rs. " + b.String()
	}
	return "Rs. " + b.String()
}

func customerName(o *models.Order) string {
	switch {
	case o.Customer.FirstName != "":
		return o.Customer.FirstName
	case o.ShippingAddress.FirstName != "":
		return o.ShippingAddress.FirstName
	case o.User != nil:
		return o.User.FirstName
	}
	return "there"
}

func subject(store, format string, args ...any) string {
	if store == "" {
		store = "Pehnawa"
	}
	return store + ": " + fmt.Sprintf(format, args...)
}
