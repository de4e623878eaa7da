package jobs

import (
	"context"
	"fmt"
	"html/template"

	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/pkg/apperr"
	"github.com/shashiranjanraj/pehnawa/pkg/logger"
	"github.com/shashiranjanraj/pehnawa/pkg/mail"
)

var orderTemplates = template.Must(template.New("order").Funcs(template.FuncMap{
	"money": FormatMoney,
}).Parse(`
{{define "confirmation"}}<p>Hi {{.Name}},</p>
<p>Thank you for your order <strong>{{.Order.OrderNumber}}</strong>. We will let you know when it ships.</p>
<table>
{{range .Order.Items}}<tr><td>{{.Name}}{{if .Size}} ({{.Size}}{{if .Color}}, {{.Color}}{{end}}){{end}}</td><td>x{{.Quantity}}</td><td>{{money .Total}}</td></tr>
{{end}}<tr><td colspan="2">Subtotal</td><td>{{money .Order.Subtotal}}</td></tr>
<tr><td colspan="2">Shipping</td><td>{{money .Order.Shipping}}</td></tr>
<tr><td colspan="2"><strong>Total</strong></td><td><strong>{{money .Order.Total}}</strong></td></tr>
</table>{{end}}

{{define "status"}}<p>Hi {{.Name}},</p>
<p>Your order <strong>{{.Order.OrderNumber}}</strong> is now <strong>{{.Order.Status}}</strong>.</p>
{{if .Order.TrackingNumber}}<p>Tracking number: {{.Order.TrackingNumber}}{{if .Order.Carrier}} ({{.Order.Carrier}}){{end}}</p>{{end}}{{end}}
`))

type orderMailData struct {
	Name  string
	Order *models.Order
}

// OrderConfirmation mails the customer a receipt for a placed order.
type OrderConfirmation struct {
	OrderID uint `json:"order_id"`

	mailer mail.Mailer
	orders orderFinder
	store  string
}

func (j *OrderConfirmation) JobName() string { return NameOrderConfirmation }

func (j *OrderConfirmation) Handle(ctx context.Context) error {
	o, err := j.orders.FindByID(ctx, j.OrderID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			logger.WithCtx(ctx).Warn("jobs: order vanished before confirmation", "order_id", j.OrderID)
			return nil
		}
		return err
	}
	to := o.ContactEmail()
	if to == "" {
		return nil
	}
	html, err := mail.Render(orderTemplates, "confirmation", orderMailData{Name: customerName(o), Order: o})
	if err != nil {
		return err
	}
	return j.mailer.Send(ctx, mail.Message{
		To:      []string{to},
		Subject: subject(j.store, "order %s confirmed", o.OrderNumber),
		HTML:    html,
		Text:    fmt.Sprintf("Thank you for your order %s. Total: %s", o.OrderNumber, FormatMoney(o.Total)),
		Tag:     "order-confirmation",
	})
}

// OrderStatusUpdate tells the customer their order moved on.
type OrderStatusUpdate struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`

	mailer mail.Mailer
	orders orderFinder
	store  string
}

func (j *OrderStatusUpdate) JobName() string { return NameOrderStatus }

func (j *OrderStatusUpdate) Handle(ctx context.Context) error {
	o, err := j.orders.FindByID(ctx, j.OrderID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil
		}
		return err
	}
	// A later transition supersedes this one; that job sends its own mail.
	if o.Status != j.Status {
		return nil
	}
	to := o.ContactEmail()
	if to == "" {
		return nil
	}
	html, err := mail.Render(orderTemplates, "status", orderMailData{Name: customerName(o), Order: o})
	if err != nil {
		return err
	}
	return j.mailer.Send(ctx, mail.Message{
		To:      []string{to},
		Subject: subject(j.store, "order %s is %s", o.OrderNumber, o.Status),
		HTML:    html,
		Text:    fmt.Sprintf("Your order %s is now %s.", o.OrderNumber, o.Status),
		Tag:     "order-status",
	})
}
