package jobs

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/pkg/logger"
	"github.com/shashiranjanraj/pehnawa/pkg/notification"
)

var digestTemplate = template.Must(template.New("digest").Parse(
	`<p>{{len .}} products are running low:</p><ul>{{range .}}<li>{{.Name}}: {{.TotalStock}} left</li>{{end}}</ul>`))

// LowStockDigest lists the products under the stock threshold.
type LowStockDigest struct {
	Products  []models.Product
	Threshold int
}

func (LowStockDigest) Via() []string {
	return []string{notification.ChannelMail, notification.ChannelSlack}
}

func (d LowStockDigest) ToMail() notification.MailData {
	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, d.Products); err != nil {
		buf.Reset()
	}
	return notification.MailData{
		Subject: fmt.Sprintf("%d products below %d units", len(d.Products), d.Threshold),
		HTML:    buf.String(),
		Text:    d.text(),
	}
}

func (d LowStockDigest) ToSlack() notification.SlackData {
	return notification.SlackData{
		Text: fmt.Sprintf(":warning: %d products below %d units", len(d.Products), d.Threshold),
		Attachments: []notification.SlackAttachment{{
			Color: "warning",
			Text:  d.text(),
		}},
	}
}

func (d LowStockDigest) text() string {
	var buf bytes.Buffer
	for _, p := range d.Products {
		fmt.Fprintf(&buf, "%s: %d left\n", p.Name, p.TotalStock)
	}
	return buf.String()
}

type lowStockLister interface {
	LowStock(ctx context.Context, threshold, limit int) ([]models.Product, error)
}

// LowStockDigestJob sends the digest to the admin address. Nothing is sent
// when every product is above the threshold.
type LowStockDigestJob struct {
	Limit int `json:"limit"`

	notifier  *notification.Notifier
	products  lowStockLister
	to        string
	threshold int
}

func (j *LowStockDigestJob) JobName() string { return NameLowStockDigest }

func (j *LowStockDigestJob) Handle(ctx context.Context) error {
	if j.notifier == nil || j.to == "" {
		logger.WithCtx(ctx).Debug("jobs: low stock digest skipped, no recipient")
		return nil
	}
	threshold := j.threshold
	if threshold <= 0 {
		threshold = 10
	}
	products, err := j.products.LowStock(ctx, threshold, j.Limit)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return nil
	}
	return j.notifier.Send(ctx, j.to, LowStockDigest{Products: products, Threshold: threshold})
}
