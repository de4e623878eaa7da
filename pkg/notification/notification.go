// Package notification fans a notification out to mail and Slack.
//
//	type LowStockDigest struct{ Products []models.Product }
//	func (LowStockDigest) Via() []string { return []string{notification.ChannelMail, notification.ChannelSlack} }
//	func (d LowStockDigest) ToMail() notification.MailData { ... }
//	func (d LowStockDigest) ToSlack() notification.SlackData { ... }
//
//	notifier.Send(ctx, "ops@pehnawa.pk", LowStockDigest{...})
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shashiranjanraj/pehnawa/pkg/http"
	"github.com/shashiranjanraj/pehnawa/pkg/mail"
)

const (
	ChannelMail  = "mail"
	ChannelSlack = "slack"
)

type MailData struct {
	Subject string
	HTML    string
	Text    string
}

type SlackData struct {
	Text        string
	Attachments []SlackAttachment
}

type SlackAttachment struct {
	Color  string `json:"color,omitempty"`
	Title  string `json:"title,omitempty"`
	Text   string `json:"text,omitempty"`
	Footer string `json:"footer,omitempty"`
}

// Notification names the channels it goes out on.
type Notification interface {
	Via() []string
}

type Mailable interface {
	ToMail() MailData
}

type Slackable interface {
	ToSlack() SlackData
}

type Notifier struct {
	mailer       mail.Mailer
	client       *http.Client
	slackWebhook string
}

// New returns a notifier. An empty slackWebhook silently skips the Slack
// channel.
func New(mailer mail.Mailer, client *http.Client, slackWebhook string) *Notifier {
	return &Notifier{mailer: mailer, client: client, slackWebhook: slackWebhook}
}

// Send delivers n on every channel it asks for and joins the failures.
func (nt *Notifier) Send(ctx context.Context, to string, n Notification) error {
	var errs []error
	for _, ch := range n.Via() {
		if err := nt.deliver(ctx, to, ch, n); err != nil {
			errs = append(errs, fmt.Errorf("notification %s: %w", ch, err))
		}
	}
	return errors.Join(errs...)
}

func (nt *Notifier) deliver(ctx context.Context, to, channel string, n Notification) error {
	switch channel {
	case ChannelMail:
		m, ok := n.(Mailable)
		if !ok {
			return fmt.Errorf("%T is not mailable", n)
		}
		if to == "" {
			return errors.New("no recipient")
		}
		d := m.ToMail()
		return nt.mailer.Send(ctx, mail.Message{To: []string{to}, Subject: d.Subject, HTML: d.HTML, Text: d.Text, Tag: "notification"})

	case ChannelSlack:
		s, ok := n.(Slackable)
		if !ok {
			return fmt.Errorf("%T is not slackable", n)
		}
		if nt.slackWebhook == "" || nt.client == nil {
			return nil
		}
		d := s.ToSlack()
		resp, err := nt.client.Post(nt.slackWebhook).
			Body(map[string]any{"text": d.Text, "attachments": d.Attachments}).
			Retry(2, 500*time.Millisecond).
			Send(ctx)
		if err != nil {
			return err
		}
		return resp.Throw()

	default:
		return fmt.Errorf("unknown channel %q", channel)
	}
}
