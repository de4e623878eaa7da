// Package mail sends transactional e-mail through one of several drivers:
// smtp, sendgrid, postmark or log (writes the message to the application log).
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// Message is one outgoing e-mail.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
	Tag     string
}

func (m Message) validate() error {
	if len(m.To) == 0 {
		return errors.New("mail: no recipients")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("mail: empty subject")
	}
	if m.HTML == "" && m.Text == "" {
		return errors.New("mail: empty body")
	}
	return nil
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Config selects and configures a driver.
type Config struct {
	Driver   string
	From     string
	FromName string

	Host     string
	Port     string
	Username string
	Password string

	SendGridAPIKey string
	PostmarkToken  string
}

// New builds the mailer named by cfg.Driver.
func New(cfg Config) (Mailer, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "log":
		return NewLogMailer(cfg.From), nil
	case "smtp":
		if cfg.Host == "" {
			return nil, errors.New("mail: MAIL_HOST is required for the smtp driver")
		}
		return NewSMTPMailer(cfg), nil
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, errors.New("mail: SENDGRID_API_KEY is required for the sendgrid driver")
		}
		return NewSendGridMailer(cfg.SendGridAPIKey, cfg.From, cfg.FromName), nil
	case "postmark":
		if cfg.PostmarkToken == "" {
			return nil, errors.New("mail: POSTMARK_API_TOKEN is required for the postmark driver")
		}
		return NewPostmarkMailer(cfg.PostmarkToken, cfg.From), nil
	default:
		return nil, fmt.Errorf("mail: unknown driver %q", cfg.Driver)
	}
}

// Render executes the named template into an HTML string.
func Render(t *template.Template, name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("mail: render %s: %w", name, err)
	}
	return buf.String(), nil
}
