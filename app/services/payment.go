package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shashiranjanraj/pehnawa/pkg/crypt"
	apphttp "github.com/shashiranjanraj/pehnawa/pkg/http"
)

// PaymentIntent is what the gateway needs to start collecting a payment.
type PaymentIntent struct {
	OrderNumber string `json:"orderNumber"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Method      string `json:"method"`
	Email       string `json:"email,omitempty"`
}

// PaymentGateway starts an external payment and returns the client secret
// the storefront hands to the payment widget.
type PaymentGateway interface {
	Initiate(ctx context.Context, in PaymentIntent) (string, error)
}

// LocalGateway issues sealed tokens without calling out. It is the default
// for development and tests.
type LocalGateway struct {
	box *crypt.Box
	now func() time.Time
}

func NewLocalGateway(secret string) (*LocalGateway, error) {
	box, err := crypt.NewBox(secret)
	if err != nil {
		return nil, err
	}
	return &LocalGateway{box: box, now: time.Now}, nil
}

type localIntent struct {
	PaymentIntent
	IssuedAt int64 `json:"iat"`
}

func (g *LocalGateway) Initiate(_ context.Context, in PaymentIntent) (string, error) {
	sealed, err := g.box.SealJSON(localIntent{PaymentIntent: in, IssuedAt: g.now().Unix()})
	if err != nil {
		return "", fmt.Errorf("payment: seal intent: %w", err)
	}
	return "pi_local_" + sealed, nil
}

// Inspect opens a token issued by Initiate.
func (g *LocalGateway) Inspect(token string) (PaymentIntent, error) {
	var li localIntent
	err := g.box.OpenJSON(strings.TrimPrefix(token, "pi_local_"), &li)
	return li.PaymentIntent, err
}

// HTTPGateway posts the intent to a payment provider's API.
type HTTPGateway struct {
	client *apphttp.Client
	url    string
	apiKey string
}

func NewHTTPGateway(client *apphttp.Client, url, apiKey string) *HTTPGateway {
	return &HTTPGateway{client: client, url: url, apiKey: apiKey}
}

func (g *HTTPGateway) Initiate(ctx context.Context, in PaymentIntent) (string, error) {
	resp, err := g.client.Post(g.url).
		Bearer(g.apiKey).
		Header("Idempotency-Key", in.OrderNumber).
		Body(in).
		Retry(3, 200*time.Millisecond).
		Send(ctx)
	if err != nil {
		return "", fmt.Errorf("payment: %w", err)
	}
	if err := resp.Throw(); err != nil {
		return "", fmt.Errorf("payment: %w", err)
	}

	var out struct {
		ID           string `json:"id"`
		ClientSecret string `json:"clientSecret"`
	}
	if err := resp.JSON(&out); err != nil {
		return "", fmt.Errorf("payment: %w", err)
	}
	if out.ClientSecret != "" {
		return out.ClientSecret, nil
	}
	if out.ID == "" {
		return "", errors.New("payment: provider answered without an id")
	}
	return out.ID, nil
}

// NewPaymentGateway builds the gateway named by driver ("local" or "http").
func NewPaymentGateway(driver, secret, url, apiKey string, client *apphttp.Client) (PaymentGateway, error) {
	switch strings.ToLower(driver) {
	case "", "local":
		return NewLocalGateway(secret)
	case "http":
		if url == "" {
			return nil, errors.New("payment: PAYMENT_API_URL is required for the http driver")
		}
		return NewHTTPGateway(client, url, apiKey), nil
	default:
		return nil, fmt.Errorf("payment: unknown driver %q", driver)
	}
}
