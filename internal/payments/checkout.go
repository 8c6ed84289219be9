package payments

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

type CheckoutRequest struct {
	IdentityID  string
	PackageID   string
	Name        string
	Description string
	AmountCents int64
	Currency    string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

type CheckoutSession struct {
	Ref string
	URL string
}

// CheckoutProvider opens a hosted checkout with the payment provider.
type CheckoutProvider interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

// StripeCheckout opens Stripe checkout sessions in payment mode with one
// inline-priced line item.
type StripeCheckout struct {
	client session.Client
}

// NewStripeCheckout builds a provider for apiKey. baseURL overrides the API
// endpoint and may be empty.
func NewStripeCheckout(apiKey, baseURL string, timeout time.Duration) *StripeCheckout {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(1),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if baseURL != "" {
		cfg.URL = stripe.String(strings.TrimRight(baseURL, "/"))
	}
	return &StripeCheckout{client: session.Client{
		B:   stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
		Key: apiKey,
	}}
}

func (c *StripeCheckout) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	currency := req.Currency
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		ClientReferenceID:  stripe.String(req.IdentityID),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(req.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(req.Name),
					Description: stripe.String(req.Description),
				},
			},
		}},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	sess, err := c.client.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	if sess.ID == "" || sess.URL == "" {
		return nil, fmt.Errorf("checkout session missing id or url")
	}
	return &CheckoutSession{Ref: sess.ID, URL: sess.URL}, nil
}

// LocalCheckout issues references without contacting a provider. The URL
// points at PublicURL so a developer can complete the purchase by posting a
// signed notification.
type LocalCheckout struct {
	PublicURL string
}

func (c LocalCheckout) CreateCheckout(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	ref := "cs_" + uuid.NewString()
	base := strings.TrimRight(c.PublicURL, "/")
	return &CheckoutSession{Ref: ref, URL: base + "/checkout/" + ref + "?package=" + req.PackageID}, nil
}
