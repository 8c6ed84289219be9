package payments

import (
	"encoding/json"
	"strconv"
	"strings"

	"chiptable/internal/apperr"
)

const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

var ErrMalformedEvent = apperr.New(apperr.KindValidation, "malformed_event", "Malformed payment event")

// Completion is the provider's account of a finished checkout. Chips comes
// from the checkout metadata and is informational; settlement credits the
// amount recorded on the payment itself.
type Completion struct {
	CheckoutRef   string
	IdentityID    string
	PackageID     string
	Chips         int64
	AmountCents   int64
	PaymentIntent string
	Method        string
	CustomerEmail string
	Metadata      map[string]string
}

type Event struct {
	ID         string
	Type       string
	Completion *Completion
}

type rawEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object rawCheckout `json:"object"`
	} `json:"data"`
}

type rawCheckout struct {
	ID                 string            `json:"id"`
	PaymentIntent      string            `json:"payment_intent"`
	AmountTotal        int64             `json:"amount_total"`
	CustomerEmail      string            `json:"customer_email"`
	PaymentMethodTypes []string          `json:"payment_method_types"`
	Metadata           map[string]string `json:"metadata"`
}

// ParseEvent decodes a notification body. Checkout events always carry a
// Completion; other event types are returned with a nil Completion so the
// caller can acknowledge and ignore them.
func ParseEvent(payload []byte) (*Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, ErrMalformedEvent
	}
	if raw.Type == "" {
		return nil, ErrMalformedEvent
	}
	ev := &Event{ID: raw.ID, Type: raw.Type}
	if raw.Type != EventCheckoutCompleted && raw.Type != EventCheckoutExpired {
		return ev, nil
	}
	obj := raw.Data.Object
	if strings.TrimSpace(obj.ID) == "" {
		return nil, ErrMalformedEvent
	}
	c := &Completion{
		CheckoutRef:   obj.ID,
		PaymentIntent: obj.PaymentIntent,
		AmountCents:   obj.AmountTotal,
		CustomerEmail: obj.CustomerEmail,
		Metadata:      obj.Metadata,
	}
	if len(obj.PaymentMethodTypes) > 0 {
		c.Method = obj.PaymentMethodTypes[0]
	}
	if obj.Metadata != nil {
		c.IdentityID = obj.Metadata["user_id"]
		c.PackageID = obj.Metadata["package_id"]
		if n, err := strconv.ParseInt(obj.Metadata["chips"], 10, 64); err == nil {
			c.Chips = n
		}
	}
	ev.Completion = c
	return ev, nil
}
