package payments

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"chiptable/internal/apperr"

	"github.com/stripe/stripe-go/v82/webhook"
)

// SignatureHeader carries "t=<unix seconds>,v1=<hex hmac>" over
// "<t>.<raw body>", keyed by the endpoint's webhook secret.
const SignatureHeader = "Stripe-Signature"

const DefaultTolerance = 5 * time.Minute

var ErrBadSignature = apperr.New(apperr.KindUpstream, "bad_signature", "Webhook signature verification failed").
	WithStatus(http.StatusBadRequest)

type Verifier struct {
	Secret    string
	Tolerance time.Duration
}

func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Verifier{Secret: secret, Tolerance: tolerance}
}

// Verify checks header against payload as of now. Any v1 entry may match,
// which lets the provider roll secrets.
func (v *Verifier) Verify(payload []byte, header string, now time.Time) error {
	if v.Secret == "" {
		return ErrBadSignature
	}
	signedAt, err := SignedAt(header)
	if err != nil {
		return err
	}
	age := now.Sub(signedAt)
	if age > v.Tolerance || age < -v.Tolerance {
		return ErrBadSignature
	}
	if err := webhook.ValidatePayloadIgnoringTolerance(payload, header, v.Secret); err != nil {
		return ErrBadSignature
	}
	return nil
}

// SignedAt returns the timestamp carried by header.
func SignedAt(header string) (time.Time, error) {
	for _, part := range strings.Split(header, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || k != "t" {
			continue
		}
		ts, err := strconv.ParseInt(val, 10, 64)
		if err != nil || ts <= 0 {
			return time.Time{}, ErrBadSignature
		}
		return time.Unix(ts, 0), nil
	}
	return time.Time{}, ErrBadSignature
}

// Sign produces a header value for payload at t.
func Sign(secret string, payload []byte, t time.Time) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: t,
		Scheme:    "v1",
	}).Header
}
