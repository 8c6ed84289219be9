package httptransport

import (
	"io"
	"net/http"
	"time"

	apppayment "chiptable/internal/app/payment"
	"chiptable/internal/auth"
	"chiptable/internal/payments"

	"github.com/rs/zerolog/log"
)

const maxWebhookBytes = 1 << 20

type PaymentHandlers struct {
	payments *apppayment.Service
	verifier *payments.Verifier
	now      func() time.Time
}

func NewPaymentHandlers(svc *apppayment.Service, verifier *payments.Verifier) *PaymentHandlers {
	return &PaymentHandlers{payments: svc, verifier: verifier, now: time.Now}
}

type checkoutRequest struct {
	PackageID string `json:"package_id"`
}

func (h *PaymentHandlers) Packages() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"items": apppayment.Packages()})
	}
}

func (h *PaymentHandlers) Checkout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		var req checkoutRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		resp, err := h.payments.Checkout(r.Context(), id.ID, req.PackageID)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Webhook accepts provider notifications. The raw body is verified before it
// is parsed; redelivered completions are acknowledged without a second
// credit.
func (h *PaymentHandlers) Webhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
		if err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
			return
		}
		if err := h.verifier.Verify(body, r.Header.Get(payments.SignatureHeader), h.now()); err != nil {
			log.Warn().Err(err).Msg("webhook signature rejected")
			writeAppError(w, r, err)
			return
		}
		ev, err := payments.ParseEvent(body)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		res, err := h.payments.HandleEvent(r.Context(), ev)
		if err != nil {
			metricSettlementErrors.Add(1)
			writeAppError(w, r, err)
			return
		}
		if res != nil {
			metricSettlementTotal.Add(1)
			if res.AlreadySettled {
				metricSettlementReplayTotal.Add(1)
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"received": true})
	}
}
