package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"chiptable/internal/config"
	"chiptable/internal/game"
	"chiptable/internal/ledger"
	"chiptable/internal/payments"
	"chiptable/internal/store"

	"github.com/rs/zerolog/log"
)

type Service struct {
	ledger   *ledger.Ledger
	provider payments.CheckoutProvider
	cfg      config.PaymentConfig
	starting int64
	now      func() time.Time
}

func NewService(l *ledger.Ledger, provider payments.CheckoutProvider, cfg config.PaymentConfig, startingBalance int64) *Service {
	return &Service{
		ledger:   l,
		provider: provider,
		cfg:      cfg,
		starting: startingBalance,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Checkout opens a provider checkout for packageID and records the payment
// as pending under the provider's reference.
func (s *Service) Checkout(ctx context.Context, identityID, packageID string) (*CheckoutResult, error) {
	if identityID == "" || packageID == "" {
		return nil, ErrMissingFields
	}
	pkg, ok := FindPackage(packageID)
	if !ok {
		return nil, ErrInvalidPackage
	}
	base := strings.TrimRight(s.cfg.PublicURL, "/")
	meta := map[string]string{
		"user_id":    identityID,
		"package_id": pkg.ID,
		"chips":      strconv.FormatInt(pkg.Chips, 10),
	}
	sess, err := s.provider.CreateCheckout(ctx, payments.CheckoutRequest{
		IdentityID:  identityID,
		PackageID:   pkg.ID,
		Name:        pkg.Name,
		Description: pkg.Description,
		AmountCents: pkg.PriceCents,
		Currency:    "usd",
		SuccessURL:  base + "/?payment_status=success",
		CancelURL:   base + "/?payment_status=cancelled",
		Metadata:    meta,
	})
	if err != nil {
		log.Error().Err(err).Str("identity_id", identityID).Str("package_id", pkg.ID).Msg("checkout_provider_failed")
		return nil, ErrProviderUnavailable
	}

	err = s.ledger.Update(ctx, "checkout", func(q store.Querier) error {
		if _, err := ledger.EnsureAccount(ctx, q, identityID, "", s.starting); err != nil {
			return err
		}
		return q.InsertPayment(ctx, store.Payment{
			ID:          store.NewID(),
			IdentityID:  identityID,
			CheckoutRef: sess.Ref,
			PackageID:   pkg.ID,
			AmountCents: pkg.PriceCents,
			Chips:       pkg.Chips,
			Currency:    "usd",
			Status:      store.PaymentPending,
			Metadata:    map[string]string{"package_id": pkg.ID, "package_name": pkg.Name},
			CreatedAt:   s.now(),
		})
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("identity_id", identityID).Str("checkout_ref", sess.Ref).Str("package_id", pkg.ID).Msg("checkout_created")
	return &CheckoutResult{CheckoutURL: sess.URL, CheckoutRef: sess.Ref}, nil
}

// Settle applies a completed checkout exactly once per checkout reference.
// The status check happens before any balance change, in the same unit of
// work that credits the account, so concurrent deliveries of the same
// notification serialize on the payment row version.
func (s *Service) Settle(ctx context.Context, c payments.Completion) (*SettleResult, error) {
	if c.CheckoutRef == "" {
		return nil, ErrMissingFields
	}
	var out SettleResult
	err := s.ledger.Update(ctx, "settle", func(q store.Querier) error {
		out = SettleResult{CheckoutRef: c.CheckoutRef}
		p, err := q.GetPaymentByCheckoutRef(ctx, c.CheckoutRef)
		recovered := false
		if errors.Is(err, store.ErrNotFound) {
			p, err = s.unrecordedPayment(c)
			recovered = true
		}
		if err != nil {
			return err
		}
		out.IdentityID = p.IdentityID
		if p.Status == store.PaymentCompleted {
			out.AlreadySettled = true
			return nil
		}
		if c.IdentityID != "" && c.IdentityID != p.IdentityID {
			log.Error().Str("checkout_ref", c.CheckoutRef).Str("payment_identity", p.IdentityID).Str("event_identity", c.IdentityID).Msg("settlement_identity_mismatch")
			return ErrPaymentMismatch
		}
		if c.Chips != 0 && c.Chips != p.Chips {
			log.Warn().Str("checkout_ref", c.CheckoutRef).Int64("recorded", p.Chips).Int64("notified", c.Chips).Msg("settlement_chips_differ")
		}

		now := s.now()
		p.Status = store.PaymentCompleted
		p.PaymentIntent = c.PaymentIntent
		p.Method = c.Method
		p.CompletedAt = &now
		if p.Metadata == nil {
			p.Metadata = map[string]string{}
		}
		for k, v := range c.Metadata {
			p.Metadata[k] = v
		}
		if c.CustomerEmail != "" {
			p.Metadata["customer_email"] = c.CustomerEmail
		}
		p.Metadata["session_id"] = c.CheckoutRef
		if recovered {
			if err := q.InsertPayment(ctx, *p); err != nil {
				if errors.Is(err, store.ErrDuplicate) {
					return store.ErrConflict
				}
				return err
			}
		} else if err := q.UpdatePayment(ctx, p); err != nil {
			return err
		}

		acct, err := ledger.EnsureAccount(ctx, q, p.IdentityID, "", s.starting)
		if err != nil {
			return err
		}
		if err := ledger.Credit(ctx, q, acct, p.Chips); err != nil {
			return err
		}
		amount := p.AmountCents
		if c.AmountCents > 0 {
			amount = c.AmountCents
		}
		if err := q.InsertPaymentHistory(ctx, store.PaymentHistory{
			ID:          store.NewID(),
			IdentityID:  p.IdentityID,
			Action:      "purchase",
			AmountCents: amount,
			Chips:       p.Chips,
			Description: fmt.Sprintf("Purchased %s chips - %s", game.FormatChips(p.Chips), p.PackageID),
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		granted, err := grantAchievements(ctx, q, p)
		if err != nil {
			return err
		}
		out.ChipsCredited = p.Chips
		out.Balance = acct.Balance
		out.Achievements = granted
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out.AlreadySettled {
		log.Info().Str("checkout_ref", c.CheckoutRef).Msg("settlement_duplicate_ignored")
	} else {
		log.Info().Str("checkout_ref", c.CheckoutRef).Str("identity_id", out.IdentityID).Int64("chips", out.ChipsCredited).Strs("achievements", out.Achievements).Msg("payment_settled")
	}
	return &out, nil
}

// unrecordedPayment rebuilds the payment row for a completion whose pending
// record was never stored, so a checkout that was paid is still credited.
// The notification must name the buyer and a catalog package; chips come
// from the catalog, not the notification.
func (s *Service) unrecordedPayment(c payments.Completion) (*store.Payment, error) {
	pkg, ok := FindPackage(c.PackageID)
	if c.IdentityID == "" || !ok {
		log.Error().Str("checkout_ref", c.CheckoutRef).Str("identity_id", c.IdentityID).Str("package_id", c.PackageID).Msg("settlement_payment_unknown")
		return nil, ErrPaymentNotFound
	}
	log.Warn().Str("checkout_ref", c.CheckoutRef).Str("identity_id", c.IdentityID).Str("package_id", pkg.ID).Msg("settlement_payment_recovered")
	return &store.Payment{
		ID:          store.NewID(),
		IdentityID:  c.IdentityID,
		CheckoutRef: c.CheckoutRef,
		PackageID:   pkg.ID,
		AmountCents: pkg.PriceCents,
		Chips:       pkg.Chips,
		Currency:    "usd",
		Status:      store.PaymentPending,
		Metadata:    map[string]string{"package_id": pkg.ID, "package_name": pkg.Name, "recovered": "true"},
		CreatedAt:   s.now(),
	}, nil
}

// Fail marks a pending payment as failed. Completed payments are left as
// they are.
func (s *Service) Fail(ctx context.Context, checkoutRef string) error {
	if checkoutRef == "" {
		return ErrMissingFields
	}
	return s.ledger.Update(ctx, "payment_fail", func(q store.Querier) error {
		p, err := q.GetPaymentByCheckoutRef(ctx, checkoutRef)
		if errors.Is(err, store.ErrNotFound) {
			return ErrPaymentNotFound
		}
		if err != nil {
			return err
		}
		if p.Status != store.PaymentPending {
			return nil
		}
		p.Status = store.PaymentFailed
		if err := q.UpdatePayment(ctx, p); err != nil {
			return err
		}
		log.Info().Str("checkout_ref", checkoutRef).Msg("payment_failed")
		return nil
	})
}

// HandleEvent dispatches a verified notification.
func (s *Service) HandleEvent(ctx context.Context, ev *payments.Event) (*SettleResult, error) {
	switch ev.Type {
	case payments.EventCheckoutCompleted:
		return s.Settle(ctx, *ev.Completion)
	case payments.EventCheckoutExpired:
		return nil, s.Fail(ctx, ev.Completion.CheckoutRef)
	default:
		log.Debug().Str("event_type", ev.Type).Msg("payment_event_ignored")
		return nil, nil
	}
}

func describe(p Package) string {
	d := game.FormatChips(p.Chips) + " poker chips"
	if p.Bonus > 0 {
		d += fmt.Sprintf(" (+%d bonus!)", p.Bonus)
	}
	return d
}
