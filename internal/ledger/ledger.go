// Package ledger runs chip mutations as retried compare-and-set units of work.
package ledger

import (
	"context"
	"errors"
	"expvar"
	"time"

	"chiptable/internal/apperr"
	"chiptable/internal/store"

	"github.com/rs/zerolog/log"
)

var (
	ErrContention          = apperr.New(apperr.KindConflict, "contention", "The table is busy, please retry")
	ErrInsufficientBalance = apperr.New(apperr.KindBusinessRule, "insufficient_balance", "Insufficient chips")
	ErrInvalidAmount       = apperr.New(apperr.KindValidation, "invalid_amount", "Invalid amount")
)

var metricCASRetries = expvar.NewInt("ledger_cas_retries_total")

const defaultMaxAttempts = 5

type Ledger struct {
	runner      store.TxRunner
	maxAttempts int
	backoff     time.Duration
}

func New(runner store.TxRunner, maxAttempts int) *Ledger {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Ledger{runner: runner, maxAttempts: maxAttempts, backoff: 5 * time.Millisecond}
}

// Update runs fn as one unit of work. A version conflict discards the unit
// and runs fn again from fresh reads; fn must therefore not keep state
// between calls.
func (l *Ledger) Update(ctx context.Context, op string, fn func(store.Querier) error) error {
	for attempt := 1; ; attempt++ {
		err := l.runner.InTx(ctx, fn)
		if !errors.Is(err, store.ErrConflict) {
			return err
		}
		if attempt >= l.maxAttempts {
			log.Warn().Str("op", op).Int("attempts", attempt).Msg("ledger_contention")
			return ErrContention
		}
		metricCASRetries.Add(1)
		log.Debug().Str("op", op).Int("attempt", attempt).Msg("ledger_cas_retry")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * l.backoff):
		}
	}
}

// View runs a read-only unit of work.
func (l *Ledger) View(ctx context.Context, fn func(store.Querier) error) error {
	return l.runner.InTx(ctx, fn)
}

// Debit removes amount from the account's balance and writes it back.
func Debit(ctx context.Context, q store.Querier, a *store.Account, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if a.Balance < amount {
		return ErrInsufficientBalance
	}
	a.Balance -= amount
	return q.UpdateAccount(ctx, a)
}

// Credit adds amount to the account's balance and writes it back.
func Credit(ctx context.Context, q store.Querier, a *store.Account, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	if amount == 0 {
		return nil
	}
	a.Balance += amount
	return q.UpdateAccount(ctx, a)
}

// EnsureAccount loads the account for id, opening it with startingBalance
// on first use. A concurrent first use surfaces as store.ErrConflict so the
// enclosing Update retries and finds the row.
func EnsureAccount(ctx context.Context, q store.Querier, id, displayName string, startingBalance int64) (*store.Account, error) {
	a, err := q.GetAccount(ctx, id)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if startingBalance < 0 {
		startingBalance = 0
	}
	fresh := store.Account{ID: id, DisplayName: displayName, Balance: startingBalance}
	if err := q.InsertAccount(ctx, fresh); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	log.Info().Str("identity_id", id).Int64("balance", startingBalance).Msg("account_opened")
	return q.GetAccount(ctx, id)
}
