package ledger

import (
	"context"
	"errors"
	"testing"

	"chiptable/internal/store"
)

type flakyRunner struct {
	inner     store.TxRunner
	conflicts int
	calls     int
}

func (r *flakyRunner) InTx(ctx context.Context, fn func(store.Querier) error) error {
	r.calls++
	if r.calls <= r.conflicts {
		return store.ErrConflict
	}
	return r.inner.InTx(ctx, fn)
}

func seedAccount(t *testing.T, ms *store.MemStore, id string, balance int64) {
	t.Helper()
	err := ms.InTx(context.Background(), func(q store.Querier) error {
		return q.InsertAccount(context.Background(), store.Account{ID: id, Balance: balance})
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
}

func TestUpdateRetriesConflicts(t *testing.T) {
	ms := store.NewMemStore()
	runner := &flakyRunner{inner: ms, conflicts: 2}
	l := New(runner, 5)
	l.backoff = 0

	ran := 0
	err := l.Update(context.Background(), "test", func(store.Querier) error {
		ran++
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if runner.calls != 3 || ran != 1 {
		t.Fatalf("expected 3 attempts and 1 run, got calls=%d ran=%d", runner.calls, ran)
	}
}

func TestUpdateGivesUpWithContention(t *testing.T) {
	runner := &flakyRunner{inner: store.NewMemStore(), conflicts: 10}
	l := New(runner, 3)
	l.backoff = 0

	err := l.Update(context.Background(), "test", func(store.Querier) error { return nil })
	if !errors.Is(err, ErrContention) {
		t.Fatalf("expected contention, got %v", err)
	}
	if runner.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", runner.calls)
	}
}

func TestUpdatePassesThroughOtherErrors(t *testing.T) {
	l := New(store.NewMemStore(), 3)
	boom := errors.New("boom")
	calls := 0
	err := l.Update(context.Background(), "test", func(store.Querier) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("expected single boom, got %v after %d calls", err, calls)
	}
}

func TestDebitCredit(t *testing.T) {
	ms := store.NewMemStore()
	seedAccount(t, ms, "a1", 1000)
	l := New(ms, 3)
	ctx := context.Background()

	cases := []struct {
		name    string
		fn      func(q store.Querier, a *store.Account) error
		want    error
		balance int64
	}{
		{"debit", func(q store.Querier, a *store.Account) error { return Debit(ctx, q, a, 400) }, nil, 600},
		{"debit too much", func(q store.Querier, a *store.Account) error { return Debit(ctx, q, a, 601) }, ErrInsufficientBalance, 600},
		{"debit zero", func(q store.Querier, a *store.Account) error { return Debit(ctx, q, a, 0) }, ErrInvalidAmount, 600},
		{"credit", func(q store.Querier, a *store.Account) error { return Credit(ctx, q, a, 150) }, nil, 750},
		{"credit negative", func(q store.Querier, a *store.Account) error { return Credit(ctx, q, a, -1) }, ErrInvalidAmount, 750},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := l.Update(ctx, tc.name, func(q store.Querier) error {
				a, err := q.GetAccount(ctx, "a1")
				if err != nil {
					return err
				}
				return tc.fn(q, a)
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			_ = l.View(ctx, func(q store.Querier) error {
				a, _ := q.GetAccount(ctx, "a1")
				if a.Balance != tc.balance {
					t.Fatalf("balance = %d, want %d", a.Balance, tc.balance)
				}
				return nil
			})
		})
	}
}

func TestEnsureAccountOpensOnce(t *testing.T) {
	ms := store.NewMemStore()
	l := New(ms, 3)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := l.Update(ctx, "ensure", func(q store.Querier) error {
			a, err := EnsureAccount(ctx, q, "u1", "Ann", 1000)
			if err != nil {
				return err
			}
			if a.Balance != 1000 || a.Version != 1 {
				t.Fatalf("unexpected account %+v", a)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("ensure %d: %v", i, err)
		}
	}
}
