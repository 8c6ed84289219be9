package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemStoreRollsBackOnError(t *testing.T) {
	ms := NewMemStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := ms.InTx(ctx, func(q Querier) error {
		if err := q.InsertAccount(ctx, Account{ID: "a1", Balance: 500}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	err = ms.InTx(ctx, func(q Querier) error {
		_, err := q.GetAccount(ctx, "a1")
		return err
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after rollback, got %v", err)
	}
}

func TestMemStoreVersionConflict(t *testing.T) {
	ms := NewMemStore()
	ctx := context.Background()
	if err := ms.InTx(ctx, func(q Querier) error {
		return q.InsertAccount(ctx, Account{ID: "a1", Balance: 500})
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var stale *Account
	_ = ms.InTx(ctx, func(q Querier) error {
		a, err := q.GetAccount(ctx, "a1")
		stale = a
		return err
	})
	if err := ms.InTx(ctx, func(q Querier) error {
		a, err := q.GetAccount(ctx, "a1")
		if err != nil {
			return err
		}
		a.Balance = 400
		if err := q.UpdateAccount(ctx, a); err != nil {
			return err
		}
		if a.Version != 2 {
			t.Fatalf("expected version bump, got %d", a.Version)
		}
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	err := ms.InTx(ctx, func(q Querier) error {
		stale.Balance = 0
		return q.UpdateAccount(ctx, stale)
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestMemStoreUniqueAndCheckConstraints(t *testing.T) {
	ms := NewMemStore()
	ctx := context.Background()

	cases := []struct {
		name string
		fn   func(q Querier) error
		want error
	}{
		{
			name: "negative balance",
			fn: func(q Querier) error {
				return q.InsertAccount(ctx, Account{ID: "neg", Balance: -1})
			},
			want: ErrConstraint,
		},
		{
			name: "duplicate room code",
			fn: func(q Querier) error {
				if err := q.InsertTable(ctx, Table{ID: "t1", RoomCode: "ABCDE"}); err != nil {
					return err
				}
				return q.InsertTable(ctx, Table{ID: "t2", RoomCode: "ABCDE"})
			},
			want: ErrDuplicate,
		},
		{
			name: "second seat for identity",
			fn: func(q Querier) error {
				if err := q.InsertSeat(ctx, Seat{ID: "s1", TableID: "t1", IdentityID: "u1", Stack: 10}); err != nil {
					return err
				}
				return q.InsertSeat(ctx, Seat{ID: "s2", TableID: "t1", IdentityID: "u1", Stack: 10})
			},
			want: ErrDuplicate,
		},
		{
			name: "second active session",
			fn: func(q Querier) error {
				if err := q.InsertGameSession(ctx, GameSession{ID: "g1", IdentityID: "u1", TableID: "t1", Active: true}); err != nil {
					return err
				}
				return q.InsertGameSession(ctx, GameSession{ID: "g2", IdentityID: "u1", TableID: "t1", Active: true})
			},
			want: ErrDuplicate,
		},
		{
			name: "duplicate achievement",
			fn: func(q Querier) error {
				if err := q.InsertAchievement(ctx, Achievement{ID: "x1", IdentityID: "u1", Kind: "first_purchase"}); err != nil {
					return err
				}
				return q.InsertAchievement(ctx, Achievement{ID: "x2", IdentityID: "u1", Kind: "first_purchase"})
			},
			want: ErrDuplicate,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ms.InTx(ctx, tc.fn)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestMemStoreListingsNewestFirst(t *testing.T) {
	ms := NewMemStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := ms.InTx(ctx, func(q Querier) error {
		for i := 0; i < 60; i++ {
			if err := q.InsertActivity(ctx, Activity{ID: newIDAt(base.Add(time.Duration(i) * time.Second)), TableID: "t1", Kind: "check"}); err != nil {
				return err
			}
		}
		return q.InsertActivity(ctx, Activity{ID: NewID(), TableID: "t2", Kind: "join"})
	})
	if err != nil {
		t.Fatalf("insert activity: %v", err)
	}

	_ = ms.InTx(ctx, func(q Querier) error {
		items, err := q.ListActivity(ctx, "t1", 50)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(items) != 50 {
			t.Fatalf("expected 50 items, got %d", len(items))
		}
		for i := 1; i < len(items); i++ {
			if items[i-1].ID <= items[i].ID {
				t.Fatalf("activity not newest first at %d", i)
			}
		}
		return nil
	})
}

func TestMemStorePaymentMetadataIsolated(t *testing.T) {
	ms := NewMemStore()
	ctx := context.Background()
	meta := map[string]string{"package": "starter"}
	if err := ms.InTx(ctx, func(q Querier) error {
		return q.InsertPayment(ctx, Payment{ID: "p1", IdentityID: "u1", CheckoutRef: "cs_1", Chips: 1000, Status: PaymentPending, Metadata: meta})
	}); err != nil {
		t.Fatalf("insert payment: %v", err)
	}
	meta["package"] = "changed"

	_ = ms.InTx(ctx, func(q Querier) error {
		p, err := q.GetPaymentByCheckoutRef(ctx, "cs_1")
		if err != nil {
			t.Fatalf("get payment: %v", err)
		}
		if p.Metadata["package"] != "starter" {
			t.Fatalf("metadata leaked caller mutation: %+v", p.Metadata)
		}
		return nil
	})
}

func TestMemStoreOverlappingWriteConflicts(t *testing.T) {
	ms := NewMemStore()
	ctx := context.Background()
	if err := ms.InTx(ctx, func(q Querier) error {
		return q.InsertAccount(ctx, Account{ID: "a1", Balance: 500})
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	err := ms.InTx(ctx, func(q Querier) error {
		a, err := q.GetAccount(ctx, "a1")
		if err != nil {
			return err
		}
		// A second unit commits between this unit's read and its commit.
		if err := ms.InTx(ctx, func(inner Querier) error {
			b, err := inner.GetAccount(ctx, "a1")
			if err != nil {
				return err
			}
			b.Balance = 300
			return inner.UpdateAccount(ctx, b)
		}); err != nil {
			t.Fatalf("inner unit: %v", err)
		}
		a.Balance = 900
		return q.UpdateAccount(ctx, a)
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict at commit, got %v", err)
	}

	_ = ms.InTx(ctx, func(q Querier) error {
		a, err := q.GetAccount(ctx, "a1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if a.Balance != 300 || a.Version != 2 {
			t.Fatalf("expected inner write to survive, got %+v", a)
		}
		return nil
	})
}

func TestMemStoreOverlappingInsertConflicts(t *testing.T) {
	ms := NewMemStore()
	ctx := context.Background()
	seat := func(id string) Seat {
		return Seat{ID: id, TableID: "t1", IdentityID: "ann", Stack: 1000, Seated: true, Online: true}
	}

	err := ms.InTx(ctx, func(q Querier) error {
		if err := ms.InTx(ctx, func(inner Querier) error {
			return inner.InsertSeat(ctx, seat("s1"))
		}); err != nil {
			t.Fatalf("inner unit: %v", err)
		}
		return q.InsertSeat(ctx, seat("s2"))
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict for duplicate seat, got %v", err)
	}
}

func TestMemStoreKeepsAppendsFromBothUnits(t *testing.T) {
	ms := NewMemStore()
	ctx := context.Background()

	err := ms.InTx(ctx, func(q Querier) error {
		if err := ms.InTx(ctx, func(inner Querier) error {
			return inner.InsertActivity(ctx, Activity{ID: "inner", TableID: "t1"})
		}); err != nil {
			t.Fatalf("inner unit: %v", err)
		}
		return q.InsertActivity(ctx, Activity{ID: "outer", TableID: "t1"})
	})
	if err != nil {
		t.Fatalf("outer unit: %v", err)
	}
	_ = ms.InTx(ctx, func(q Querier) error {
		got, _ := q.ListActivity(ctx, "t1", 10)
		if len(got) != 2 {
			t.Fatalf("expected both entries, got %+v", got)
		}
		return nil
	})
}
