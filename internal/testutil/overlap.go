package testutil

import (
	"context"
	"expvar"
	"sync"

	"chiptable/internal/store"
)

// OverlapRunner wraps a TxRunner. After OverlapNext(n), the next n units of
// work are held once their reads are done until all n have read, so they
// all start from the same state and all but one must fail at commit.
type OverlapRunner struct {
	Inner store.TxRunner

	mu    sync.Mutex
	gate  *sync.WaitGroup
	slots int
}

func (r *OverlapRunner) OverlapNext(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gate = &sync.WaitGroup{}
	r.gate.Add(n)
	r.slots = n
}

func (r *OverlapRunner) InTx(ctx context.Context, fn func(store.Querier) error) error {
	r.mu.Lock()
	var gate *sync.WaitGroup
	if r.slots > 0 {
		r.slots--
		gate = r.gate
	}
	r.mu.Unlock()
	if gate == nil {
		return r.Inner.InTx(ctx, fn)
	}
	return r.Inner.InTx(ctx, func(q store.Querier) error {
		err := fn(q)
		gate.Done()
		gate.Wait()
		return err
	})
}

// CASRetries reads the ledger's retry counter.
func CASRetries() int64 {
	v, ok := expvar.Get("ledger_cas_retries_total").(*expvar.Int)
	if !ok {
		return 0
	}
	return v.Value()
}
