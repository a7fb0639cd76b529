package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/xapi-mis-backend/internal/data/aggregates"
	"github.com/yungbote/xapi-mis-backend/internal/platform/dbctx"
)

// FailingTxRunner wraps a real runner and fails the transaction after the
// aggregate body succeeded, so tests can assert nothing was committed.
type FailingTxRunner struct {
	Inner aggregates.TxRunner
	// FailAfterBody is returned from inside the transaction once the body
	// completed without error. Nil lets the transaction commit.
	FailAfterBody error

	mu       sync.Mutex
	Calls    int
	BodyRuns int
	Failures int
}

var _ aggregates.TxRunner = (*FailingTxRunner)(nil)

func (r *FailingTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.Calls++
	r.mu.Unlock()

	return r.Inner.InTx(ctx, func(dbc dbctx.Context) error {
		if err := fn(dbc); err != nil {
			return err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		r.BodyRuns++
		if r.FailAfterBody != nil {
			r.Failures++
			return r.FailAfterBody
		}
		return nil
	})
}
