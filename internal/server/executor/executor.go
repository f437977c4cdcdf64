// Package executor runs batches of object store operations with a cap on
// how many are in flight at once.
package executor

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/gallerysync/internal/logging"
	"github.com/dmitrijs2005/gallerysync/internal/server/objectstore"
)

type Executor struct {
	store   objectstore.Store
	timeout time.Duration
	logger  logging.Logger
}

// New returns an Executor. A timeout <= 0 disables the per-operation deadline.
func New(store objectstore.Store, timeout time.Duration, logger logging.Logger) *Executor {
	return &Executor{store: store, timeout: timeout, logger: logger}
}

// Run executes ops with at most maxConcurrency of them in flight and blocks
// until every one has settled. results[i] is the outcome of ops[i]. A failed
// operation never cancels the others. Operations that have not started when
// ctx is cancelled settle with the context error.
//
// The returned error is non-nil only when ops is non-empty and all of them
// failed; partial failures are reported through the results alone.
func (e *Executor) Run(ctx context.Context, ops []Operation, maxConcurrency int) ([]Result, error) {
	results := make([]Result, len(ops))
	if len(ops) == 0 {
		return results, nil
	}
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrency)

	for i, op := range ops {
		g.Go(func() error {
			results[i] = Result{Operation: op, Err: e.execute(ctx, op)}
			return nil
		})
	}
	_ = g.Wait()

	failed := Failed(results)
	e.logger.Debug(ctx, "store batch settled", "total", len(ops), "failed", failed, "max_concurrency", maxConcurrency)

	if failed == len(ops) {
		return results, &BatchError{Total: len(ops), First: results[0].Err}
	}
	return results, nil
}

func (e *Executor) execute(ctx context.Context, op Operation) error {
	if err := ctx.Err(); err != nil {
		return &StoreOperationError{Kind: op.Kind, Key: op.Key, Err: err}
	}

	opCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var err error
	switch op.Kind {
	case KindPut:
		err = e.store.Put(opCtx, op.Key, op.Body, op.ContentType, op.PublicRead)
	case KindDelete:
		err = e.store.Delete(opCtx, op.Key)
	case KindDeletePrefix:
		err = e.store.DeletePrefix(opCtx, op.Key)
	default:
		err = errUnknownKind
	}
	if err != nil {
		e.logger.Warn(ctx, "store operation failed", "kind", op.Kind.String(), "key", op.Key, "error", err)
		return &StoreOperationError{Kind: op.Kind, Key: op.Key, Err: err}
	}
	return nil
}
