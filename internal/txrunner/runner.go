// Package txrunner implements transaction orchestration:
// begin/commit/rollback, isolation-level control, hook firing, and retry
// across attempts. Mutex-free, since each attempt owns its session
// exclusively. Uses the same `log.Printf` tag style as the rest of the
// module, and a Prometheus counter/histogram pair alongside every state
// transition, the way internal/pool instruments acquire/release.
package txrunner

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joao-brasil/asyncmysql/internal/errs"
	"github.com/joao-brasil/asyncmysql/internal/executor"
	"github.com/joao-brasil/asyncmysql/internal/metrics"
	"github.com/joao-brasil/asyncmysql/internal/pool"
	"github.com/joao-brasil/asyncmysql/internal/txregistry"
)

// Callback is the user block a transaction invocation runs.
type Callback func(ctx context.Context, tx *Transaction) (any, error)

// Runner orchestrates transactions against one pool.
type Runner struct {
	pool     *pool.Pool
	registry *txregistry.Registry
}

// New builds a Runner bound to a pool and its transaction context registry.
func New(p *pool.Pool, registry *txregistry.Registry) *Runner {
	return &Runner{pool: p, registry: registry}
}

// Run executes callback inside a transaction, retrying up to attempts times
// on failure. attempts must be ≥ 1.
func (r *Runner) Run(ctx context.Context, attempts int, isolation string, callback Callback) (any, error) {
	if attempts < 1 {
		return nil, &errs.InvalidArgument{Param: "attempts"}
	}

	var history []errs.AttemptRecord
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		start := time.Now()
		result, err, committed := r.runAttempt(ctx, isolation, callback)

		if committed {
			metrics.TransactionAttempts.Observe(float64(attempt))
			// Data is already durable; a commit-hook error is surfaced to
			// the caller but must never trigger a retry, which would
			// re-run the callback against already-committed changes.
			if err != nil {
				metrics.TransactionOutcomes.WithLabelValues("committed_with_hook_error").Inc()
			} else {
				metrics.TransactionOutcomes.WithLabelValues("committed").Inc()
			}
			return result, err
		}

		lastErr = err
		history = append(history, errs.AttemptRecord{
			Attempt:      attempt,
			ErrorSummary: err.Error(),
			Elapsed:      time.Since(start).String(),
		})
		log.Printf("[txrunner] attempt %d/%d failed: %v", attempt, attempts, err)
	}

	metrics.TransactionAttempts.Observe(float64(attempts))
	metrics.TransactionOutcomes.WithLabelValues("failed").Inc()
	return nil, &errs.TransactionFailed{Attempts: attempts, History: history, Cause: lastErr}
}

// runAttempt runs exactly one begin/callback/commit-or-rollback cycle.
// committed=true means the outcome is terminal (don't retry), even when err
// is non-nil (a commit-hook failure after a successful commit).
func (r *Runner) runAttempt(ctx context.Context, isolation string, callback Callback) (result any, err error, committed bool) {
	sess, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err, false
	}
	conn := sess.Conn()

	if isolation != "" {
		sql := "SET SESSION TRANSACTION ISOLATION LEVEL " + isolation
		if _, err := executor.ExecuteOnConn(ctx, conn, sql, nil, "", executor.ShapeAffected); err != nil {
			r.pool.Release(sess)
			return nil, &errs.TransactionError{Tag: errs.TxTagIsolation, Cause: err}, false
		}
	}

	if err := conn.Autocommit(false); err != nil {
		r.pool.Release(sess)
		return nil, &errs.TransactionError{Tag: errs.TxTagBegin, Cause: err}, false
	}
	if err := conn.Begin(); err != nil {
		_ = conn.Autocommit(true)
		r.pool.Release(sess)
		return nil, &errs.TransactionError{Tag: errs.TxTagBegin, Cause: err}, false
	}
	sess.SetAutocommit(false)
	sess.SetInTransaction(true)

	txCtx, tc, attachErr := r.registry.Attach(ctx, sess.ID())
	if attachErr != nil {
		_ = conn.Rollback()
		_ = conn.Autocommit(true)
		sess.SetAutocommit(true)
		sess.SetInTransaction(false)
		r.pool.Release(sess)
		return nil, &errs.TransactionError{Tag: errs.TxTagBegin, Cause: attachErr}, false
	}

	tx := &Transaction{ctx: txCtx, sess: sess, tc: tc}

	defer func() {
		r.registry.Detach(txCtx, sess.ID())
		sess.SetInTransaction(false)
		r.pool.Release(sess)
	}()

	cbResult, cbErr := invokeCallback(txCtx, tx, callback)
	if cbErr != nil {
		_ = conn.Rollback()
		_ = conn.Autocommit(true)
		sess.SetAutocommit(true)
		if hookErr := fireHooks(tc.RollbackHooks()); hookErr != nil {
			log.Printf("[txrunner] rollback hook error (original error still raised): %v", hookErr)
		}
		return nil, cbErr, false
	}

	if err := conn.Commit(); err != nil {
		return nil, &errs.TransactionError{Tag: errs.TxTagCommit, Cause: err}, false
	}
	_ = conn.Autocommit(true)
	sess.SetAutocommit(true)

	if hookErr := fireHooks(tc.CommitHooks()); hookErr != nil {
		return cbResult, &errs.TransactionError{Tag: errs.TxTagCommitHook, Cause: hookErr}, true
	}
	return cbResult, nil, true
}

// invokeCallback runs callback, converting a panic into an error so a
// misbehaving user block still unwinds through the rollback path instead of
// leaking the session.
func invokeCallback(ctx context.Context, tx *Transaction, callback Callback) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("transaction callback panicked: %v", rec)
		}
	}()
	return callback(ctx, tx)
}

// OnCommit registers fn against the innermost transaction owned by ctx's
// task identity, for callers nested arbitrarily deep below the callback
// that only have a ctx derived from Transaction.Context, not the
// Transaction façade itself. Returns *errs.NotInTransaction if ctx's task
// has no open transaction.
func (r *Runner) OnCommit(ctx context.Context, fn func() error) error {
	_, tc, ok := r.registry.CurrentFor(ctx)
	if !ok {
		return &errs.NotInTransaction{}
	}
	tc.OnCommit(fn)
	return nil
}

// OnRollback registers fn against the innermost transaction owned by ctx's
// task identity. Returns *errs.NotInTransaction if ctx's task has no open
// transaction.
func (r *Runner) OnRollback(ctx context.Context, fn func() error) error {
	_, tc, ok := r.registry.CurrentFor(ctx)
	if !ok {
		return &errs.NotInTransaction{}
	}
	tc.OnRollback(fn)
	return nil
}

// fireHooks runs every hook in order, swallowing all but the first error:
// continue firing the rest, then raise the first hook error as cause.
func fireHooks(hooks []func() error) error {
	var first error
	for _, h := range hooks {
		if err := h(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
