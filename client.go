// Package asyncmysql is the client facade: it stitches the connection pool,
// async query executor, and transaction runner into a single API.
// query/fetch-one/fetch-value/execute each acquire a session, execute, and
// release it; run hands the caller the raw session for anything the four
// shapes don't cover; transaction delegates to the transaction runner.
package asyncmysql

import (
	"context"
	"fmt"

	"github.com/joao-brasil/asyncmysql/internal/config"
	"github.com/joao-brasil/asyncmysql/internal/driver"
	"github.com/joao-brasil/asyncmysql/internal/errs"
	"github.com/joao-brasil/asyncmysql/internal/executor"
	"github.com/joao-brasil/asyncmysql/internal/factory"
	"github.com/joao-brasil/asyncmysql/internal/pool"
	"github.com/joao-brasil/asyncmysql/internal/session"
	"github.com/joao-brasil/asyncmysql/internal/txregistry"
	"github.com/joao-brasil/asyncmysql/internal/txrunner"
)

// RawSession is the opaque session handle, exposed here so callers of Run
// can drive a session directly without reaching into an internal package.
type RawSession = session.Session

// Stats is the pool statistics record returned by Client.Stats.
type Stats = pool.Stats

// Transaction is the façade a transaction callback receives.
type Transaction = txrunner.Transaction

// TransactionCallback is the user block run inside a transaction.
type TransactionCallback = txrunner.Callback

// NotInTransaction is returned by OnCommit/OnRollback when ctx's task has
// no open transaction to attach a hook to.
type NotInTransaction = errs.NotInTransaction

// Client is one configured connection to a MySQL backend: a bounded pool,
// its transaction context registry, and a runner bound to both.
type Client struct {
	pool     *pool.Pool
	registry *txregistry.Registry
	runner   *txrunner.Runner
}

// New builds a Client from a validated configuration record, dialing real
// MySQL connections via github.com/go-mysql-org/go-mysql.
func New(cfg *config.Record) (*Client, error) {
	return NewWithDialer(cfg, driver.GoMySQLDialer{})
}

// NewWithDialer builds a Client using a caller-supplied Dialer — the seam
// tests use to substitute internal/driver's fake connection.
func NewWithDialer(cfg *config.Record, dialer driver.Dialer) (*Client, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	f := factory.New(cfg, dialer)
	p := pool.New(cfg.Database, cfg, f)
	registry := txregistry.New()

	return &Client{
		pool:     p,
		registry: registry,
		runner:   txrunner.New(p, registry),
	}, nil
}

// Query runs sql and returns every row as a column-keyed map.
func (c *Client) Query(ctx context.Context, sql string, params []any, types string) ([]map[string]any, error) {
	sess, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer c.pool.Release(sess)

	out, err := executor.Execute(ctx, sess, sql, params, types, executor.ShapeRows)
	if err != nil {
		return nil, err
	}
	return out.Rows, nil
}

// FetchOne runs sql and returns the first row, or nil if empty.
func (c *Client) FetchOne(ctx context.Context, sql string, params []any, types string) (map[string]any, error) {
	sess, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer c.pool.Release(sess)

	out, err := executor.Execute(ctx, sess, sql, params, types, executor.ShapeRow)
	if err != nil {
		return nil, err
	}
	return out.Row, nil
}

// FetchValue runs sql and returns the first column of the first row.
func (c *Client) FetchValue(ctx context.Context, sql string, params []any, types string) (any, error) {
	sess, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer c.pool.Release(sess)

	out, err := executor.Execute(ctx, sess, sql, params, types, executor.ShapeScalar)
	if err != nil {
		return nil, err
	}
	return out.Scalar, nil
}

// Execute runs sql and returns the affected-row count.
func (c *Client) Execute(ctx context.Context, sql string, params []any, types string) (uint64, error) {
	sess, err := c.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer c.pool.Release(sess)

	out, err := executor.Execute(ctx, sess, sql, params, types, executor.ShapeAffected)
	if err != nil {
		return 0, err
	}
	return out.Affected, nil
}

// Run acquires a session, passes it raw to fn, and releases it on every
// exit path, including a panic inside fn.
func (c *Client) Run(ctx context.Context, fn func(ctx context.Context, sess *RawSession) (any, error)) (result any, err error) {
	sess, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer c.pool.Release(sess)
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("asyncmysql: run callback panicked: %v", rec)
		}
	}()
	return fn(ctx, sess)
}

// Transaction runs callback inside a transaction, retrying up to attempts
// times on failure. isolation, when non-empty, must be one of the standard
// SQL isolation levels ("READ UNCOMMITTED", "READ COMMITTED", "REPEATABLE
// READ", "SERIALIZABLE").
func (c *Client) Transaction(ctx context.Context, attempts int, isolation string, callback TransactionCallback) (any, error) {
	return c.runner.Run(ctx, attempts, isolation, callback)
}

// OnCommit registers fn against the transaction owned by ctx's task
// identity — for code nested below a transaction callback that only
// threads a context.Context (e.g. via Transaction.Context), not the
// Transaction façade itself. Returns an error satisfying errors.As into
// *asyncmysql.NotInTransaction if ctx's task has no open transaction.
func (c *Client) OnCommit(ctx context.Context, fn func() error) error {
	return c.runner.OnCommit(ctx, fn)
}

// OnRollback registers fn against the transaction owned by ctx's task
// identity, the package-level counterpart to Transaction.OnRollback.
func (c *Client) OnRollback(ctx context.Context, fn func() error) error {
	return c.runner.OnRollback(ctx, fn)
}

// Stats returns the pool's current statistics record.
func (c *Client) Stats() Stats { return c.pool.Stats() }

// LastHandedOut returns the most recently handed-out session, or nil.
func (c *Client) LastHandedOut() *RawSession { return c.pool.LastHandedOut() }

// Close rejects all pending waiters with PoolClosed and closes all idle
// sessions.
func (c *Client) Close() { c.pool.Close() }
