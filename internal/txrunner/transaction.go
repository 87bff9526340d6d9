package txrunner

import (
	"context"

	"github.com/joao-brasil/asyncmysql/internal/executor"
	"github.com/joao-brasil/asyncmysql/internal/session"
	"github.com/joao-brasil/asyncmysql/internal/txregistry"
)

// Transaction is the façade a user callback sees: the four query shapes
// bound to one session, plus hook registration and a raw session escape
// hatch.
type Transaction struct {
	ctx  context.Context
	sess *session.Session
	tc   *txregistry.TransactionContext
}

// Context returns the task-tagged context nested callbacks should thread
// through to reach this transaction's hooks via txregistry.CurrentFor.
func (tx *Transaction) Context() context.Context { return tx.ctx }

// Query runs sql and returns every row as a column-keyed map.
func (tx *Transaction) Query(sql string, params []any, types string) ([]map[string]any, error) {
	out, err := executor.ExecuteOnConn(tx.ctx, tx.sess.Conn(), sql, params, types, executor.ShapeRows)
	if err != nil {
		return nil, err
	}
	return out.Rows, nil
}

// FetchOne runs sql and returns the first row, or nil if the result set was
// empty.
func (tx *Transaction) FetchOne(sql string, params []any, types string) (map[string]any, error) {
	out, err := executor.ExecuteOnConn(tx.ctx, tx.sess.Conn(), sql, params, types, executor.ShapeRow)
	if err != nil {
		return nil, err
	}
	return out.Row, nil
}

// FetchValue runs sql and returns the first column of the first row.
func (tx *Transaction) FetchValue(sql string, params []any, types string) (any, error) {
	out, err := executor.ExecuteOnConn(tx.ctx, tx.sess.Conn(), sql, params, types, executor.ShapeScalar)
	if err != nil {
		return nil, err
	}
	return out.Scalar, nil
}

// Execute runs sql and returns the affected-row count.
func (tx *Transaction) Execute(sql string, params []any, types string) (uint64, error) {
	out, err := executor.ExecuteOnConn(tx.ctx, tx.sess.Conn(), sql, params, types, executor.ShapeAffected)
	if err != nil {
		return 0, err
	}
	return out.Affected, nil
}

// OnCommit registers fn to run, in registration order, after a successful
// COMMIT.
func (tx *Transaction) OnCommit(fn func() error) { tx.tc.OnCommit(fn) }

// OnRollback registers fn to run, in registration order, after a ROLLBACK.
func (tx *Transaction) OnRollback(fn func() error) { tx.tc.OnRollback(fn) }

// RawSession returns the underlying session handle for escape-hatch access.
func (tx *Transaction) RawSession() *session.Session { return tx.sess }
