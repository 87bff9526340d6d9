// Package errs defines the typed error kinds raised across the pool,
// executor, and transaction runner. Every error crossing a package boundary
// from the driver is wrapped into one of these before the caller ever sees
// it — callers never observe a raw driver error.
package errs

import "fmt"

// ConfigInvalid is raised by the configuration validator.
type ConfigInvalid struct {
	Field    string
	Expected string
}

func (e *ConfigInvalid) Error() string {
	return fmt.Sprintf("config: field %q: expected %s", e.Field, e.Expected)
}

// NotInitialized is raised by the singleton facade when a method is called
// before Init.
type NotInitialized struct{}

func (e *NotInitialized) Error() string { return "asyncmysql: not initialized" }

// PoolClosed is raised to waiters and callers once the pool has been closed.
type PoolClosed struct{}

func (e *PoolClosed) Error() string { return "pool: closed" }

// ConnectionError is raised by the connection factory.
type ConnectionError struct {
	Message string
	Cause   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection: %s: %v", e.Message, e.Cause)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// QueryErrorTag distinguishes the phase of the executor in which a query
// failed.
type QueryErrorTag string

const (
	QueryTagPrepare    QueryErrorTag = "prepare"
	QueryTagBind       QueryErrorTag = "bind"
	QueryTagExecute    QueryErrorTag = "execute"
	QueryTagPoll       QueryErrorTag = "poll"
	QueryTagReap       QueryErrorTag = "reap"
	QueryTagUnexpected QueryErrorTag = "unexpected"
)

// QueryError is raised by the executor.
type QueryError struct {
	SQL     string
	Params  []any
	Tag     QueryErrorTag
	Message string
	Cause   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query[%s]: %s: %v", e.Tag, e.Message, e.Cause)
}

func (e *QueryError) Unwrap() error { return e.Cause }

// TransactionErrorTag distinguishes the phase of the transaction runner in
// which an attempt failed.
type TransactionErrorTag string

const (
	TxTagIsolation   TransactionErrorTag = "isolation"
	TxTagBegin       TransactionErrorTag = "begin"
	TxTagCommit      TransactionErrorTag = "commit"
	TxTagRollback    TransactionErrorTag = "rollback"
	TxTagCommitHook  TransactionErrorTag = "commit-hook"
	TxTagRollbackHook TransactionErrorTag = "rollback-hook"
)

// TransactionError is raised by the transaction runner.
type TransactionError struct {
	Tag   TransactionErrorTag
	Cause error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction[%s]: %v", e.Tag, e.Cause)
}

func (e *TransactionError) Unwrap() error { return e.Cause }

// NotInTransaction is raised by on-commit/on-rollback when called outside
// any transaction context owned by the caller's task.
type NotInTransaction struct{}

func (e *NotInTransaction) Error() string { return "transaction: not in transaction" }

// AttemptRecord is one entry of the bounded attempt history attached to a
// TransactionFailed error.
type AttemptRecord struct {
	Attempt      int
	ErrorSummary string
	Elapsed      string
}

// TransactionFailed is raised once the transaction runner exhausts all
// retry attempts. It carries the history-bearing shape, recording every
// attempt rather than just the last failure.
type TransactionFailed struct {
	Attempts int
	History  []AttemptRecord
	Cause    error
}

func (e *TransactionFailed) Error() string {
	return fmt.Sprintf("transaction failed after %d attempt(s): %v", e.Attempts, e.Cause)
}

func (e *TransactionFailed) Unwrap() error { return e.Cause }

// InvalidArgument is raised by the transaction runner for call-site misuse.
type InvalidArgument struct {
	Param string
}

func (e *InvalidArgument) Error() string {
	return fmt.Sprintf("invalid argument: %s", e.Param)
}
