// Package driver defines the boundary the core depends on for the MySQL
// wire protocol: a host-provided client library exposing connect, prepare,
// execute, poll, reap, begin, commit, rollback, autocommit, set_charset,
// query, and close, with the wire protocol itself kept out of scope. Conn
// is that boundary expressed as a Go interface; GoMySQLDialer (in
// gomysql.go) wraps a real driver (github.com/go-mysql-org/go-mysql)
// behind it, and NewFake (in
// fakeconn.go) provides a scriptable double for tests.
package driver

import (
	"context"
	"time"
)

// Result is the shape a completed operation reaps into: either a result
// set (Columns/Rows populated) or an affected-row count for DML.
type Result struct {
	Columns      []string
	Rows         [][]any
	AffectedRows uint64
	IsResultSet  bool
}

// Handle represents one in-flight async operation. Poll performs a
// non-blocking or timeout-bounded readiness check; Reap consumes the
// completed result exactly once.
type Handle interface {
	// Poll reports whether the operation has completed. timeout==0 means a
	// non-blocking check. An error here is a failure of the readiness check
	// itself; an error returned by the operation, including a transport
	// error during execution, surfaces from Reap.
	Poll(ctx context.Context, timeout time.Duration) (ready bool, err error)
	// Reap returns the completed result. Calling Reap before Poll reports
	// ready is a caller error.
	Reap() (Result, error)
}

// Stmt is a prepared statement bound to one Conn.
type Stmt interface {
	// Bind associates a MySQL client-library type string (one byte per
	// parameter) with preprocessed values and submits the statement for
	// async execution.
	Bind(types string, values []any) (Handle, error)
	Close() error
}

// Conn is one MySQL session as the core sees it: the host-provided client
// library's surface, narrowed to what the pool, factory, executor, and
// transaction runner actually call.
type Conn interface {
	// ThreadID returns the server-reported connection id.
	ThreadID() uint32

	Prepare(query string) (Stmt, error)
	// Query dispatches a parameterless statement via the async-submit
	// entry point.
	Query(query string) (Handle, error)

	// DrainResults consumes any pending multi-result cursors left over
	// from a prior statement, as required before a health-check probe and
	// before returning the session to the pool.
	DrainResults() error

	Autocommit(on bool) error
	SetCharset(charset string) error
	SetOption(key string, value any) error

	Begin() error
	Commit() error
	Rollback() error

	Alive() bool
	Close() error
}

// Dialer constructs a Conn from a DSN-shaped set of fields. Separated from
// Conn so the factory can depend on just this one method.
type Dialer interface {
	Dial(ctx context.Context, host string, port int, socket, user, password, database string) (Conn, error)
}
