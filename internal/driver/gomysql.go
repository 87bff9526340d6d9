package driver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-mysql-org/go-mysql/client"
	"github.com/go-mysql-org/go-mysql/mysql"
	"github.com/shopspring/decimal"
)

// GoMySQLDialer dials real MySQL connections via
// github.com/go-mysql-org/go-mysql, a host-provided client library exposing
// the connect/prepare/execute surface this package adapts. Grounded on
// other_examples/77b5b1d2_gongzhxu-go-mysql__client-pool.go.go, a connection
// pool built directly on this driver family's Conn type.
type GoMySQLDialer struct{}

func (GoMySQLDialer) Dial(ctx context.Context, host string, port int, socket, user, password, database string) (Conn, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	if socket != "" {
		addr = socket
	}
	raw, err := client.Connect(addr, user, password, database)
	if err != nil {
		return nil, err
	}
	var threadID uint32
	if r, qerr := raw.Execute("SELECT CONNECTION_ID()"); qerr == nil && r.Resultset != nil {
		if v, verr := r.GetUint(0, 0); verr == nil {
			threadID = uint32(v)
		}
	}
	return &goMySQLConn{raw: raw, threadID: threadID}, nil
}

// goMySQLConn wraps a synchronous client.Conn behind the async Conn
// interface the core depends on. The real libmysqlclient non-blocking API
// that a poll loop like this one is normally written against has no
// equivalent in Go's MySQL driver ecosystem, so each blocking driver call
// runs on its own goroutine and signals completion over a channel; Poll/Reap
// observe that channel instead of a socket file descriptor. This preserves
// the poll loop's adaptive-backoff contract while letting the wire protocol
// itself stay exactly what the real driver does.
type goMySQLConn struct {
	mu       sync.Mutex
	raw      *client.Conn
	threadID uint32
}

func (c *goMySQLConn) ThreadID() uint32 { return c.threadID }

func (c *goMySQLConn) Prepare(query string) (Stmt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stmt, err := c.raw.Prepare(query)
	if err != nil {
		return nil, err
	}
	return &goMySQLStmt{conn: c, stmt: stmt}, nil
}

func (c *goMySQLConn) Query(query string) (Handle, error) {
	return c.submit(func() (*mysql.Result, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.raw.Execute(query)
	}), nil
}

func (c *goMySQLConn) DrainResults() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	// go-mysql-org's client.Conn fully consumes one statement's result in
	// Execute/Prepare already; there is no separate multi-statement cursor
	// to drain with this driver (CLIENT_MULTI_STATEMENTS is not enabled by
	// the dialer above). This is a deliberate no-op, documented rather than
	// silently assumed: if a future dialer enables multi-statements, this
	// is the method to extend.
	return nil
}

func (c *goMySQLConn) Autocommit(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	stmt := "SET autocommit=0"
	if on {
		stmt = "SET autocommit=1"
	}
	_, err := c.raw.Execute(stmt)
	return err
}

func (c *goMySQLConn) SetCharset(charset string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.raw.SetCharset(charset)
}

func (c *goMySQLConn) SetOption(key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.raw.Execute(fmt.Sprintf("SET SESSION %s = ?", key), value)
	return err
}

func (c *goMySQLConn) Begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.raw.Begin()
}

func (c *goMySQLConn) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.raw.Commit()
}

func (c *goMySQLConn) Rollback() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.raw.Rollback()
}

func (c *goMySQLConn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.raw.Ping() == nil
}

func (c *goMySQLConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.raw.Close()
}

// submit runs a blocking driver call on its own goroutine and returns a
// Handle that observes its completion channel.
func (c *goMySQLConn) submit(fn func() (*mysql.Result, error)) Handle {
	done := make(chan asyncOutcome, 1)
	go func() {
		res, err := fn()
		done <- asyncOutcome{result: res, err: err}
	}()
	return &goMySQLHandle{done: done}
}

type asyncOutcome struct {
	result *mysql.Result
	err    error
}

type goMySQLHandle struct {
	done    chan asyncOutcome
	mu      sync.Mutex
	settled bool
	outcome asyncOutcome
}

func (h *goMySQLHandle) Poll(ctx context.Context, timeout time.Duration) (bool, error) {
	h.mu.Lock()
	if h.settled {
		h.mu.Unlock()
		return true, nil
	}
	h.mu.Unlock()

	if timeout <= 0 {
		select {
		case out := <-h.done:
			h.mu.Lock()
			h.settled = true
			h.outcome = out
			h.mu.Unlock()
			return true, nil
		default:
			return false, nil
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case out := <-h.done:
		h.mu.Lock()
		h.settled = true
		h.outcome = out
		h.mu.Unlock()
		return true, nil
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (h *goMySQLHandle) Reap() (Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.settled {
		return Result{}, fmt.Errorf("reap called before poll reported ready")
	}
	if h.outcome.err != nil {
		return Result{}, h.outcome.err
	}
	return toResult(h.outcome.result), nil
}

type goMySQLStmt struct {
	conn *goMySQLConn
	stmt *client.Stmt
}

func (s *goMySQLStmt) Bind(types string, values []any) (Handle, error) {
	_ = types // the real driver infers wire types from Go value kinds itself
	return s.conn.submit(func() (*mysql.Result, error) {
		s.conn.mu.Lock()
		defer s.conn.mu.Unlock()
		return s.stmt.Execute(values...)
	}), nil
}

func (s *goMySQLStmt) Close() error {
	return s.stmt.Close()
}

func toResult(r *mysql.Result) Result {
	if r == nil {
		return Result{}
	}
	if r.Resultset == nil {
		return Result{AffectedRows: r.AffectedRows}
	}

	cols := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		cols[i] = string(f.Name)
	}

	rows := make([][]any, len(r.Values))
	for i, rowVals := range r.Values {
		row := make([]any, len(rowVals))
		for j, fv := range rowVals {
			row[j] = shapeValue(r.Fields[j], fv)
		}
		rows[i] = row
	}

	return Result{Columns: cols, Rows: rows, IsResultSet: true}
}

// shapeValue converts a driver field value into the Go type the core hands
// back to callers. DECIMAL/NEWDECIMAL columns arrive from this driver as
// their raw textual representation (to avoid float64 precision loss); this
// parses them into a shopspring/decimal.Decimal so callers get exact
// arithmetic instead of a bare string.
func shapeValue(field *mysql.Field, fv mysql.FieldValue) any {
	v := fv.Value()
	if field.Type != mysql.MYSQL_TYPE_DECIMAL && field.Type != mysql.MYSQL_TYPE_NEWDECIMAL {
		return v
	}

	var text string
	switch t := v.(type) {
	case []byte:
		text = string(t)
	case string:
		text = t
	default:
		return v
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return v
	}
	return d
}
