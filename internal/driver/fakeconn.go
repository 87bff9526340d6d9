package driver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// FakeScript lets a test script how a fake connection responds to queries.
// Keys are matched by prefix (case-insensitive, leading whitespace
// trimmed), the same way the executor itself classifies SQL.
type FakeScript struct {
	// Responses maps a SQL prefix to a canned Result.
	Responses map[string]Result
	// Errors maps a SQL prefix to a canned error.
	Errors map[string]error
	// FailAlive makes Alive() report false once set.
	FailAlive bool
}

var fakeThreadID atomic.Uint32

// NewFake builds an in-memory Conn double for tests. It never opens a
// socket; every operation resolves synchronously but still goes through a
// Handle so the executor's poll loop exercises real code paths.
func NewFake(script *FakeScript) Conn {
	if script == nil {
		script = &FakeScript{}
	}
	return &fakeConn{
		script:   script,
		threadID: fakeThreadID.Add(1),
	}
}

type fakeConn struct {
	mu         sync.Mutex
	script     *FakeScript
	threadID   uint32
	autocommit bool
	closed     bool
	txOpen     bool
}

func (c *fakeConn) ThreadID() uint32 { return c.threadID }

func (c *fakeConn) lookup(query string) (Result, error, bool) {
	norm := strings.ToUpper(strings.TrimSpace(query))
	for prefix, err := range c.script.Errors {
		if strings.HasPrefix(norm, strings.ToUpper(prefix)) {
			return Result{}, err, true
		}
	}
	for prefix, res := range c.script.Responses {
		if strings.HasPrefix(norm, strings.ToUpper(prefix)) {
			return res, nil, true
		}
	}
	return Result{}, nil, false
}

func (c *fakeConn) Prepare(query string) (Stmt, error) {
	return &fakeStmt{conn: c, query: query}, nil
}

func (c *fakeConn) Query(query string) (Handle, error) {
	return c.run(query), nil
}

func (c *fakeConn) run(query string) Handle {
	res, err, matched := c.lookup(query)
	if !matched {
		res = defaultResultFor(query)
	}
	return &fakeHandle{result: res, err: err}
}

func defaultResultFor(query string) Result {
	norm := strings.ToUpper(strings.TrimSpace(query))
	for _, kw := range []string{"SELECT", "SHOW", "DESCRIBE"} {
		if strings.HasPrefix(norm, kw) {
			return Result{IsResultSet: true, Columns: []string{"1"}, Rows: [][]any{{int64(1)}}}
		}
	}
	return Result{AffectedRows: 1}
}

func (c *fakeConn) DrainResults() error { return nil }

func (c *fakeConn) Autocommit(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autocommit = on
	return nil
}

func (c *fakeConn) SetCharset(charset string) error { return nil }

func (c *fakeConn) SetOption(key string, value any) error { return nil }

func (c *fakeConn) Begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txOpen = true
	return nil
}

func (c *fakeConn) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txOpen = false
	return nil
}

func (c *fakeConn) Rollback() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txOpen = false
	return nil
}

func (c *fakeConn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && !c.script.FailAlive
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

type fakeStmt struct {
	conn  *fakeConn
	query string
}

func (s *fakeStmt) Bind(types string, values []any) (Handle, error) {
	if len(types) != len(values) {
		return nil, fmt.Errorf("fake bind: types length %d != values length %d", len(types), len(values))
	}
	return s.conn.run(s.query), nil
}

func (s *fakeStmt) Close() error { return nil }

// fakeHandle is immediately ready; the executor's poll loop still calls
// Poll at least once (zero-timeout fast path), exercising the same code as
// a real async handle would.
type fakeHandle struct {
	mu     sync.Mutex
	result Result
	err    error
	reaped bool
}

func (h *fakeHandle) Poll(ctx context.Context, timeout time.Duration) (bool, error) {
	return true, nil
}

func (h *fakeHandle) Reap() (Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return Result{}, h.err
	}
	return h.result, nil
}
