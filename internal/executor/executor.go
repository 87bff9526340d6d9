// Package executor implements a non-blocking query-execution engine that
// drives the driver's async API via poll-based readiness checking, and
// shapes the result into one of the four Shapes the core exposes.
package executor

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/joao-brasil/asyncmysql/internal/driver"
	"github.com/joao-brasil/asyncmysql/internal/errs"
	"github.com/joao-brasil/asyncmysql/internal/metrics"
	"github.com/joao-brasil/asyncmysql/internal/paramtype"
	"github.com/joao-brasil/asyncmysql/internal/sched"
	"github.com/joao-brasil/asyncmysql/internal/session"
)

// Shape is the requested post-execution transformation of a result.
type Shape int

const (
	ShapeRows Shape = iota
	ShapeRow
	ShapeScalar
	ShapeAffected
)

func (s Shape) String() string {
	switch s {
	case ShapeRows:
		return "rows"
	case ShapeRow:
		return "row"
	case ShapeScalar:
		return "scalar"
	case ShapeAffected:
		return "affected"
	default:
		return "unknown"
	}
}

// Outcome carries exactly one populated field, selected by Shape.
type Outcome struct {
	Shape    Shape
	Rows     []map[string]any
	Row      map[string]any
	Scalar   any
	Affected uint64
}

// Execute prepares (if parameterized), binds, executes, poll-drives to
// completion, and shapes a query against sess. types, when empty, is
// derived from params via internal/paramtype.
func Execute(ctx context.Context, sess *session.Session, sql string, params []any, types string, shape Shape) (Outcome, error) {
	return execute(ctx, sess.Conn(), sql, params, types, shape)
}

// ExecuteOnConn is the same algorithm without going through a *session.Session
// — used by the transaction runner's façade, which already holds a driver
// connection on a suspended path and has no separate session bookkeeping to
// touch.
func ExecuteOnConn(ctx context.Context, conn driver.Conn, sql string, params []any, types string, shape Shape) (Outcome, error) {
	return execute(ctx, conn, sql, params, types, shape)
}

func execute(ctx context.Context, conn driver.Conn, sql string, params []any, types string, shape Shape) (Outcome, error) {
	start := time.Now()
	defer func() {
		metrics.QueryDuration.WithLabelValues(shape.String()).Observe(time.Since(start).Seconds())
	}()

	handle, err := submit(conn, sql, params, types)
	if err != nil {
		return Outcome{}, err
	}

	res, err := pollLoop(ctx, handle)
	if err != nil {
		return Outcome{}, err
	}

	if expectsCursor(FirstKeyword(sql)) != res.IsResultSet {
		log.Printf("[executor] result-set classification mismatch: %q classified by keyword as cursor=%v, driver reported IsResultSet=%v", FirstKeyword(sql), expectsCursor(FirstKeyword(sql)), res.IsResultSet)
	}

	return shapeResult(res, shape), nil
}

// expectsCursor reports whether a leading SQL keyword (as returned by
// FirstKeyword) is documented to fetch a cursor rather than record an
// affected-row count.
func expectsCursor(keyword string) bool {
	switch keyword {
	case "SELECT", "SHOW", "DESCRIBE":
		return true
	default:
		return false
	}
}

func submit(conn driver.Conn, sql string, params []any, types string) (driver.Handle, error) {
	if len(params) == 0 {
		handle, err := conn.Query(sql)
		if err != nil {
			return nil, queryErr(sql, params, errs.QueryTagExecute, err)
		}
		return handle, nil
	}

	stmt, err := conn.Prepare(sql)
	if err != nil {
		return nil, queryErr(sql, params, errs.QueryTagPrepare, err)
	}

	resolved := types
	if resolved == "" {
		resolved = paramtype.DetectAll(params)
	}
	if resolved == "" {
		resolved = strings.Repeat("s", len(params))
	}

	values := paramtype.PreprocessAll(params)
	handle, err = stmt.Bind(resolved, values)
	if err != nil {
		stmt.Close()
		return nil, queryErr(sql, params, errs.QueryTagBind, err)
	}
	return handle, nil
}

// pollLoop drives handle to completion: a zero-timeout readiness check
// first, then an adaptive-interval loop that yields to the scheduler
// between misses.
func pollLoop(ctx context.Context, handle driver.Handle) (driver.Result, error) {
	iterations := 0
	defer func() { metrics.PollIterations.Observe(float64(iterations)) }()

	ready, err := handle.Poll(ctx, 0)
	if err != nil {
		return driver.Result{}, pollErr(err)
	}

	if !ready {
		iv := sched.NewInterval()
		for {
			iterations++
			ready, err = handle.Poll(ctx, iv.Current())
			if err != nil {
				return driver.Result{}, pollErr(err)
			}
			if ready {
				break
			}
			sched.Yield()
			iv.Grow()
		}
	}

	res, err := handle.Reap()
	if err != nil {
		metrics.QueryErrors.WithLabelValues(string(errs.QueryTagReap)).Inc()
		return driver.Result{}, &errs.QueryError{Tag: errs.QueryTagReap, Message: "reap failed", Cause: err}
	}
	return res, nil
}

func pollErr(err error) error {
	metrics.QueryErrors.WithLabelValues(string(errs.QueryTagPoll)).Inc()
	return &errs.QueryError{Tag: errs.QueryTagPoll, Message: "readiness check failed", Cause: err}
}

func queryErr(sql string, params []any, tag errs.QueryErrorTag, cause error) error {
	metrics.QueryErrors.WithLabelValues(string(tag)).Inc()
	return &errs.QueryError{SQL: sql, Params: params, Tag: tag, Message: string(tag) + " failed", Cause: cause}
}

func shapeResult(res driver.Result, shape Shape) Outcome {
	switch shape {
	case ShapeAffected:
		return Outcome{Shape: shape, Affected: res.AffectedRows}
	case ShapeRows:
		return Outcome{Shape: shape, Rows: rowsToMaps(res)}
	case ShapeRow:
		rows := rowsToMaps(res)
		if len(rows) == 0 {
			return Outcome{Shape: shape}
		}
		return Outcome{Shape: shape, Row: rows[0]}
	case ShapeScalar:
		rows := rowsToMaps(res)
		if len(rows) == 0 || len(res.Columns) == 0 {
			return Outcome{Shape: shape}
		}
		return Outcome{Shape: shape, Scalar: rows[0][res.Columns[0]]}
	default:
		return Outcome{Shape: shape}
	}
}

func rowsToMaps(res driver.Result) []map[string]any {
	if !res.IsResultSet {
		return nil
	}
	out := make([]map[string]any, len(res.Rows))
	for i, row := range res.Rows {
		m := make(map[string]any, len(res.Columns))
		for j, col := range res.Columns {
			if j < len(row) {
				m[col] = row[j]
			}
		}
		out[i] = m
	}
	return out
}

// FirstKeyword returns the SQL's leading keyword, case-insensitive and
// ignoring leading whitespace. execute uses it as a cross-check against the
// driver's own IsResultSet detection, logging on mismatch rather than
// failing the query — IsResultSet comes straight off the wire protocol and
// stays authoritative for edge cases (CTEs, stored-procedure calls) a
// keyword heuristic would get wrong.
func FirstKeyword(sql string) string {
	trimmed := strings.TrimLeft(sql, " \t\r\n")
	end := strings.IndexAny(trimmed, " \t\r\n(")
	if end < 0 {
		end = len(trimmed)
	}
	return strings.ToUpper(trimmed[:end])
}
