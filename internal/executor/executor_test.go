package executor

import (
	"context"
	"testing"

	"github.com/joao-brasil/asyncmysql/internal/driver"
)

func TestExecuteRowsShape(t *testing.T) {
	conn := driver.NewFake(&driver.FakeScript{
		Responses: map[string]driver.Result{
			"SELECT": {IsResultSet: true, Columns: []string{"id", "name"}, Rows: [][]any{{int64(1), "alice"}, {int64(2), "bob"}}},
		},
	})
	out, err := ExecuteOnConn(context.Background(), conn, "SELECT * FROM users", nil, "", ShapeRows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out.Rows))
	}
	if out.Rows[0]["name"] != "alice" {
		t.Errorf("row 0 name = %v, want alice", out.Rows[0]["name"])
	}
}

func TestExecuteRowShapeEmpty(t *testing.T) {
	conn := driver.NewFake(&driver.FakeScript{
		Responses: map[string]driver.Result{
			"SELECT": {IsResultSet: true, Columns: []string{"id"}, Rows: nil},
		},
	})
	out, err := ExecuteOnConn(context.Background(), conn, "SELECT id FROM users WHERE 0", nil, "", ShapeRow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Row != nil {
		t.Errorf("expected nil row, got %v", out.Row)
	}
}

func TestExecuteScalarShape(t *testing.T) {
	conn := driver.NewFake(&driver.FakeScript{
		Responses: map[string]driver.Result{
			"SELECT COUNT": {IsResultSet: true, Columns: []string{"count"}, Rows: [][]any{{int64(2)}}},
		},
	})
	out, err := ExecuteOnConn(context.Background(), conn, "SELECT COUNT(*) FROM accounts", nil, "", ShapeScalar)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Scalar != int64(2) {
		t.Errorf("Scalar = %v, want 2", out.Scalar)
	}
}

func TestExecuteAffectedShape(t *testing.T) {
	conn := driver.NewFake(&driver.FakeScript{
		Responses: map[string]driver.Result{
			"INSERT": {AffectedRows: 1},
		},
	})
	out, err := ExecuteOnConn(context.Background(), conn, "INSERT INTO accounts(name) VALUES (?)", []any{"alice"}, "", ShapeAffected)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Affected != 1 {
		t.Errorf("Affected = %d, want 1", out.Affected)
	}
}

func TestExecuteSurfacesDriverError(t *testing.T) {
	conn := driver.NewFake(&driver.FakeScript{
		Errors: map[string]error{"BAD SQL": errPrepare},
	})
	_, err := ExecuteOnConn(context.Background(), conn, "BAD SQL", []any{1}, "", ShapeAffected)
	if err == nil {
		t.Fatal("expected an error from the scripted driver failure")
	}
}

func TestFirstKeyword(t *testing.T) {
	cases := map[string]string{
		"  select 1":        "SELECT",
		"SHOW TABLES":       "SHOW",
		"describe accounts": "DESCRIBE",
		"INSERT INTO t(a)":  "INSERT",
	}
	for sql, want := range cases {
		if got := FirstKeyword(sql); got != want {
			t.Errorf("FirstKeyword(%q) = %q, want %q", sql, got, want)
		}
	}
}

var errPrepare = fakeErr("bad sql")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
