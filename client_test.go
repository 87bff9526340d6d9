package asyncmysql_test

import (
	"context"
	"testing"

	"github.com/joao-brasil/asyncmysql"
	"github.com/joao-brasil/asyncmysql/internal/config"
	"github.com/joao-brasil/asyncmysql/internal/driver"
)

func newTestClient(t *testing.T, script *driver.FakeScript) *asyncmysql.Client {
	t.Helper()
	cfg := &config.Record{Host: "db", Database: "app", Capacity: 2}
	client, err := asyncmysql.NewWithDialer(cfg, &driver.FakeDialer{Script: script})
	if err != nil {
		t.Fatalf("NewWithDialer: %v", err)
	}
	return client
}

func TestClientQueryReturnsRows(t *testing.T) {
	client := newTestClient(t, &driver.FakeScript{
		Responses: map[string]driver.Result{
			"SELECT": {IsResultSet: true, Columns: []string{"ok"}, Rows: [][]any{{int64(1)}}},
		},
	})
	rows, err := client.Query(context.Background(), "SELECT 1 AS ok", nil, "")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 1 || rows[0]["ok"] != int64(1) {
		t.Errorf("rows = %v, want one row {ok: 1}", rows)
	}
}

func TestClientRunGivesRawSession(t *testing.T) {
	client := newTestClient(t, &driver.FakeScript{})
	result, err := client.Run(context.Background(), func(ctx context.Context, sess *asyncmysql.RawSession) (any, error) {
		return sess.ThreadID(), nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.(uint32) == 0 {
		t.Error("expected a non-zero thread id from the fake connection")
	}
}

func TestClientTransactionCommits(t *testing.T) {
	client := newTestClient(t, &driver.FakeScript{
		Responses: map[string]driver.Result{"UPDATE": {AffectedRows: 1}},
	})
	result, err := client.Transaction(context.Background(), 1, "", func(ctx context.Context, tx *asyncmysql.Transaction) (any, error) {
		return tx.Execute("UPDATE accounts SET balance = 0", nil, "")
	})
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	if result != uint64(1) {
		t.Errorf("result = %v, want 1", result)
	}
}

func TestClientStatsAndClose(t *testing.T) {
	client := newTestClient(t, &driver.FakeScript{})
	if _, err := client.Query(context.Background(), "SELECT 1", nil, ""); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if st := client.Stats(); st.Capacity != 2 {
		t.Errorf("Stats.Capacity = %d, want 2", st.Capacity)
	}
	client.Close()
	if _, err := client.Query(context.Background(), "SELECT 1", nil, ""); err == nil {
		t.Error("expected Query on a closed client to fail")
	}
}
