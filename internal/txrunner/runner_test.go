package txrunner

import (
	"context"
	"errors"
	"testing"

	"github.com/joao-brasil/asyncmysql/internal/config"
	"github.com/joao-brasil/asyncmysql/internal/driver"
	"github.com/joao-brasil/asyncmysql/internal/errs"
	"github.com/joao-brasil/asyncmysql/internal/factory"
	"github.com/joao-brasil/asyncmysql/internal/pool"
	"github.com/joao-brasil/asyncmysql/internal/txregistry"
)

func newTestRunner(capacity int) *Runner {
	cfg := &config.Record{Host: "db", Database: "app", Capacity: capacity}
	dialer := &driver.FakeDialer{Script: &driver.FakeScript{}}
	f := factory.New(cfg, dialer)
	p := pool.New("test", cfg, f)
	return New(p, txregistry.New())
}

func TestRunCommitsSuccessfulCallback(t *testing.T) {
	r := newTestRunner(1)

	result, err := r.Run(context.Background(), 1, "", func(ctx context.Context, tx *Transaction) (any, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %v, want ok", result)
	}
	if st := r.pool.Stats(); st.Idle != 1 || st.Live != 1 {
		t.Errorf("Stats = %+v, want the session released back to idle", st)
	}
}

func TestRunRetriesAndEventuallySucceeds(t *testing.T) {
	r := newTestRunner(1)

	calls := 0
	result, err := r.Run(context.Background(), 3, "", func(ctx context.Context, tx *Transaction) (any, error) {
		calls++
		if calls < 2 {
			return nil, errors.New("transient failure")
		}
		return calls, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result != 2 {
		t.Errorf("result = %v, want 2", result)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRunExhaustsAttemptsReturnsTransactionFailed(t *testing.T) {
	r := newTestRunner(1)

	_, err := r.Run(context.Background(), 2, "", func(ctx context.Context, tx *Transaction) (any, error) {
		return nil, errors.New("always fails")
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	var failed *errs.TransactionFailed
	if !errors.As(err, &failed) {
		t.Fatalf("err = %v, want *errs.TransactionFailed", err)
	}
	if failed.Attempts != 2 || len(failed.History) != 2 {
		t.Errorf("TransactionFailed = %+v, want Attempts=2 with 2 history entries", failed)
	}
}

func TestRunCommitHookErrorIsNotRetried(t *testing.T) {
	r := newTestRunner(1)

	calls := 0
	result, err := r.Run(context.Background(), 3, "", func(ctx context.Context, tx *Transaction) (any, error) {
		calls++
		tx.OnCommit(func() error { return errors.New("hook boom") })
		return "done", nil
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (commit-hook error must not trigger a retry)", calls)
	}
	if result != "done" {
		t.Errorf("result = %v, want done (callback value returned despite hook error)", result)
	}
	var txErr *errs.TransactionError
	if !errors.As(err, &txErr) || txErr.Tag != errs.TxTagCommitHook {
		t.Errorf("err = %v, want *errs.TransactionError{Tag: commit-hook}", err)
	}
}

func TestRunRollbackHookDoesNotMaskOriginalError(t *testing.T) {
	r := newTestRunner(1)

	original := errors.New("original callback failure")
	_, err := r.Run(context.Background(), 1, "", func(ctx context.Context, tx *Transaction) (any, error) {
		tx.OnRollback(func() error { return errors.New("rollback hook boom") })
		return nil, original
	})

	var failed *errs.TransactionFailed
	if !errors.As(err, &failed) {
		t.Fatalf("err = %v, want *errs.TransactionFailed", err)
	}
	if !errors.Is(failed.Cause, original) {
		t.Errorf("TransactionFailed.Cause = %v, want the original callback error", failed.Cause)
	}
}

func TestRunInvalidAttempts(t *testing.T) {
	r := newTestRunner(1)
	_, err := r.Run(context.Background(), 0, "", func(ctx context.Context, tx *Transaction) (any, error) {
		return nil, nil
	})
	var invalid *errs.InvalidArgument
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want *errs.InvalidArgument", err)
	}
}

func TestRunAppliesIsolationLevel(t *testing.T) {
	r := newTestRunner(1)
	_, err := r.Run(context.Background(), 1, "REPEATABLE READ", func(ctx context.Context, tx *Transaction) (any, error) {
		return nil, nil
	})
	if err != nil {
		t.Fatalf("Run with isolation level: %v", err)
	}
}

func TestTransactionQueryShapes(t *testing.T) {
	cfg := &config.Record{Host: "db", Database: "app", Capacity: 1}
	script := &driver.FakeScript{Responses: map[string]driver.Result{
		"SELECT": {IsResultSet: true, Columns: []string{"id"}, Rows: [][]any{{int64(7)}}},
	}}
	f := factory.New(cfg, &driver.FakeDialer{Script: script})
	r := New(pool.New("test", cfg, f), txregistry.New())

	result, err := r.Run(context.Background(), 1, "", func(ctx context.Context, tx *Transaction) (any, error) {
		row, err := tx.FetchOne("SELECT id FROM users WHERE id = ?", []any{7}, "")
		if err != nil {
			return nil, err
		}
		return row["id"], nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result != int64(7) {
		t.Errorf("result = %v, want 7", result)
	}
}

func TestOnCommitFiresPackageLevelHookViaContext(t *testing.T) {
	r := newTestRunner(1)

	fired := false
	_, err := r.Run(context.Background(), 1, "", func(ctx context.Context, tx *Transaction) (any, error) {
		if hookErr := r.OnCommit(tx.Context(), func() error {
			fired = true
			return nil
		}); hookErr != nil {
			t.Fatalf("OnCommit: %v", hookErr)
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !fired {
		t.Error("commit hook registered via OnCommit(ctx, ...) never fired")
	}
}

func TestOnRollbackFiresPackageLevelHookViaContext(t *testing.T) {
	r := newTestRunner(1)

	fired := false
	_, err := r.Run(context.Background(), 1, "", func(ctx context.Context, tx *Transaction) (any, error) {
		if hookErr := r.OnRollback(tx.Context(), func() error {
			fired = true
			return nil
		}); hookErr != nil {
			t.Fatalf("OnRollback: %v", hookErr)
		}
		return nil, errors.New("force rollback")
	})
	if err == nil {
		t.Fatal("Run: want error from failing callback")
	}
	if !fired {
		t.Error("rollback hook registered via OnRollback(ctx, ...) never fired")
	}
}

func TestOnCommitOutsideTransactionReturnsNotInTransaction(t *testing.T) {
	r := newTestRunner(1)

	err := r.OnCommit(context.Background(), func() error { return nil })
	if _, ok := err.(*errs.NotInTransaction); !ok {
		t.Errorf("OnCommit outside transaction = %T, want *errs.NotInTransaction", err)
	}
}
