// Package singleton wraps a single process-wide asyncmysql.Client with
// init-once semantics: calling Init twice is a silent no-op, every method
// before Init fails with NotInitialized, and Reset clears the instance so a
// later Init can rebuild it. Modeled on a connection-pool manager that fans
// one shared instance out to per-bucket pools behind the same kind of
// guarded lazy init.
package singleton

import (
	"context"
	"sync"

	"github.com/joao-brasil/asyncmysql"
	"github.com/joao-brasil/asyncmysql/internal/config"
	"github.com/joao-brasil/asyncmysql/internal/driver"
	"github.com/joao-brasil/asyncmysql/internal/errs"
)

var (
	mu       sync.Mutex
	instance *asyncmysql.Client
)

// Init builds the shared Client from cfg. A second call while an instance
// already exists is a silent no-op — cfg is ignored and the existing
// instance is kept.
func Init(cfg *config.Record) error {
	mu.Lock()
	defer mu.Unlock()
	if instance != nil {
		return nil
	}
	client, err := asyncmysql.New(cfg)
	if err != nil {
		return err
	}
	instance = client
	return nil
}

// InitWithDialer is Init's test seam, taking an explicit driver.Dialer
// instead of always dialing real MySQL.
func InitWithDialer(cfg *config.Record, dialer driver.Dialer) error {
	mu.Lock()
	defer mu.Unlock()
	if instance != nil {
		return nil
	}
	client, err := asyncmysql.NewWithDialer(cfg, dialer)
	if err != nil {
		return err
	}
	instance = client
	return nil
}

// Reset closes and clears the shared instance, if any, so a later Init call
// rebuilds one from scratch.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	if instance != nil {
		instance.Close()
	}
	instance = nil
}

func get() (*asyncmysql.Client, error) {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		return nil, &errs.NotInitialized{}
	}
	return instance, nil
}

func Query(ctx context.Context, sql string, params []any, types string) ([]map[string]any, error) {
	c, err := get()
	if err != nil {
		return nil, err
	}
	return c.Query(ctx, sql, params, types)
}

func FetchOne(ctx context.Context, sql string, params []any, types string) (map[string]any, error) {
	c, err := get()
	if err != nil {
		return nil, err
	}
	return c.FetchOne(ctx, sql, params, types)
}

func FetchValue(ctx context.Context, sql string, params []any, types string) (any, error) {
	c, err := get()
	if err != nil {
		return nil, err
	}
	return c.FetchValue(ctx, sql, params, types)
}

func Execute(ctx context.Context, sql string, params []any, types string) (uint64, error) {
	c, err := get()
	if err != nil {
		return 0, err
	}
	return c.Execute(ctx, sql, params, types)
}

func Run(ctx context.Context, fn func(ctx context.Context, sess *asyncmysql.RawSession) (any, error)) (any, error) {
	c, err := get()
	if err != nil {
		return nil, err
	}
	return c.Run(ctx, fn)
}

func Transaction(ctx context.Context, attempts int, isolation string, callback asyncmysql.TransactionCallback) (any, error) {
	c, err := get()
	if err != nil {
		return nil, err
	}
	return c.Transaction(ctx, attempts, isolation, callback)
}

func OnCommit(ctx context.Context, fn func() error) error {
	c, err := get()
	if err != nil {
		return err
	}
	return c.OnCommit(ctx, fn)
}

func OnRollback(ctx context.Context, fn func() error) error {
	c, err := get()
	if err != nil {
		return err
	}
	return c.OnRollback(ctx, fn)
}

func Stats() (asyncmysql.Stats, error) {
	c, err := get()
	if err != nil {
		return asyncmysql.Stats{}, err
	}
	return c.Stats(), nil
}

func LastHandedOut() (*asyncmysql.RawSession, error) {
	c, err := get()
	if err != nil {
		return nil, err
	}
	return c.LastHandedOut(), nil
}
