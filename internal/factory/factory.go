// Package factory implements a pure constructor that, given a validated
// configuration record and a persistence flag, yields a new Session
// configured with charset, driver options, and the requested
// host/port/socket/credentials.
package factory

import (
	"context"
	"fmt"
	"sync"

	"github.com/joao-brasil/asyncmysql/internal/config"
	"github.com/joao-brasil/asyncmysql/internal/driver"
	"github.com/joao-brasil/asyncmysql/internal/errs"
	"github.com/joao-brasil/asyncmysql/internal/session"
)

// Factory constructs Sessions from a validated configuration record.
type Factory struct {
	dialer driver.Dialer
	cfg    *config.Record

	// persistentMu guards persistentIdle, the reusable-handle pool used when
	// cfg.Persistent is true, mirroring the MySQL client library's
	// process-wide reusable-connection facility. Keyed by DSN. A conn only
	// ever lives in persistentIdle while nothing holds it: dial pops one out
	// before handing it to a caller, and Release is the only path that puts
	// one back in, so two concurrent dials can never receive the same conn.
	persistentMu   sync.Mutex
	persistentIdle map[string][]driver.Conn
}

// New builds a Factory for the given validated config and dialer.
func New(cfg *config.Record, dialer driver.Dialer) *Factory {
	return &Factory{
		dialer:         dialer,
		cfg:            cfg,
		persistentIdle: make(map[string][]driver.Conn),
	}
}

// Create dials a new session, applying charset and driver options. On any
// failure (handshake, option-set, charset-set) it returns a
// *errs.ConnectionError; the caller never sees the raw driver error.
func (f *Factory) Create(ctx context.Context) (*session.Session, error) {
	conn, err := f.dial(ctx)
	if err != nil {
		return nil, &errs.ConnectionError{Message: "handshake failed", Cause: err}
	}

	if f.cfg.Charset != "" {
		if err := conn.SetCharset(f.cfg.Charset); err != nil {
			conn.Close()
			return nil, &errs.ConnectionError{Message: "set_charset failed", Cause: err}
		}
	}

	for k, v := range f.cfg.Options {
		if err := conn.SetOption(k, v); err != nil {
			conn.Close()
			return nil, &errs.ConnectionError{Message: fmt.Sprintf("set option %q failed", k), Cause: err}
		}
	}

	return session.New(conn), nil
}

func (f *Factory) dial(ctx context.Context) (driver.Conn, error) {
	if !f.cfg.Persistent {
		return f.dialer.Dial(ctx, f.cfg.Host, f.cfg.Port, f.cfg.Socket, f.cfg.Username, f.cfg.Password, f.cfg.Database)
	}

	if conn, ok := f.takeIdle(); ok {
		return conn, nil
	}
	return f.dialer.Dial(ctx, f.cfg.Host, f.cfg.Port, f.cfg.Socket, f.cfg.Username, f.cfg.Password, f.cfg.Database)
}

// takeIdle pops one idle, alive connection off this factory's persistent
// stack, discarding any dead ones it finds along the way. The popped conn
// is removed from persistentIdle before the lock is released, so no other
// caller can observe or take it.
func (f *Factory) takeIdle() (driver.Conn, bool) {
	key := f.dsnKey()

	f.persistentMu.Lock()
	defer f.persistentMu.Unlock()

	idle := f.persistentIdle[key]
	for len(idle) > 0 {
		conn := idle[len(idle)-1]
		idle = idle[:len(idle)-1]
		f.persistentIdle[key] = idle
		if conn.Alive() {
			return conn, true
		}
		conn.Close()
	}
	return nil, false
}

// Release returns a no-longer-in-use connection to the persistent idle
// stack so a later Create can reuse it instead of dialing fresh. A no-op
// (returning false) when this factory isn't configured for persistence or
// the connection is no longer alive — the caller should close it instead.
func (f *Factory) Release(conn driver.Conn) bool {
	if !f.cfg.Persistent || conn == nil || !conn.Alive() {
		return false
	}

	key := f.dsnKey()
	f.persistentMu.Lock()
	f.persistentIdle[key] = append(f.persistentIdle[key], conn)
	f.persistentMu.Unlock()
	return true
}

func (f *Factory) dsnKey() string {
	return fmt.Sprintf("%s:%d/%s/%s", f.cfg.Host, f.cfg.Port, f.cfg.Database, f.cfg.Username)
}
