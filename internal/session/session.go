// Package session defines the Session Handle: an opaque owned handle to one
// MySQL client connection, loaned out exclusively to one task at a time.
// Grounded on a connection pool's PooledConn type — same lifecycle-state
// bookkeeping, generalized to track liveness, in-transaction state,
// thread-id, and autocommit, and stripped of SQL-Server-specific pinning,
// which has no MySQL counterpart.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/joao-brasil/asyncmysql/internal/driver"
)

// State is the pool-visible lifecycle state of a Session.
type State int

const (
	StateIdle State = iota
	StateActive
	StateClosed
)

var nextID atomic.Uint64

// Session wraps a driver.Conn with the metadata the pool, executor, and
// transaction runner need to track.
type Session struct {
	mu sync.Mutex

	id   uint64
	conn driver.Conn

	state         State
	inTransaction bool
	autocommit    bool

	createdAt  time.Time
	lastUsedAt time.Time
}

// New wraps a freshly dialed driver.Conn as an idle Session.
func New(conn driver.Conn) *Session {
	now := time.Now()
	return &Session{
		id:         nextID.Add(1),
		conn:       conn,
		state:      StateIdle,
		autocommit: true,
		createdAt:  now,
		lastUsedAt: now,
	}
}

// ID is the pool-local identity used as the key into the transaction
// context registry.
func (s *Session) ID() uint64 { return s.id }

// Conn returns the underlying driver connection for the executor to drive.
func (s *Session) Conn() driver.Conn { return s.conn }

// ThreadID is the server-reported connection id.
func (s *Session) ThreadID() uint32 { return s.conn.ThreadID() }

// Alive reports the current liveness of the underlying connection. The
// health checker is the authority on this; Session just caches nothing and
// always asks the driver directly to avoid stale reads.
func (s *Session) Alive() bool { return s.conn.Alive() }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) InTransaction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inTransaction
}

func (s *Session) SetInTransaction(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inTransaction = v
}

func (s *Session) Autocommit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autocommit
}

func (s *Session) SetAutocommit(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autocommit = v
}

// MarkAcquired transitions the session to active and stamps last-used.
func (s *Session) MarkAcquired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateActive
	s.lastUsedAt = time.Now()
}

// MarkIdle transitions the session back to idle.
func (s *Session) MarkIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.lastUsedAt = time.Now()
}

// MarkClosed transitions the session to closed, its terminal state.
func (s *Session) MarkClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
}

// Close closes the underlying driver connection.
func (s *Session) Close() error {
	s.MarkClosed()
	return s.conn.Close()
}
