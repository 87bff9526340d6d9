// Package pool implements a bounded resource pool with a FIFO waiter queue,
// health-checked releases, and fair transfer of connections directly from
// releasers to waiters.
//
// Grounded on a connection pool's BucketPool: the same mutex-guarded
// idle/active/waiters state machine, the same acquire-or-wait,
// release-resets-then-hands-off shape. Two deliberate changes here: idle is
// dequeued FIFO (a LIFO pop optimizes for cache locality but breaks the
// fairness this pool wants from its idle head), and a dead release only
// eagerly replaces for the head waiter, with no cascade to the rest of the
// queue (a plain Discard has no waiter hand-off at all).
package pool

import (
	"context"
	"sync"
	"time"

	"github.com/joao-brasil/asyncmysql/internal/config"
	"github.com/joao-brasil/asyncmysql/internal/errs"
	"github.com/joao-brasil/asyncmysql/internal/factory"
	"github.com/joao-brasil/asyncmysql/internal/health"
	"github.com/joao-brasil/asyncmysql/internal/metrics"
	"github.com/joao-brasil/asyncmysql/internal/session"
)

// replacementTimeout bounds how long a dead-release eager replacement may
// take to dial before the waiter gives up on this pool entirely.
const replacementTimeout = 30 * time.Second

// Stats is the pool's statistics record, with field names tests depend on
// verbatim.
type Stats struct {
	Live      int
	Idle      int
	Waiting   int
	Capacity  int
	Persistent bool
	Validated bool
}

// Pool is the bounded connection pool for one configured backend.
type Pool struct {
	mu sync.Mutex

	name     string
	capacity int

	idle    []*session.Session
	waiters []*waiter

	liveCount int
	closed    bool

	lastHandedOut *session.Session

	persistent bool
	cfg        *config.Record
	factory    *factory.Factory
}

// New builds a Pool for the given validated config record. capacity is
// read from cfg.Capacity (N≥1 — the caller is expected to have already run
// config.Validate).
func New(name string, cfg *config.Record, f *factory.Factory) *Pool {
	p := &Pool{
		name:       name,
		capacity:   cfg.Capacity,
		persistent: cfg.Persistent,
		cfg:        cfg,
		factory:    f,
	}
	metrics.PoolCapacity.WithLabelValues(name).Set(float64(cfg.Capacity))
	p.publishGauges()
	return p
}

// Acquire returns a ready-to-use session: reuse idle, else grow under
// capacity, else queue fairly.
func (p *Pool) Acquire(ctx context.Context) (*session.Session, error) {
	start := time.Now()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, &errs.PoolClosed{}
	}

	if len(p.idle) > 0 {
		sess := p.idle[0]
		p.idle = p.idle[1:]
		sess.MarkAcquired()
		p.lastHandedOut = sess
		p.publishGaugesLocked()
		p.mu.Unlock()
		metrics.PoolOperations.WithLabelValues(p.name, "acquired_idle").Inc()
		return sess, nil
	}

	if p.liveCount < p.capacity {
		p.liveCount++
		p.mu.Unlock()

		sess, err := p.factory.Create(ctx)
		if err != nil {
			p.mu.Lock()
			p.liveCount--
			p.publishGaugesLocked()
			p.mu.Unlock()
			metrics.PoolOperations.WithLabelValues(p.name, "create_failed").Inc()
			return nil, err
		}

		sess.MarkAcquired()
		p.mu.Lock()
		p.lastHandedOut = sess
		p.publishGaugesLocked()
		p.mu.Unlock()
		metrics.PoolOperations.WithLabelValues(p.name, "acquired_new").Inc()
		return sess, nil
	}

	w := newWaiter()
	p.waiters = append(p.waiters, w)
	p.publishGaugesLocked()
	p.mu.Unlock()

	select {
	case out := <-w.ch:
		metrics.WaiterWaitDuration.WithLabelValues(p.name).Observe(time.Since(start).Seconds())
		if out.err != nil {
			metrics.PoolOperations.WithLabelValues(p.name, "wait_failed").Inc()
			return nil, out.err
		}
		metrics.PoolOperations.WithLabelValues(p.name, "acquired_waited").Inc()
		return out.sess, nil

	case <-ctx.Done():
		// Remove this waiter without decrementing live-count: a cancelled
		// waiter never consumed a connection slot, so nothing to give back.
		p.removeWaiter(w)
		// A releaser may have already handed this waiter a session in the
		// instant before removeWaiter ran (it was no longer in the queue
		// to remove). Drain that race outcome and feed the session back
		// to the pool instead of stranding it outside all bookkeeping.
		select {
		case out := <-w.ch:
			if out.sess != nil {
				p.Release(out.sess)
			}
		default:
		}
		metrics.PoolOperations.WithLabelValues(p.name, "wait_cancelled").Inc()
		return nil, ctx.Err()
	}
}

func (p *Pool) removeWaiter(w *waiter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, cur := range p.waiters {
		if cur == w {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			break
		}
	}
	p.publishGaugesLocked()
}

// Release returns a session to the pool: health-check first, then either
// discard-and-maybe-replace (dead path) or reset-and-hand-off (alive path).
// Each acquired session must be released exactly once; a second Release of
// the same session is not detected or guarded against.
func (p *Pool) Release(s *session.Session) {
	if s == nil {
		return
	}

	if !health.IsAlive(s) {
		p.releaseDead(s)
		return
	}

	health.Reset(s)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		if p.persistent && p.factory.Release(s.Conn()) {
			s.MarkClosed()
			return
		}
		s.Close()
		return
	}
	if len(p.waiters) > 0 {
		w := p.waiters[0]
		p.waiters = p.waiters[1:]
		s.MarkAcquired()
		p.lastHandedOut = s
		p.publishGaugesLocked()
		p.mu.Unlock()
		w.fulfill(s)
		metrics.PoolOperations.WithLabelValues(p.name, "handed_off").Inc()
		return
	}

	s.MarkIdle()
	p.idle = append(p.idle, s)
	p.publishGaugesLocked()
	p.mu.Unlock()
	metrics.PoolOperations.WithLabelValues(p.name, "released_idle").Inc()
}

func (p *Pool) releaseDead(s *session.Session) {
	s.Close()

	p.mu.Lock()
	if p.closed {
		p.liveCount--
		p.publishGaugesLocked()
		p.mu.Unlock()
		return
	}
	p.liveCount--

	if len(p.waiters) == 0 {
		p.publishGaugesLocked()
		p.mu.Unlock()
		metrics.PoolOperations.WithLabelValues(p.name, "dead_discarded").Inc()
		return
	}

	w := p.waiters[0]
	p.waiters = p.waiters[1:]
	// Eagerly create a replacement for the head waiter only — no cascade
	// to the rest of the queue.
	p.liveCount++
	p.publishGaugesLocked()
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), replacementTimeout)
	defer cancel()

	replacement, err := p.factory.Create(ctx)
	if err != nil {
		p.mu.Lock()
		p.liveCount--
		p.publishGaugesLocked()
		p.mu.Unlock()
		metrics.PoolOperations.WithLabelValues(p.name, "replacement_failed").Inc()
		w.fail(err)
		return
	}

	replacement.MarkAcquired()
	p.mu.Lock()
	p.lastHandedOut = replacement
	p.publishGaugesLocked()
	p.mu.Unlock()
	metrics.PoolOperations.WithLabelValues(p.name, "replacement_handed_off").Inc()
	w.fulfill(replacement)
}

// Close rejects all waiters with PoolClosed and closes all idle sessions;
// in a persistent pool, an idle session's live connection is handed back
// to the factory's reusable-handle cache instead of being closed.
// Sessions currently loaned out are not force-closed; they become
// orphaned and are discarded by their holder's next Release call, which
// will observe p.closed and close (or, when persistent, hand back to the
// factory) rather than re-pool them.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true

	waiters := p.waiters
	p.waiters = nil
	idle := p.idle
	p.idle = nil
	p.publishGaugesLocked()
	p.mu.Unlock()

	for _, w := range waiters {
		w.fail(&errs.PoolClosed{})
	}
	for _, s := range idle {
		if p.persistent && p.factory.Release(s.Conn()) {
			s.MarkClosed()
			continue
		}
		s.Close()
	}
}

// Stats returns the pool's current statistics record — field names are
// part of the public contract.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Live:       p.liveCount,
		Idle:       len(p.idle),
		Waiting:    len(p.waiters),
		Capacity:   p.capacity,
		Persistent: p.persistent,
		Validated:  true,
	}
}

// LastHandedOut returns the most recently handed-out session, or nil.
func (p *Pool) LastHandedOut() *session.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastHandedOut
}

func (p *Pool) publishGauges() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.publishGaugesLocked()
}

func (p *Pool) publishGaugesLocked() {
	metrics.PoolLive.WithLabelValues(p.name).Set(float64(p.liveCount))
	metrics.PoolIdle.WithLabelValues(p.name).Set(float64(len(p.idle)))
	metrics.PoolWaiters.WithLabelValues(p.name).Set(float64(len(p.waiters)))
}
