package pool

import "github.com/joao-brasil/asyncmysql/internal/session"

// waiter is the one-shot completion slot a queued Acquire call blocks on: at
// most one of fulfill/fail is ever invoked. Implemented as a buffered
// channel of one outcome so Acquire can select on it without an
// intermediate callback registry.
type waiter struct {
	ch chan waiterOutcome
}

type waiterOutcome struct {
	sess *session.Session
	err  error
}

func newWaiter() *waiter {
	return &waiter{ch: make(chan waiterOutcome, 1)}
}

func (w *waiter) fulfill(s *session.Session) {
	w.ch <- waiterOutcome{sess: s}
}

func (w *waiter) fail(err error) {
	w.ch <- waiterOutcome{err: err}
}
