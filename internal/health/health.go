// Package health implements liveness probing and post-use state reset for
// one session. Grounded on a connection pool's BucketPool.HealthCheck (a
// PingContext probe) and a checker's probe-and-report shape, generalized to
// the session abstraction and instrumented the same way pool state
// transitions are elsewhere in this module.
package health

import (
	"context"
	"time"

	"github.com/joao-brasil/asyncmysql/internal/metrics"
	"github.com/joao-brasil/asyncmysql/internal/session"
)

// probeTimeout bounds how long a single liveness round-trip may take
// before the session is declared unhealthy.
const probeTimeout = 5 * time.Second

// IsAlive probes the session by first draining any pending multi-result
// cursors, then issuing a trivial round-trip (SELECT 1). It returns true
// iff both succeed without error.
func IsAlive(s *session.Session) bool {
	start := time.Now()
	defer func() { metrics.HealthCheckDuration.Observe(time.Since(start).Seconds()) }()

	conn := s.Conn()
	if err := conn.DrainResults(); err != nil {
		metrics.HealthChecksTotal.WithLabelValues("unhealthy").Inc()
		return false
	}

	handle, err := conn.Query("SELECT 1")
	if err != nil {
		metrics.HealthChecksTotal.WithLabelValues("unhealthy").Inc()
		return false
	}
	ready, err := handle.Poll(context.Background(), probeTimeout)
	if err != nil || !ready {
		metrics.HealthChecksTotal.WithLabelValues("unhealthy").Inc()
		return false
	}
	if _, err := handle.Reap(); err != nil {
		metrics.HealthChecksTotal.WithLabelValues("unhealthy").Inc()
		return false
	}

	metrics.HealthChecksTotal.WithLabelValues("healthy").Inc()
	return true
}

// Reset drains pending results and re-enables autocommit. Errors are
// tolerated silently — a failing reset simply makes the next IsAlive call
// fail, which removes the session from the pool. Any active transaction is
// implicitly aborted by this call.
func Reset(s *session.Session) {
	conn := s.Conn()
	_ = conn.DrainResults()
	_ = conn.Rollback()
	if err := conn.Autocommit(true); err == nil {
		s.SetAutocommit(true)
	}
	s.SetInTransaction(false)
}
