// Package metrics defines the Prometheus metrics emitted by the pool,
// health checker, executor, and transaction runner: one file registering
// all collectors upfront via promauto so every subsystem can use them
// without touching this file again.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PoolLive tracks live-count (idle + loaned out) per pool.
	PoolLive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "asyncmysql_pool_live",
		Help: "Live connection count (idle + loaned out) per pool",
	}, []string{"pool"})

	// PoolIdle tracks idle sessions per pool.
	PoolIdle = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "asyncmysql_pool_idle",
		Help: "Idle session count per pool",
	}, []string{"pool"})

	// PoolWaiters tracks the waiter queue length per pool.
	PoolWaiters = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "asyncmysql_pool_waiters",
		Help: "Waiter queue length per pool",
	}, []string{"pool"})

	// PoolCapacity tracks configured capacity per pool.
	PoolCapacity = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "asyncmysql_pool_capacity",
		Help: "Configured pool capacity",
	}, []string{"pool"})

	// PoolOperations counts acquire/release outcomes.
	PoolOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asyncmysql_pool_operations_total",
		Help: "Total pool operations by outcome",
	}, []string{"pool", "outcome"})

	// WaiterWaitDuration tracks how long acquire() spent queued.
	WaiterWaitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "asyncmysql_pool_waiter_wait_seconds",
		Help:    "Time spent waiting in the acquire queue",
		Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"pool"})

	// HealthChecksTotal counts is-alive probes by result.
	HealthChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asyncmysql_health_checks_total",
		Help: "Total session health checks by result",
	}, []string{"result"})

	// HealthCheckDuration tracks is-alive probe latency.
	HealthCheckDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "asyncmysql_health_check_duration_seconds",
		Help:    "Duration of session health check probes",
		Buckets: prometheus.DefBuckets,
	})

	// QueryDuration tracks executor query latency by result shape.
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "asyncmysql_query_duration_seconds",
		Help:    "Query execution duration by result shape",
		Buckets: prometheus.DefBuckets,
	}, []string{"shape"})

	// QueryErrors counts executor failures by sub-tag.
	QueryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asyncmysql_query_errors_total",
		Help: "Total query errors by phase",
	}, []string{"tag"})

	// PollIterations counts poll-loop iterations before a query completed.
	PollIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "asyncmysql_poll_iterations",
		Help:    "Number of poll-loop iterations before a query completed",
		Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128},
	})

	// TransactionAttempts tracks attempts-per-invocation of run-transaction.
	TransactionAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "asyncmysql_transaction_attempts",
		Help:    "Number of attempts consumed per transaction invocation",
		Buckets: []float64{1, 2, 3, 4, 5, 8},
	})

	// TransactionOutcomes counts commit/rollback/failed outcomes.
	TransactionOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asyncmysql_transaction_outcomes_total",
		Help: "Total transaction outcomes",
	}, []string{"outcome"})
)
