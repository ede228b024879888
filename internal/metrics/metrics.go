package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "futurnod"

var (
	HealthChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "health_checks_total",
			Help:      "Total number of agent API health probes, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	TasksStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_started_total",
			Help:      "Total number of agent task launches, labeled by agent and outcome.",
		},
		[]string{"agent", "outcome"},
	)

	PollAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_attempts_total",
			Help:      "Total number of task status polls, labeled by agent and observed state.",
		},
		[]string{"agent", "state"},
	)

	TasksCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_completed_total",
			Help:      "Total number of searches that reached a terminal status.",
		},
		[]string{"agent", "status"},
	)

	TaskLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_latency_seconds",
			Help:      "Latency from submission to terminal status (seconds).",
			Buckets:   []float64{1, 5, 10, 15, 30, 60, 90, 120, 150, 300, 600},
		},
		[]string{"agent", "status"},
	)

	HistoryWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_writes_total",
			Help:      "Total number of history sink writes, labeled by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	RateLimitHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total number of requests rejected by the rate limiter.",
		},
		[]string{"scope", "operation"},
	)
)

func init() {
	prometheus.MustRegister(
		HealthChecksTotal,
		TasksStartedTotal,
		PollAttemptsTotal,
		TasksCompletedTotal,
		TaskLatencySeconds,
		HistoryWritesTotal,
		RateLimitHitsTotal,
	)
}
