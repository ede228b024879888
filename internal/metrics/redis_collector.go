package metrics

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

// historyCollector reports persisted history counters kept by the Redis sink.
type historyCollector struct {
	rdb       *redis.Client
	keyPrefix string
	logger    *slog.Logger

	recordsDesc *prometheus.Desc
	usersDesc   *prometheus.Desc
}

func newHistoryCollector(rdb *redis.Client, keyPrefix string, logger *slog.Logger) *historyCollector {
	if logger == nil {
		logger = slog.Default()
	}
	if keyPrefix == "" {
		keyPrefix = "agents"
	}
	return &historyCollector{
		rdb:       rdb,
		keyPrefix: keyPrefix,
		logger:    logger,
		recordsDesc: prometheus.NewDesc(
			"futurnod_history_records",
			"Persisted history records by status.",
			[]string{"status"},
			nil,
		),
		usersDesc: prometheus.NewDesc(
			"futurnod_history_users",
			"Users with at least one persisted history record.",
			nil,
			nil,
		),
	}
}

func (c *historyCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.recordsDesc
	ch <- c.usersDesc
}

func (c *historyCollector) Collect(ch chan<- prometheus.Metric) {
	if c.rdb == nil {
		return
	}

	// Keep Redis reads bounded so scrapes do not hang.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pipe := c.rdb.Pipeline()
	stats := pipe.HGetAll(ctx, c.keyPrefix+":history:stats")
	users := pipe.SCard(ctx, c.keyPrefix+":history:users")
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		c.logger.Warn("prometheus history collector failed", "err", err)
		return
	}

	for status, raw := range stats.Val() {
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		emitGauge(ch, c.recordsDesc, n, status)
	}
	emitGauge(ch, c.usersDesc, float64(users.Val()))
}

func emitGauge(ch chan<- prometheus.Metric, desc *prometheus.Desc, v float64, labelValues ...string) {
	m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, v, labelValues...)
	if err != nil {
		return
	}
	ch <- m
}

var registerHistoryCollectorOnce sync.Once

func RegisterHistoryCollector(rdb *redis.Client, keyPrefix string, logger *slog.Logger) {
	registerHistoryCollectorOnce.Do(func() {
		prometheus.MustRegister(newHistoryCollector(rdb, keyPrefix, logger))
	})
}
