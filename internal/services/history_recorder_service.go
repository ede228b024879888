package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zubairashfaque/FuturNod-Agents/internal/metrics"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/history"
)

// HistoryRecorder writes terminal results to the history sink without
// blocking the caller. Failures are logged and dropped.
type HistoryRecorder interface {
	Record(ctx context.Context, rec domain.HistoryRecord)
	// Wait blocks until in-flight writes finish, for shutdown and tests.
	Wait()
}

type historyRecorder struct {
	sink        history.Sink
	provider    string
	logger      *slog.Logger
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	timeout     time.Duration

	wg sync.WaitGroup
}

func NewHistoryRecorder(sink history.Sink, provider string, logger *slog.Logger, maxAttempts int) HistoryRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if sink == nil {
		sink = history.Noop{}
		provider = "none"
	}
	return &historyRecorder{
		sink:        sink,
		provider:    provider,
		logger:      logger,
		maxAttempts: maxAttempts,
		baseDelay:   500 * time.Millisecond,
		maxDelay:    10 * time.Second,
		timeout:     5 * time.Second,
	}
}

func (r *historyRecorder) Record(ctx context.Context, rec domain.HistoryRecord) {
	// The write outlives the request that produced the result.
	ctx = context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				metrics.HistoryWritesTotal.WithLabelValues(r.provider, "panic").Inc()
				r.logger.Error("history write panicked", "id", rec.ID, "panic", fmt.Sprint(p))
			}
		}()
		r.saveWithRetry(ctx, rec)
	}()
}

func (r *historyRecorder) saveWithRetry(ctx context.Context, rec domain.HistoryRecord) {
	var err error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err = r.save(ctx, rec)
		if err == nil {
			metrics.HistoryWritesTotal.WithLabelValues(r.provider, "success").Inc()
			return
		}
		if attempt < r.maxAttempts {
			_ = sleepOrDone(ctx, r.backoffDelay(attempt))
		}
	}
	metrics.HistoryWritesTotal.WithLabelValues(r.provider, "failure").Inc()
	r.logger.Warn("history write failed", "id", rec.ID, "user_id", rec.UserID, "status", string(rec.Status), "err", err)
}

func (r *historyRecorder) save(ctx context.Context, rec domain.HistoryRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.sink.Save(ctx, rec)
}

func (r *historyRecorder) backoffDelay(attempt int) time.Duration {
	d := r.baseDelay * time.Duration(1<<uint(attempt-1))
	if d > r.maxDelay {
		d = r.maxDelay
	}
	return d
}

func (r *historyRecorder) Wait() { r.wg.Wait() }

func sleepOrDone(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
