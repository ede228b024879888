package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zubairashfaque/FuturNod-Agents/internal/backoff"
	"github.com/zubairashfaque/FuturNod-Agents/internal/metrics"
	"github.com/zubairashfaque/FuturNod-Agents/internal/normalizer"
	"github.com/zubairashfaque/FuturNod-Agents/internal/tracing"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

// CancelledMessage is reported when the loop's context ends first.
const CancelledMessage = "polling cancelled"

var ErrCancelled = errors.New(CancelledMessage)

// StatusChecker fetches the raw status of a remote task.
type StatusChecker interface {
	TaskStatus(ctx context.Context, requestID string) domain.StatusResponse
}

type Config struct {
	MaxAttempts int
	Policy      *backoff.Policy
}

// Outcome is the single terminal report of a loop. Exactly one of Result
// and Err is set.
type Outcome struct {
	Handle domain.TaskHandle
	Result *domain.NormalizedResult
	Err    error
	// Message is the user-facing failure text.
	Message string
}

func (o Outcome) Succeeded() bool { return o.Err == nil }

type Poller struct {
	checker    StatusChecker
	normalizer *normalizer.Normalizer
	cfg        Config
	logger     *slog.Logger
	tracer     trace.Tracer
	after      func(time.Duration) <-chan time.Time
}

type Option func(*Poller)

// WithAfter replaces time.After, for tests.
func WithAfter(after func(time.Duration) <-chan time.Time) Option {
	return func(p *Poller) { p.after = after }
}

func New(checker StatusChecker, n *normalizer.Normalizer, cfg Config, logger *slog.Logger, opts ...Option) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 30
	}
	if cfg.Policy == nil {
		cfg.Policy = backoff.New(backoff.Fixed, 5*time.Second, 5*time.Second, nil)
	}
	p := &Poller{
		checker:    checker,
		normalizer: n,
		cfg:        cfg,
		logger:     logger,
		tracer:     tracing.Tracer("github.com/zubairashfaque/FuturNod-Agents/internal/poller"),
		after:      time.After,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run polls requestID until it reaches a terminal state and returns that
// state. It never returns early without an outcome.
func (p *Poller) Run(ctx context.Context, agent domain.Agent, requestID string) Outcome {
	ctx, span := p.tracer.Start(ctx, "poller.run", trace.WithAttributes(
		attribute.String("agent", agent.String()),
		attribute.String("request_id", requestID),
		attribute.Int("max_attempts", p.cfg.MaxAttempts),
	))
	defer span.End()

	out := p.run(ctx, agent, requestID)
	span.SetAttributes(attribute.Int("attempts", out.Handle.AttemptsMade))
	if !out.Succeeded() {
		span.SetStatus(codes.Error, domain.FirstLine(out.Message))
	}
	return out
}

func (p *Poller) run(ctx context.Context, agent domain.Agent, requestID string) Outcome {
	h := domain.TaskHandle{RequestID: requestID, MaxAttempts: p.cfg.MaxAttempts}
	log := p.logger.With("request_id", requestID, "agent", agent.String())

	for {
		select {
		case <-ctx.Done():
			log.Info("polling cancelled", "attempts", h.AttemptsMade)
			return failed(h, ErrCancelled, CancelledMessage)
		case <-p.after(p.cfg.Policy.Delay(h.AttemptsMade + 1)):
		}

		h.AttemptsMade++
		if h.Exhausted() {
			log.Warn("polling budget exhausted", "attempts", h.AttemptsMade-1)
			metrics.PollAttemptsTotal.WithLabelValues(agent.String(), "exhausted").Inc()
			return failed(h, domain.ErrMaxAttempts, domain.MaxAttemptsMessage)
		}

		out, done := p.tick(ctx, agent, h, log)
		if done {
			return out
		}
	}
}

// tick performs one status request. A panic ends the loop as a failure.
func (p *Poller) tick(ctx context.Context, agent domain.Agent, h domain.TaskHandle, log *slog.Logger) (out Outcome, done bool) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprint(r)
			log.Error("poll tick panicked", "attempt", h.AttemptsMade, "panic", msg)
			out, done = failed(h, fmt.Errorf("%w: %s", domain.ErrPollTerminal, msg), msg), true
		}
	}()

	st := p.checker.TaskStatus(ctx, h.RequestID)
	switch {
	case !st.Success && st.NotFound():
		p.observe(agent, "not_found")
		log.Debug("task not registered yet", "attempt", h.AttemptsMade)
		return Outcome{}, false
	case !st.Success:
		if ctx.Err() != nil {
			return failed(h, ErrCancelled, CancelledMessage), true
		}
		p.observe(agent, "failed")
		msg := st.Message
		if msg == "" {
			msg = "Task status check failed"
		}
		log.Warn("task status failed", "attempt", h.AttemptsMade, "message", msg)
		return failed(h, fmt.Errorf("%w: %s", domain.ErrPollTerminal, domain.FirstLine(msg)), msg), true
	case st.Processing():
		p.observe(agent, "processing")
		log.Debug("task processing", "attempt", h.AttemptsMade)
		return Outcome{}, false
	}

	p.observe(agent, "succeeded")
	res := p.normalizer.Status(st, agent)
	log.Info("task completed", "attempts", h.AttemptsMade)
	return Outcome{Handle: h, Result: &res}, true
}

func (p *Poller) observe(agent domain.Agent, state string) {
	metrics.PollAttemptsTotal.WithLabelValues(agent.String(), state).Inc()
}

func failed(h domain.TaskHandle, err error, msg string) Outcome {
	return Outcome{Handle: h, Err: err, Message: msg}
}
