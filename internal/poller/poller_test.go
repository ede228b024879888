package poller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/zubairashfaque/FuturNod-Agents/internal/backoff"
	"github.com/zubairashfaque/FuturNod-Agents/internal/normalizer"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

type scriptedChecker struct {
	mu        sync.Mutex
	responses []domain.StatusResponse
	calls     int
	onCall    func(n int)
}

func (s *scriptedChecker) TaskStatus(ctx context.Context, requestID string) domain.StatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.onCall != nil {
		s.onCall(s.calls)
	}
	if len(s.responses) == 0 {
		return domain.StatusResponse{Success: true, Data: json.RawMessage(`{"task_status":"processing"}`)}
	}
	r := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return r
}

func (s *scriptedChecker) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingAfter struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingAfter) after(d time.Duration) <-chan time.Time {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

var processing = domain.StatusResponse{Success: true, Data: json.RawMessage(`{"task_status":"processing"}`)}

func newPoller(t *testing.T, checker StatusChecker, maxAttempts int, after *recordingAfter) *Poller {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	n := normalizer.New(normalizer.Options{Synthesize: true}, logger)
	cfg := Config{MaxAttempts: maxAttempts, Policy: backoff.New(backoff.Fixed, 5*time.Second, 5*time.Second, nil)}
	return New(checker, n, cfg, logger, WithAfter(after.after))
}

func TestRunSucceedsAfterProcessing(t *testing.T) {
	checker := &scriptedChecker{responses: []domain.StatusResponse{
		processing,
		processing,
		{Success: true, Data: json.RawMessage(`{"raw_markdown":"# Report"}`)},
	}}
	after := &recordingAfter{}
	out := newPoller(t, checker, 30, after).Run(context.Background(), domain.AgentMarketMatch, "abc")

	if !out.Succeeded() {
		t.Fatalf("expected success, got %+v", out)
	}
	if out.Result.RawMarkdown != "# Report" || out.Result.FileOutput != "# Report" {
		t.Fatalf("result = %+v", out.Result)
	}
	if out.Handle.AttemptsMade != 3 || checker.Calls() != 3 {
		t.Fatalf("attempts = %d, calls = %d", out.Handle.AttemptsMade, checker.Calls())
	}
	for _, d := range after.delays {
		if d != 5*time.Second {
			t.Fatalf("delay = %v, want 5s", d)
		}
	}
}

func TestRunExhaustsBudget(t *testing.T) {
	checker := &scriptedChecker{responses: []domain.StatusResponse{processing}}
	after := &recordingAfter{}
	out := newPoller(t, checker, 30, after).Run(context.Background(), domain.AgentSalesContactFinder, "abc")

	if !errors.Is(out.Err, domain.ErrMaxAttempts) {
		t.Fatalf("err = %v, want ErrMaxAttempts", out.Err)
	}
	if out.Message != domain.MaxAttemptsMessage {
		t.Fatalf("message = %q", out.Message)
	}
	if checker.Calls() != 30 {
		t.Fatalf("status requests = %d, want 30", checker.Calls())
	}
	if len(after.delays) != 31 {
		t.Fatalf("waits = %d, want 31", len(after.delays))
	}
}

func TestRunNotFoundIsTransient(t *testing.T) {
	checker := &scriptedChecker{responses: []domain.StatusResponse{
		{Message: "Task NOT FOUND"},
		{Message: "task not found"},
		{Success: true, Data: json.RawMessage(`{"result":"done"}`)},
	}}
	out := newPoller(t, checker, 5, &recordingAfter{}).Run(context.Background(), domain.AgentDealCraft, "abc")
	if !out.Succeeded() || out.Result.RawMarkdown != "done" {
		t.Fatalf("unexpected %+v", out)
	}
}

func TestRunBudgetBoundaries(t *testing.T) {
	repeat := func(r domain.StatusResponse, n int) []domain.StatusResponse {
		out := make([]domain.StatusResponse, n)
		for i := range out {
			out[i] = r
		}
		return out
	}
	done := domain.StatusResponse{Success: true, Data: json.RawMessage(`{"raw_markdown":"# ok","file_output":"# ok"}`)}
	notFound := domain.StatusResponse{Message: "Task not found"}

	tests := []struct {
		name      string
		responses []domain.StatusResponse
		wantCalls int
	}{
		{"success on the last attempt", append(repeat(processing, 29), done), 30},
		{"five not found then success", append(repeat(notFound, 5), done), 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &scriptedChecker{responses: tt.responses}
			out := newPoller(t, checker, 30, &recordingAfter{}).Run(context.Background(), domain.AgentSalesContactFinder, "abc")
			if !out.Succeeded() {
				t.Fatalf("err = %v, message = %q", out.Err, out.Message)
			}
			if out.Result.RawMarkdown != "# ok" {
				t.Fatalf("result = %+v", out.Result)
			}
			if checker.Calls() != tt.wantCalls || out.Handle.AttemptsMade != tt.wantCalls {
				t.Fatalf("calls = %d, attempts = %d, want %d", checker.Calls(), out.Handle.AttemptsMade, tt.wantCalls)
			}
		})
	}
}

func TestRunNotFoundForWholeBudget(t *testing.T) {
	checker := &scriptedChecker{responses: []domain.StatusResponse{{Message: "Task not found"}}}
	out := newPoller(t, checker, 3, &recordingAfter{}).Run(context.Background(), domain.AgentDealCraft, "abc")
	if !errors.Is(out.Err, domain.ErrMaxAttempts) || checker.Calls() != 3 {
		t.Fatalf("err = %v, calls = %d", out.Err, checker.Calls())
	}
}

func TestRunTerminalFailure(t *testing.T) {
	checker := &scriptedChecker{responses: []domain.StatusResponse{
		processing,
		{Message: "Error checking status: HTTP 500"},
		processing,
	}}
	out := newPoller(t, checker, 30, &recordingAfter{}).Run(context.Background(), domain.AgentSalesContactFinder, "abc")
	if !errors.Is(out.Err, domain.ErrPollTerminal) {
		t.Fatalf("err = %v", out.Err)
	}
	if out.Message != "Error checking status: HTTP 500" || out.Result != nil {
		t.Fatalf("unexpected %+v", out)
	}
	if checker.Calls() != 2 {
		t.Fatalf("calls = %d, want no requests after failure", checker.Calls())
	}
}

func TestRunRecoversPanic(t *testing.T) {
	checker := &scriptedChecker{onCall: func(n int) {
		if n == 2 {
			panic("decoder exploded")
		}
	}}
	out := newPoller(t, checker, 30, &recordingAfter{}).Run(context.Background(), domain.AgentSalesContactFinder, "abc")
	if !errors.Is(out.Err, domain.ErrPollTerminal) || out.Message != "decoder exploded" {
		t.Fatalf("unexpected %+v", out)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	checker := &scriptedChecker{onCall: func(n int) {
		if n == 2 {
			cancel()
		}
	}}
	after := func(time.Duration) <-chan time.Time {
		if ctx.Err() != nil {
			return nil
		}
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := New(checker, normalizer.New(normalizer.Options{}, logger), Config{MaxAttempts: 30}, logger, WithAfter(after))

	out := p.Run(ctx, domain.AgentSalesContactFinder, "abc")
	if !errors.Is(out.Err, ErrCancelled) || out.Message != CancelledMessage {
		t.Fatalf("unexpected %+v", out)
	}
	if checker.Calls() != 2 {
		t.Fatalf("calls = %d", checker.Calls())
	}
}
