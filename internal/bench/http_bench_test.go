package bench

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zubairashfaque/FuturNod-Agents/internal/poller"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/app"
	_ "github.com/zubairashfaque/FuturNod-Agents/pkg/auth/static" // Register static auth provider.
	"github.com/zubairashfaque/FuturNod-Agents/pkg/config"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

const (
	benchToken   = "bench-token"
	benchSubject = "bench-user"
	benchAPIKey  = "bench-api-key"
)

// agentStub completes every task on its first poll.
func agentStub() http.Handler {
	var seq atomic.Int64
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/health":
			_, _ = io.WriteString(w, `{"status":"ok"}`)
		case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/agents/"):
			fmt.Fprintf(w, `{"success":true,"request_id":"req-%d"}`, seq.Add(1))
		case strings.HasPrefix(r.URL.Path, "/task/"):
			_, _ = io.WriteString(w, `{"success":true,"data":{"task_status":"completed","raw_markdown":"# Bench","file_output":"# Bench"}}`)
		default:
			http.NotFound(w, r)
		}
	})
}

func immediate(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func newBenchApp(b *testing.B) *app.Application {
	b.Helper()
	gin.SetMode(gin.ReleaseMode)

	agents := httptest.NewServer(agentStub())
	b.Cleanup(agents.Close)

	cfg := &config.Config{
		Env:       "dev",
		LogLevel:  "error",
		LogFormat: "json",
		AgentAPI:  config.AgentAPIConfig{BaseURL: agents.URL, APIKey: benchAPIKey, TimeoutSeconds: 5},
		Polling:   config.PollingConfig{IntervalSeconds: 1, MaxAttempts: 3, Policy: "fixed", MaxIntervalSeconds: 1},
		History:   config.HistoryConfig{Provider: "memory", MaxAttempts: 1, ListLimit: 10},
		Auth: config.AuthConfig{Provider: "static", Config: map[string]any{
			"token":   benchToken,
			"subject": benchSubject,
		}},
		// Benchmarks keep rate limiting disabled.
		RateLimit:  config.RateLimitConfig{},
		ReportsDir: b.TempDir(),
	}
	if err := cfg.Validate(); err != nil {
		b.Fatalf("config: %v", err)
	}

	var logs bytes.Buffer
	a, err := app.NewApplication(cfg,
		app.WithPollerOptions(poller.WithAfter(immediate)),
		app.WithLogOutput(&logs),
	)
	if err != nil {
		b.Fatalf("app init: %v", err)
	}
	app.SetupMappings(a)
	b.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func doJSONRequest(b *testing.B, h http.Handler, method, path string, body []byte) (int, []byte) {
	b.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+benchToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code, w.Body.Bytes()
}

func BenchmarkHTTP_SubmitAndWait(b *testing.B) {
	a := newBenchApp(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		body := []byte(fmt.Sprintf(`{"company":"Acme %d","product":"Widget"}`, i))
		status, resp := doJSONRequest(b, a.Engine, http.MethodPost, "/v1/searches", body)
		if status != http.StatusAccepted && status != http.StatusOK {
			b.Fatalf("create status %d body=%s", status, string(resp))
		}
		var created domain.SearchResult
		if err := json.Unmarshal(resp, &created); err != nil || created.ID == "" {
			b.Fatalf("create parse failed: err=%v body=%s", err, string(resp))
		}

		status, resp = doJSONRequest(b, a.Engine, http.MethodGet, "/v1/searches/"+created.ID+"?wait=10s", nil)
		if status != http.StatusOK {
			b.Fatalf("wait status %d body=%s", status, string(resp))
		}
	}
}

func BenchmarkFacade_SubmitAndWait(b *testing.B) {
	a := newBenchApp(b)
	ctx := context.Background()
	f := a.Sessions.For(benchSubject)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sr, err := f.Submit(ctx, fmt.Sprintf("Acme %d", i), "Widget")
		if err != nil {
			b.Fatalf("Submit: %v", err)
		}
		final, err := f.Wait(ctx, sr.ID)
		if err != nil || final.Status != domain.StatusSuccess {
			b.Fatalf("Wait: status=%s err=%v", final.Status, err)
		}
	}
}
