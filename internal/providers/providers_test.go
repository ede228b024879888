package providers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

func finished(id, report string) domain.SearchResult {
	sr := domain.NewSearchResult(id, time.Now().UTC(), domain.AgentSalesContactFinder, "Acme Corp", "Widget X")
	return sr.Succeeded(domain.NormalizedResult{RawMarkdown: report, FileOutput: report})
}

func TestLocalReportWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w := NewLocalReportWriter(dir)

	path, err := w.Write(context.Background(), finished("s1", "# Report"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Base(path) != "s1.md" {
		t.Fatalf("unexpected path %s", path)
	}
	content, err := os.ReadFile(filepath.Join(dir, "s1.md"))
	if err != nil || string(content) != "# Report" {
		t.Fatalf("unexpected content %q %v", content, err)
	}
}

func TestLocalReportWriterRejects(t *testing.T) {
	w := NewLocalReportWriter(t.TempDir())
	loading := domain.NewSearchResult("s2", time.Now(), domain.AgentSalesContactFinder, "Acme Corp", "Widget X")
	if _, err := w.Write(context.Background(), loading); !errors.Is(err, ErrNoReport) {
		t.Fatalf("expected ErrNoReport, got %v", err)
	}
	if _, err := w.Write(context.Background(), finished("", "x")); err == nil {
		t.Fatalf("expected invalid id error")
	}
}

func TestLocalReportWriterStaysInRoot(t *testing.T) {
	dir := t.TempDir()
	path, err := NewLocalReportWriter(dir).Write(context.Background(), finished("../escape", "x"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("report escaped root: %s", path)
	}
}

func TestRedisProvider(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := NewRedisProvider(mr.Addr(), "", 2)
	defer rdb.Close()

	if rdb.Options().DB != 2 {
		t.Fatalf("expected db 2")
	}
	if err := PingRedis(context.Background(), rdb, time.Second); err != nil {
		t.Fatalf("ping: %v", err)
	}
	mr.Close()
	if err := PingRedis(context.Background(), rdb, 200*time.Millisecond); err == nil {
		t.Fatalf("expected ping failure after close")
	}
}
