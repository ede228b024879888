package providers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

var ErrNoReport = errors.New("search has no report")

// ReportWriter exports the markdown report of a finished search.
type ReportWriter interface {
	Write(ctx context.Context, sr domain.SearchResult) (string, error)
}

type localReportWriter struct {
	rootDir string
}

func NewLocalReportWriter(rootDir string) ReportWriter {
	return &localReportWriter{rootDir: rootDir}
}

// Write stores file_output as <rootDir>/<id>.md and returns the absolute path.
func (w *localReportWriter) Write(ctx context.Context, sr domain.SearchResult) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if sr.Status != domain.StatusSuccess || sr.Result == nil {
		return "", ErrNoReport
	}
	name := filepath.Base(strings.TrimSpace(sr.ID))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid search id %q", sr.ID)
	}
	if err := os.MkdirAll(w.rootDir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}
	dst := filepath.Join(w.rootDir, name+".md")
	if err := os.WriteFile(dst, []byte(sr.Result.FileOutput), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	abs, err := filepath.Abs(dst)
	if err != nil {
		return dst, nil
	}
	return abs, nil
}
