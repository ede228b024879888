package history

import (
	"context"

	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

// Sink persists terminal search results. Writes are insert-only and keyed by
// the SearchResult id; a repeated Save for the same id is ignored.
type Sink interface {
	Save(ctx context.Context, rec domain.HistoryRecord) error

	// List returns the user's records, newest first.
	List(ctx context.Context, userID string, limit int) ([]domain.HistoryRecord, error)

	// Get returns one of the user's records or domain.ErrNotFound.
	Get(ctx context.Context, userID, id string) (*domain.HistoryRecord, error)

	Health(ctx context.Context) error
	Close() error
}
