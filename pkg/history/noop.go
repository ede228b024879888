package history

import (
	"context"

	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

// Noop discards writes. It backs the "none" provider.
type Noop struct{}

func (Noop) Save(context.Context, domain.HistoryRecord) error { return nil }

func (Noop) List(context.Context, string, int) ([]domain.HistoryRecord, error) {
	return []domain.HistoryRecord{}, nil
}

func (Noop) Get(context.Context, string, string) (*domain.HistoryRecord, error) {
	return nil, domain.ErrNotFound
}

func (Noop) Health(context.Context) error { return nil }
func (Noop) Close() error                 { return nil }

func init() {
	RegisterProvider("none", func(PluginConfig) (Sink, error) { return Noop{}, nil })
}
