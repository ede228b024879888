package memory

import (
	"context"
	"sync"

	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/history"
)

// Plugin implements history.Sink in process memory. Records are lost on
// restart; it serves development and tests.
type Plugin struct {
	mu      sync.RWMutex
	records map[string]domain.HistoryRecord
	byUser  map[string][]string
}

func NewPlugin(history.PluginConfig) (history.Sink, error) {
	return New(), nil
}

func New() *Plugin {
	return &Plugin{
		records: make(map[string]domain.HistoryRecord),
		byUser:  make(map[string][]string),
	}
}

func userKey(id string) string {
	if id == "" {
		return domain.AnonymousUser
	}
	return id
}

func (p *Plugin) Save(ctx context.Context, rec domain.HistoryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec.UserID = userKey(rec.UserID)

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.records[rec.ID]; ok {
		return nil
	}
	p.records[rec.ID] = rec
	p.byUser[rec.UserID] = append(p.byUser[rec.UserID], rec.ID)
	return nil
}

func (p *Plugin) List(ctx context.Context, userID string, limit int) ([]domain.HistoryRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := p.byUser[userKey(userID)]
	out := make([]domain.HistoryRecord, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, p.records[ids[i]])
	}
	return out, nil
}

func (p *Plugin) Get(ctx context.Context, userID, id string) (*domain.HistoryRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	rec, ok := p.records[id]
	if !ok || rec.UserID != userKey(userID) {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// Len returns the number of stored records.
func (p *Plugin) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.records)
}

func (p *Plugin) Health(ctx context.Context) error { return nil }

func (p *Plugin) Close() error { return nil }

func init() {
	history.RegisterProvider("memory", NewPlugin)
}
