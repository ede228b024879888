package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zubairashfaque/FuturNod-Agents/internal/providers"
	"github.com/zubairashfaque/FuturNod-Agents/internal/repository"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/history"

	"github.com/go-redis/redis/v8"
)

// Config holds Redis-specific configuration
type Config struct {
	Addr     string `json:"addr"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db,omitempty"`
}

// Plugin implements history.Sink for Redis/KVRocks
type Plugin struct {
	client *redis.Client
	repo   repository.HistoryRepository
}

// NewPlugin creates a new Redis history sink
func NewPlugin(config history.PluginConfig) (history.Sink, error) {
	var cfg Config
	if len(config.Config) > 0 {
		if err := json.Unmarshal(config.Config, &cfg); err != nil {
			return nil, fmt.Errorf("redis history config: %w", err)
		}
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis history config: addr is required")
	}

	client := providers.NewRedisProvider(cfg.Addr, cfg.Password, cfg.DB)
	return &Plugin{
		client: client,
		repo:   repository.NewHistoryRepository(client, config.KeyPrefix),
	}, nil
}

func (p *Plugin) Save(ctx context.Context, rec domain.HistoryRecord) error {
	if err := p.repo.Save(ctx, rec); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSink, err)
	}
	return nil
}

func (p *Plugin) List(ctx context.Context, userID string, limit int) ([]domain.HistoryRecord, error) {
	return p.repo.List(ctx, userID, limit)
}

func (p *Plugin) Get(ctx context.Context, userID, id string) (*domain.HistoryRecord, error) {
	return p.repo.Get(ctx, userID, id)
}

// Client exposes the underlying connection for metrics collection.
func (p *Plugin) Client() *redis.Client { return p.client }

// Health checks if Redis is healthy
func (p *Plugin) Health(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close releases Redis connection
func (p *Plugin) Close() error {
	return p.client.Close()
}

func init() {
	history.RegisterProvider("redis", NewPlugin)
}
