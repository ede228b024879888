package services

import (
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

const defaultMaxSessions = 1024

// FacadeBuilder creates the Façade for a user seen for the first time.
type FacadeBuilder func(userID string) *Facade

// SessionRegistry keeps one Façade per user id. The least recently used
// session is dropped once the registry is full; its running searches still
// finish and reach the history sink.
type SessionRegistry struct {
	build  FacadeBuilder
	logger *slog.Logger

	mu    sync.Mutex
	cache *lru.Cache[string, *Facade]
}

func NewSessionRegistry(size int, build FacadeBuilder, logger *slog.Logger) (*SessionRegistry, error) {
	if build == nil {
		return nil, fmt.Errorf("session registry: nil builder")
	}
	if size <= 0 {
		size = defaultMaxSessions
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &SessionRegistry{build: build, logger: logger}
	cache, err := lru.NewWithEvict[string, *Facade](size, func(userID string, _ *Facade) {
		r.logger.Info("session evicted", "user_id", userID)
	})
	if err != nil {
		return nil, fmt.Errorf("session registry: %w", err)
	}
	r.cache = cache
	return r, nil
}

// For returns the Façade of userID, creating it on first use.
func (r *SessionRegistry) For(userID string) *Facade {
	if userID == "" {
		userID = domain.AnonymousUser
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.cache.Get(userID); ok {
		return f
	}
	f := r.build(userID)
	r.cache.Add(userID, f)
	return f
}

func (r *SessionRegistry) Len() int { return r.cache.Len() }
