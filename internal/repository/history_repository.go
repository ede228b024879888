package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"

	"github.com/go-redis/redis/v8"
)

// HistoryRepository stores terminal search results in Redis.
//
// Layout under the key prefix:
//
//	<p>:history:records      hash  id -> record JSON
//	<p>:history:user:<uid>   list  record ids, newest first
//	<p>:history:users        set   user ids with records
//	<p>:history:indexed      set   record ids already in a user list
//	<p>:history:stats        hash  status -> count
type HistoryRepository interface {
	Save(ctx context.Context, rec domain.HistoryRecord) error
	List(ctx context.Context, userID string, limit int) ([]domain.HistoryRecord, error)
	Get(ctx context.Context, userID, id string) (*domain.HistoryRecord, error)
}

type historyRedisRepo struct {
	rdb    *redis.Client
	prefix string
}

func NewHistoryRepository(rdb *redis.Client, keyPrefix string) HistoryRepository {
	if keyPrefix == "" {
		keyPrefix = "agents"
	}
	return &historyRedisRepo{rdb: rdb, prefix: keyPrefix}
}

func (r *historyRedisRepo) keyRecords() string { return r.prefix + ":history:records" }
func (r *historyRedisRepo) keyUsers() string   { return r.prefix + ":history:users" }
func (r *historyRedisRepo) keyStats() string   { return r.prefix + ":history:stats" }
func (r *historyRedisRepo) keyIndexed() string { return r.prefix + ":history:indexed" }
func (r *historyRedisRepo) keyUser(userID string) string {
	return fmt.Sprintf("%s:history:user:%s", r.prefix, userOrAnonymous(userID))
}

func userOrAnonymous(id string) string {
	if id == "" {
		return domain.AnonymousUser
	}
	return id
}

// saveRecord stores a record once and indexes it once. A record stored
// without its index entries is indexed on the next save.
var saveRecord = redis.NewScript(`
redis.call("HSETNX", KEYS[1], ARGV[1], ARGV[2])
if redis.call("SADD", KEYS[2], ARGV[1]) == 0 then
  return 0
end
redis.call("LPUSH", KEYS[3], ARGV[1])
redis.call("SADD", KEYS[4], ARGV[3])
redis.call("HINCRBY", KEYS[5], ARGV[4], 1)
return 1
`)

// Save is insert-only: a second write for the same id keeps the first record.
func (r *historyRedisRepo) Save(ctx context.Context, rec domain.HistoryRecord) error {
	rec.UserID = userOrAnonymous(rec.UserID)
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}
	keys := []string{r.keyRecords(), r.keyIndexed(), r.keyUser(rec.UserID), r.keyUsers(), r.keyStats()}
	if err := saveRecord.Run(ctx, r.rdb, keys, rec.ID, string(b), rec.UserID, string(rec.Status)).Err(); err != nil {
		return fmt.Errorf("redis save history: %w", err)
	}
	return nil
}

func (r *historyRedisRepo) List(ctx context.Context, userID string, limit int) ([]domain.HistoryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	ids, err := r.rdb.LRange(ctx, r.keyUser(userID), 0, int64(limit-1)).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis LRANGE history: %w", err)
	}
	if len(ids) == 0 {
		return []domain.HistoryRecord{}, nil
	}
	vals, err := r.rdb.HMGet(ctx, r.keyRecords(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HMGET history: %w", err)
	}
	out := make([]domain.HistoryRecord, 0, len(vals))
	for _, v := range vals {
		js, ok := v.(string)
		if !ok || js == "" {
			continue
		}
		var rec domain.HistoryRecord
		if err := json.Unmarshal([]byte(js), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal history record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *historyRedisRepo) Get(ctx context.Context, userID, id string) (*domain.HistoryRecord, error) {
	js, err := r.rdb.HGet(ctx, r.keyRecords(), id).Result()
	if err == redis.Nil || (err == nil && js == "") {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis HGET history: %w", err)
	}
	var rec domain.HistoryRecord
	if err := json.Unmarshal([]byte(js), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal history record: %w", err)
	}
	if rec.UserID != userOrAnonymous(userID) {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}
