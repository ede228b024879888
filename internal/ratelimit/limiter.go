package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// Rule is a per-minute allowance with a burst. A zero rule disables limiting.
type Rule struct {
	PerMinute int `yaml:"submitPerMinute" json:"submitPerMinute"`
	Burst     int `yaml:"burst" json:"burst"`
}

func (r Rule) Enabled() bool { return r.PerMinute > 0 }

func (r Rule) capacity() float64 {
	if r.Burst > 0 {
		return float64(r.Burst)
	}
	return float64(r.PerMinute)
}

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, scope, subject string, rule Rule) (Decision, error)
}

// Unlimited allows everything. It backs deployments without Redis.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string, string, Rule) (Decision, error) {
	return Decision{Allowed: true}, nil
}

// RedisLimiter keeps one token bucket per scope and subject in a Redis hash.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisLimiter(rdb *redis.Client, keyPrefix string) *RedisLimiter {
	if keyPrefix == "" {
		keyPrefix = "futurnod"
	}
	return &RedisLimiter{rdb: rdb, prefix: keyPrefix, now: time.Now}
}

// refill, take one token if possible and report {allowed, tokens left, wait ms}.
var takeToken = redis.NewScript(`
local perMs = tonumber(ARGV[1])
local cap = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1]) or cap
local ts = tonumber(state[2]) or now
if ts > now then ts = now end

tokens = math.min(cap, tokens + (now - ts) * perMs)

local ok = 0
local wait = 0
if tokens >= 1 then
  ok = 1
  tokens = tokens - 1
else
  wait = math.ceil((1 - tokens) / perMs)
end

redis.call("HSET", KEYS[1], "tokens", tokens, "ts", now)
redis.call("PEXPIRE", KEYS[1], ARGV[4])
return {ok, math.floor(tokens), wait}
`)

func (l *RedisLimiter) Allow(ctx context.Context, scope, subject string, rule Rule) (Decision, error) {
	if l == nil || l.rdb == nil || !rule.Enabled() {
		return Decision{Allowed: true}, nil
	}
	perMs := float64(rule.PerMinute) / float64(time.Minute.Milliseconds())
	capacity := rule.capacity()
	args := []interface{}{perMs, capacity, l.now().UTC().UnixMilli(), bucketTTL(perMs, capacity).Milliseconds()}

	res, err := takeToken.Run(ctx, l.rdb, []string{l.key(scope, subject)}, args...).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", scope, err)
	}
	vals, ok := res.([]interface{})
	if !ok || len(vals) != 3 {
		return Decision{}, fmt.Errorf("rate limit %s: unexpected reply %T", scope, res)
	}
	allowed, _ := vals[0].(int64)
	remaining, _ := vals[1].(int64)
	waitMs, _ := vals[2].(int64)
	if allowed == 1 {
		return Decision{Allowed: true, Remaining: int(remaining)}, nil
	}
	wait := time.Duration(waitMs) * time.Millisecond
	if wait < time.Second {
		wait = time.Second
	}
	return Decision{RetryAfter: wait.Round(time.Second)}, nil
}

func (l *RedisLimiter) key(scope, subject string) string {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		scope = "default"
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "anonymous"
	}
	sum := sha256.Sum256([]byte(subject))
	return fmt.Sprintf("%s:rl:%s:%s", l.prefix, scope, hex.EncodeToString(sum[:]))
}

// bucketTTL keeps idle buckets for two full refills, within [30s, 1h].
func bucketTTL(perMs, capacity float64) time.Duration {
	if perMs <= 0 || capacity <= 0 {
		return 2 * time.Minute
	}
	ttl := time.Duration(math.Ceil(2*capacity/perMs))*time.Millisecond + 5*time.Second
	switch {
	case ttl < 30*time.Second:
		return 30 * time.Second
	case ttl > time.Hour:
		return time.Hour
	}
	return ttl
}
