package backoff

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	Fixed          = "fixed"
	Linear         = "linear"
	Exponential    = "exponential"
	ExpEqualJitter = "exp_equal_jitter"
	ExpFullJitter  = "exp_full_jitter"
)

// Policy computes the wait before a poll attempt. Unknown names behave
// like Fixed so a typo never turns polling into a tight loop.
type Policy struct {
	name string
	base time.Duration
	max  time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

func New(name string, base, max time.Duration, rng *rand.Rand) *Policy {
	if base <= 0 {
		base = time.Second
	}
	if max < base {
		max = base
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Policy{name: name, base: base, max: max, rng: rng}
}

func (p *Policy) Name() string { return p.name }

// Delay returns the wait before attempt (1-based).
func (p *Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	switch p.name {
	case Linear:
		return capped(p.base*time.Duration(attempt), p.max)
	case Exponential:
		return p.exp(attempt)
	case ExpEqualJitter:
		d := p.exp(attempt)
		half := d / 2
		return half + p.jitter(d-half)
	case ExpFullJitter:
		return p.jitter(p.exp(attempt))
	default:
		return p.base
	}
}

// Budget is the longest total wait for attempts polls.
func (p *Policy) Budget(attempts int) time.Duration {
	var total time.Duration
	for i := 1; i <= attempts; i++ {
		switch p.name {
		case ExpEqualJitter, ExpFullJitter:
			total += p.exp(i)
		default:
			total += p.Delay(i)
		}
	}
	return total
}

func (p *Policy) exp(attempt int) time.Duration {
	f := float64(p.base) * math.Pow(2, float64(attempt-1))
	if f >= float64(p.max) {
		return p.max
	}
	return time.Duration(f)
}

func (p *Policy) jitter(upTo time.Duration) time.Duration {
	if upTo <= 0 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Duration(p.rng.Int63n(int64(upTo) + 1))
}

func capped(d, max time.Duration) time.Duration {
	if d > max {
		return max
	}
	return d
}
