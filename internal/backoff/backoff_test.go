package backoff

import (
	"math/rand"
	"testing"
	"time"
)

func TestDelayFixed(t *testing.T) {
	p := New(Fixed, 5*time.Second, 5*time.Second, rand.New(rand.NewSource(42)))
	for _, attempt := range []int{0, 1, 2, 30, 100} {
		if got := p.Delay(attempt); got != 5*time.Second {
			t.Errorf("Delay(%d) = %v, want 5s", attempt, got)
		}
	}
}

func TestDelayLinear(t *testing.T) {
	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{"first attempt", 1, 2 * time.Second},
		{"second attempt", 2, 4 * time.Second},
		{"third attempt", 3, 6 * time.Second},
		{"capped at max", 10, 10 * time.Second},
		{"zero treated as first", 0, 2 * time.Second},
	}

	p := New(Linear, 2*time.Second, 10*time.Second, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Delay(tt.attempt); got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestDelayExponential(t *testing.T) {
	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{"first attempt", 1, time.Second},
		{"second attempt", 2, 2 * time.Second},
		{"fourth attempt", 4, 8 * time.Second},
		{"capped at max", 20, 30 * time.Second},
	}

	p := New(Exponential, time.Second, 30*time.Second, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Delay(tt.attempt); got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestDelayJitterBounds(t *testing.T) {
	full := New(ExpFullJitter, time.Second, 16*time.Second, rand.New(rand.NewSource(1)))
	equal := New(ExpEqualJitter, time.Second, 16*time.Second, rand.New(rand.NewSource(2)))

	for attempt := 1; attempt <= 8; attempt++ {
		ceiling := full.exp(attempt)
		if got := full.Delay(attempt); got < 0 || got > ceiling {
			t.Errorf("full jitter Delay(%d) = %v, want within [0, %v]", attempt, got, ceiling)
		}
		if got := equal.Delay(attempt); got < ceiling/2 || got > ceiling {
			t.Errorf("equal jitter Delay(%d) = %v, want within [%v, %v]", attempt, got, ceiling/2, ceiling)
		}
	}
}

func TestUnknownPolicyBehavesFixed(t *testing.T) {
	p := New("random", 3*time.Second, time.Minute, nil)
	if got := p.Delay(7); got != 3*time.Second {
		t.Errorf("Delay(7) = %v, want 3s", got)
	}
}

func TestNewDefaults(t *testing.T) {
	p := New(Fixed, 0, 0, nil)
	if got := p.Delay(1); got != time.Second {
		t.Errorf("zero base should default to 1s, got %v", got)
	}
}

func TestBudget(t *testing.T) {
	p := New(Fixed, 5*time.Second, 5*time.Second, nil)
	if got := p.Budget(30); got != 150*time.Second {
		t.Errorf("Budget(30) = %v, want 150s", got)
	}
	j := New(ExpFullJitter, time.Second, 4*time.Second, nil)
	// 1 + 2 + 4 + 4
	if got := j.Budget(4); got != 11*time.Second {
		t.Errorf("jitter Budget(4) = %v, want 11s", got)
	}
}
