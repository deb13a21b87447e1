package resilience

import (
	"testing"
	"time"
)

func TestRateLimiter_BurstThenReject(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	rl := newRateLimiter(normalizeRateConfig(RateLimiterConfig{Name: "test", Rate: 1, Burst: 3}), clock.Now)

	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Errorf("request %d should be allowed", i)
		}
	}
	if rl.Allow() {
		t.Error("request should be rejected over burst limit")
	}

	clock.Advance(time.Second)
	if !rl.Allow() {
		t.Error("expected one token after refill")
	}
	if rl.Allow() {
		t.Error("expected only one token after one second")
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	cfg := normalizeRateConfig(RateLimiterConfig{Rate: 0.5})
	if cfg.Burst != 1 {
		t.Errorf("expected burst of at least 1, got %d", cfg.Burst)
	}
	if NewRateLimiter(RateLimiterConfig{}).config.Rate != 1 {
		t.Error("expected default rate 1")
	}
}

func TestKeyedRateLimiter_IsolatesKeys(t *testing.T) {
	var limited []string
	k := NewKeyedRateLimiter(RateLimiterConfig{
		Name:    "http",
		Rate:    1,
		Burst:   1,
		OnLimit: func(name, key string) { limited = append(limited, key) },
	})
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	k.now = clock.Now

	if !k.Allow("10.0.0.1") {
		t.Error("first request from client 1 should pass")
	}
	if k.Allow("10.0.0.1") {
		t.Error("second request from client 1 should be limited")
	}
	if !k.Allow("10.0.0.2") {
		t.Error("client 2 has its own bucket")
	}
	if len(limited) != 1 || limited[0] != "10.0.0.1" {
		t.Errorf("unexpected OnLimit calls %v", limited)
	}

	if removed := k.Sweep(); removed != 0 {
		t.Errorf("expected no idle buckets yet, removed %d", removed)
	}
	clock.Advance(2 * time.Second)
	if removed := k.Sweep(); removed != 2 || k.Len() != 0 {
		t.Errorf("expected both buckets swept, removed %d, left %d", removed, k.Len())
	}
}
