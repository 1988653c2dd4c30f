package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	l := NewLimiter(1, 2)

	// Burst of 2 allowed, third denied.
	if !l.Allow("openai") {
		t.Error("first request should be allowed")
	}
	if !l.Allow("openai") {
		t.Error("second request should be allowed within burst")
	}
	if l.Allow("openai") {
		t.Error("third request should be denied")
	}

	// Separate providers have separate budgets.
	if !l.Allow("ollama") {
		t.Error("different provider should have its own budget")
	}
}

func TestLimiter_ProviderOverride(t *testing.T) {
	l := NewLimiter(1, 1)
	l.SetProviderRate("openai", 100, 10)

	allowed := 0
	for i := 0; i < 10; i++ {
		if l.Allow("openai") {
			allowed++
		}
	}
	if allowed != 10 {
		t.Errorf("expected burst of 10 after override, got %d", allowed)
	}
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	l := NewLimiter(0.1, 1)
	l.Allow("openai") // Drain the burst

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "openai"); err == nil {
		t.Error("expected Wait to fail when context expires before clearance")
	}
}

func TestLimiter_BurstFloor(t *testing.T) {
	l := NewLimiter(1, 0)
	if l.defaultBurst != 1 {
		t.Errorf("expected burst floor of 1, got %d", l.defaultBurst)
	}
}
