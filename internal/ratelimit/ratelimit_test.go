package ratelimit

import (
	"testing"
	"time"
)

func TestAllowBurstThenDeny(t *testing.T) {
	l := NewLimiter(60, 10, time.Minute)

	for i := 0; i < 10; i++ {
		allowed, _ := l.Allow("client-a")
		if !allowed {
			t.Fatalf("request %d denied within burst capacity", i+1)
		}
	}

	allowed, remaining := l.Allow("client-a")
	if allowed {
		t.Error("request beyond burst capacity admitted")
	}
	if remaining != 0 {
		t.Errorf("remaining = %d, want 0", remaining)
	}
}

func TestAllowRefill(t *testing.T) {
	l := NewLimiter(60, 10, time.Minute) // 1 token per second

	for i := 0; i < 10; i++ {
		l.Allow("client-a")
	}
	if allowed, _ := l.Allow("client-a"); allowed {
		t.Fatal("bucket should be empty")
	}

	// Backdate the bucket instead of sleeping.
	l.mu.Lock()
	l.buckets["client-a"].lastUpdate = time.Now().Add(-1100 * time.Millisecond)
	l.mu.Unlock()

	if allowed, _ := l.Allow("client-a"); !allowed {
		t.Error("refilled token not granted")
	}
	if allowed, _ := l.Allow("client-a"); allowed {
		t.Error("second request admitted on a single refilled token")
	}
}

func TestAllowRefillCappedAtCapacity(t *testing.T) {
	l := NewLimiter(600, 5, time.Minute) // 10 tokens per second

	l.Allow("client-a")
	l.mu.Lock()
	l.buckets["client-a"].lastUpdate = time.Now().Add(-time.Hour)
	l.mu.Unlock()

	for i := 0; i < 5; i++ {
		if allowed, _ := l.Allow("client-a"); !allowed {
			t.Fatalf("request %d denied after long idle", i+1)
		}
	}
	if allowed, _ := l.Allow("client-a"); allowed {
		t.Error("refill exceeded bucket capacity")
	}
}

func TestClientsIsolated(t *testing.T) {
	l := NewLimiter(60, 2, time.Minute)

	l.Allow("client-a")
	l.Allow("client-a")
	if allowed, _ := l.Allow("client-a"); allowed {
		t.Fatal("client-a should be exhausted")
	}
	if allowed, _ := l.Allow("client-b"); !allowed {
		t.Error("client-b denied by client-a's consumption")
	}
}

func TestCleanupRemovesIdleBuckets(t *testing.T) {
	l := NewLimiter(60, 10, 10*time.Millisecond)

	l.Allow("idle-client")
	l.Allow("active-client")

	l.mu.Lock()
	l.buckets["idle-client"].lastUpdate = time.Now().Add(-10 * time.Minute)
	l.lastCleanup = time.Now().Add(-time.Minute)
	l.mu.Unlock()

	l.Allow("active-client")

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.buckets["idle-client"]; ok {
		t.Error("idle bucket survived cleanup")
	}
	if _, ok := l.buckets["active-client"]; !ok {
		t.Error("active bucket was removed")
	}
}
