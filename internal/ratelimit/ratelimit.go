// Package ratelimit implements per-client token-bucket admission
// control for the ingress boundary. It has no data dependency on the
// orchestration engine; a denial never affects in-flight runs.
package ratelimit

import (
	"log"
	"sync"
	"time"
)

// bucket holds a capped, time-refilled credit balance for one client.
type bucket struct {
	capacity   int
	tokens     float64
	refillRate float64 // tokens per second
	lastUpdate time.Time
}

// consume refills the bucket as a pure function of elapsed wall-clock
// time, then tries to take one token.
func (b *bucket) consume(now time.Time) bool {
	elapsed := now.Sub(b.lastUpdate).Seconds()
	b.lastUpdate = now

	b.tokens += elapsed * b.refillRate
	if b.tokens > float64(b.capacity) {
		b.tokens = float64(b.capacity)
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Limiter rate-limits requests per client identifier. Bucket creation
// and mutation are mutex-guarded; buckets idle longer than the
// inactivity threshold are removed at most once per cleanup interval
// to bound memory.
type Limiter struct {
	requestsPerMinute int
	burstSize         int
	cleanupInterval   time.Duration
	idleThreshold     time.Duration

	mu          sync.Mutex
	buckets     map[string]*bucket
	lastCleanup time.Time
}

// NewLimiter creates a limiter admitting requestsPerMinute sustained
// with bursts up to burstSize.
func NewLimiter(requestsPerMinute, burstSize int, cleanupInterval time.Duration) *Limiter {
	return &Limiter{
		requestsPerMinute: requestsPerMinute,
		burstSize:         burstSize,
		cleanupInterval:   cleanupInterval,
		idleThreshold:     5 * time.Minute,
		buckets:           make(map[string]*bucket),
		lastCleanup:       time.Now(),
	}
}

// Limit returns the sustained requests-per-minute limit.
func (l *Limiter) Limit() int { return l.requestsPerMinute }

// Allow checks whether a request from the client may proceed and
// returns the remaining whole tokens in its bucket.
func (l *Limiter) Allow(clientID string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastCleanup) > l.cleanupInterval {
		l.cleanup(now)
		l.lastCleanup = now
	}

	b, ok := l.buckets[clientID]
	if !ok {
		b = &bucket{
			capacity:   l.burstSize,
			tokens:     float64(l.burstSize),
			refillRate: float64(l.requestsPerMinute) / 60.0,
			lastUpdate: now,
		}
		l.buckets[clientID] = b
	}

	allowed := b.consume(now)
	if !allowed {
		log.Printf("rate limit exceeded for %s", clientID)
	}
	return allowed, int(b.tokens)
}

// cleanup removes buckets idle longer than the inactivity threshold.
// Caller holds the lock.
func (l *Limiter) cleanup(now time.Time) {
	removed := 0
	for id, b := range l.buckets {
		if now.Sub(b.lastUpdate) > l.idleThreshold {
			delete(l.buckets, id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("cleaned up %d inactive rate limit buckets", removed)
	}
}
