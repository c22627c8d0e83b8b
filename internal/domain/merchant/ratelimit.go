package merchant

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a token bucket rate limiter for merchant API
// calls. A snapshot build fans out many concurrent fetches per store;
// the limiter bounds what actually reaches the platform so one store's
// rebuild cannot exhaust its API quota.
type RateLimiter struct {
	buckets map[string]*tokenBucket
	mu      sync.RWMutex
	config  RateLimitConfig
}

// RateLimitConfig holds rate limit configuration.
type RateLimitConfig struct {
	// Default rate limit (requests per second)
	DefaultRPS int
	// Burst size (maximum requests that can be made at once)
	DefaultBurst int
	// Custom limits per API path prefix
	PathLimits map[string]PathLimit
}

// PathLimit defines the rate limit for a specific API path family.
type PathLimit struct {
	RPS   int
	Burst int
}

// DefaultRateLimitConfig returns limits aligned with the platform's
// published per-store REST budget (2 req/s with a bucket of 40).
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		DefaultRPS:   2,
		DefaultBurst: 40,
		PathLimits: map[string]PathLimit{
			// Reports endpoints have a tighter dedicated budget.
			"/reports/": {RPS: 1, Burst: 5},
		},
	}
}

// tokenBucket implements the token bucket algorithm.
type tokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func newTokenBucket(rps, burst int) *tokenBucket {
	return &tokenBucket{
		tokens:     float64(burst),
		maxTokens:  float64(burst),
		refillRate: float64(rps),
		lastRefill: time.Now(),
	}
}

// take attempts to take a token from the bucket.
// Returns the time to wait if no tokens are available.
func (tb *tokenBucket) take() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > tb.maxTokens {
		tb.tokens = tb.maxTokens
	}
	tb.lastRefill = now

	if tb.tokens >= 1 {
		tb.tokens--
		return 0
	}

	deficit := 1 - tb.tokens
	waitSeconds := deficit / tb.refillRate
	return time.Duration(waitSeconds * float64(time.Second))
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*tokenBucket),
		config:  config,
	}
}

// Wait blocks until a request can be made for the given path.
// Returns an error if the context is cancelled while waiting.
func (rl *RateLimiter) Wait(ctx context.Context, path string) error {
	bucket := rl.getBucket(path)
	waitTime := bucket.take()

	if waitTime == 0 {
		return nil
	}

	timer := time.NewTimer(waitTime)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (rl *RateLimiter) getBucket(path string) *tokenBucket {
	bucketKey := rl.findBucketKey(path)

	rl.mu.RLock()
	bucket, exists := rl.buckets[bucketKey]
	rl.mu.RUnlock()

	if exists {
		return bucket
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if bucket, exists = rl.buckets[bucketKey]; exists {
		return bucket
	}

	rps, burst := rl.getLimitForPath(path)
	bucket = newTokenBucket(rps, burst)
	rl.buckets[bucketKey] = bucket

	return bucket
}

func (rl *RateLimiter) findBucketKey(path string) string {
	for prefix := range rl.config.PathLimits {
		if len(path) >= len(prefix) && path[:len(prefix)] == prefix {
			return prefix
		}
	}
	return "default"
}

func (rl *RateLimiter) getLimitForPath(path string) (rps, burst int) {
	for prefix, limit := range rl.config.PathLimits {
		if len(path) >= len(prefix) && path[:len(prefix)] == prefix {
			return limit.RPS, limit.Burst
		}
	}
	return rl.config.DefaultRPS, rl.config.DefaultBurst
}
