package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// TokenBucket implements token bucket rate limiting
type TokenBucket struct {
	capacity   float64
	tokens     float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// RateLimiter manages rate limiting per caller
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*TokenBucket
	capacity  int
	refill    float64
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter creates a new rate limiter. Idle buckets are swept lazily while
// serving requests, so no goroutine outlives the limiter.
func NewRateLimiter(capacity int, refillPerSecond float64) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*TokenBucket),
		capacity: capacity,
		refill:   refillPerSecond,
		idle:     10 * time.Minute,
		now:      time.Now,
	}
}

// Allow takes one token for key. When denied it also reports how long until the
// next token is available.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	bucket, ok := rl.buckets[key]
	if !ok {
		bucket = &TokenBucket{
			capacity:   float64(rl.capacity),
			tokens:     float64(rl.capacity),
			refillRate: rl.refill,
			lastRefill: now,
		}
		rl.buckets[key] = bucket
	}

	// Refill tokens based on time elapsed
	elapsed := now.Sub(bucket.lastRefill).Seconds()
	if elapsed > 0 {
		bucket.tokens = math.Min(bucket.capacity, bucket.tokens+elapsed*bucket.refillRate)
		bucket.lastRefill = now
	}

	if bucket.tokens >= 1 {
		bucket.tokens--
		return true, 0
	}
	if bucket.refillRate <= 0 {
		return false, time.Minute
	}
	wait := time.Duration((1 - bucket.tokens) / bucket.refillRate * float64(time.Second))
	return false, wait
}

// sweep drops buckets idle for longer than rl.idle. Caller holds rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.idle {
		return
	}
	rl.lastSweep = now
	for key, bucket := range rl.buckets {
		if now.Sub(bucket.lastRefill) > rl.idle {
			delete(rl.buckets, key)
		}
	}
}

// Handler limits requests per signed-in user, falling back to the client IP.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := rl.Allow(callerKey(r))
		if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeError(w, http.StatusTooManyRequests, "Too many requests. Please slow down and try again shortly.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimitMiddleware creates rate limiting middleware
func RateLimitMiddleware(capacity int, refillPerSecond float64) func(http.Handler) http.Handler {
	return NewRateLimiter(capacity, refillPerSecond).Handler
}

func callerKey(r *http.Request) string {
	if id := UserFromContext(r.Context()); id != "" {
		return "user:" + id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
