// Package middleware contains the Gin middleware shared by the tracking API.
//
// This file implements the in-memory token-bucket rate limiter guarding the
// public endpoints. The track-click endpoint is open by design (it is hit
// from redirect flows, not authenticated dashboards), which makes it an easy
// target for click floods; buckets are keyed by API key when a caller
// presents one and by client IP otherwise.
//
// The limiter is process-local. A horizontally scaled deployment needs a
// shared store behind it to enforce a global rate; this one bounds abuse per
// instance and keeps memory use capped by evicting idle buckets.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	// bucketTTL is how long an idle bucket survives before eviction.
	bucketTTL = 10 * time.Minute
	// sweepEvery triggers an eviction sweep after this many lookups.
	sweepEvery = 5000
)

// keyFunc maps a request to a rate-limit bucket identity.
type keyFunc func(*gin.Context) string

// KeyByAPIKeyOrIP keys buckets by the X-API-Key header when present,
// otherwise by client IP. The prefixes keep the two namespaces from
// colliding. Keys stay in process memory and are never logged.
func KeyByAPIKeyOrIP() keyFunc {
	return func(c *gin.Context) string {
		if k := c.GetHeader("X-API-Key"); k != "" {
			return "key:" + k
		}
		return "ip:" + c.ClientIP()
	}
}

// bucket pairs a limiter with its last access time for idle eviction.
type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter holds per-identity token buckets. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc

	mu      sync.Mutex
	buckets map[string]*bucket
	ttl     time.Duration
	lookups uint64
}

// NewRateLimiter builds a limiter replenishing rps tokens per second with the
// given burst capacity (coerced to at least 1), keyed by keyFn.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		buckets: make(map[string]*bucket),
		ttl:     bucketTTL,
	}
}

// take returns the bucket for key, creating it on first sight. Every
// sweepEvery lookups it evicts buckets idle for ttl or longer; the sweep runs
// before the fetch so a stale bucket for this very key is dropped rather than
// refreshed.
func (rl *RateLimiter) take(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= sweepEvery {
		for k, b := range rl.buckets {
			if now.Sub(b.seen) >= rl.ttl {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	if b, ok := rl.buckets[key]; ok {
		b.seen = now
		return b.lim
	}
	b := &bucket{lim: rate.NewLimiter(rl.rps, rl.burst), seen: now}
	rl.buckets[key] = b
	return b.lim
}

// Handler enforces the limit, rejecting over-budget requests with 429 and
// the standard error envelope. Click tracking prefers dropping an event over
// queueing unbounded work, so there is no waiting; Retry-After is a flat
// one second hint.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.take(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}
