// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// ratelimit.go keeps one token bucket per caller in process memory. It guards
// the API, and through it the paid summarizer behind POST /insights, for a
// single-instance deployment. It is a cost guard, not access control.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	// visitorTTL is how long an idle bucket survives a sweep.
	visitorTTL = 10 * time.Minute
	// sweepEvery is the number of lookups between sweeps.
	sweepEvery = 5000
	// maxRetryAfter is advertised when the limiter never refills.
	maxRetryAfter = 60
)

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP keys by the caller resolved by Identity, else by client IP.
// The "user:" and "ip:" prefixes keep the two namespaces apart.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if uid, _ := c.Value(userIDKey).(string); uid != "" {
			return "user:" + uid
		}
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token-bucket limiter, safe for concurrent use.
type RateLimiter struct {
	rps    rate.Limit
	burst  int
	keyFn  keyFunc
	exempt map[string]struct{}

	mu       sync.Mutex
	visitors map[string]*visitor
	ttl      time.Duration
	cleanupN uint64
}

// NewRateLimiter refills rps tokens per second up to burst (minimum 1).
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    max(burst, 1),
		keyFn:    keyFn,
		exempt:   map[string]struct{}{},
		visitors: map[string]*visitor{},
		ttl:      visitorTTL,
	}
}

// Exempt skips limiting for the exact request paths given.
func (rl *RateLimiter) Exempt(paths ...string) *RateLimiter {
	for _, p := range paths {
		rl.exempt[p] = struct{}{}
	}
	return rl
}

// getVisitor returns the bucket for key, creating it on first use. The
// periodic sweep runs before the lookup so an expired bucket for key is
// replaced rather than revived.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.cleanupN++; rl.cleanupN >= sweepEvery {
		rl.sweep(now)
	}

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// sweep drops buckets idle for at least ttl. Callers hold mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for k, v := range rl.visitors {
		if now.Sub(v.lastSeen) >= rl.ttl {
			delete(rl.visitors, k)
		}
	}
	rl.cleanupN = 0
}

// retryAfterSeconds rounds the refill time of one token up to whole seconds.
func (rl *RateLimiter) retryAfterSeconds() int {
	if rl.rps <= 0 {
		return maxRetryAfter
	}
	return max(int(math.Ceil(1/float64(rl.rps))), 1)
}

// IsRateBypass reports whether IdempotencyValidator flagged the request as a
// replay that must not spend a token.
func IsRateBypass(c *gin.Context) bool {
	b, _ := c.Value(ctxKeyRateBypass).(bool)
	return b
}

func (rl *RateLimiter) skip(c *gin.Context) bool {
	if _, ok := rl.exempt[c.Request.URL.Path]; ok {
		return true
	}
	return IsRateBypass(c)
}

// Handler enforces the limits. A denied request gets 429 rate_limited and a
// Retry-After header.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.skip(c) || rl.getVisitor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}
		c.Header("Retry-After", strconv.Itoa(rl.retryAfterSeconds()))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}
