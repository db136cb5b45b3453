package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/vyrodovalexey/paramgw/internal/config"
	"github.com/vyrodovalexey/paramgw/internal/observability"
)

// Rate limiter default configuration constants.
const (
	// DefaultClientTTL is the default TTL for client rate limiter entries.
	DefaultClientTTL = 10 * time.Minute

	// MinCleanupInterval is the minimum interval for cleanup operations.
	MinCleanupInterval = 10 * time.Second

	// MaxCleanupInterval is the maximum interval for cleanup operations.
	MaxCleanupInterval = time.Minute
)

// clientEntry holds a limiter and its last access time for TTL cleanup.
type clientEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter applies a token bucket globally or per client.
type RateLimiter struct {
	limiter   *rate.Limiter
	perClient bool
	clients   map[string]*clientEntry
	mu        sync.Mutex
	rps       int
	burst     int
	logger    observability.Logger
	clientTTL time.Duration
	onLimited func(route string)
	stopCh    chan struct{}
	stopped   bool
}

// RateLimiterOption is a functional option for configuring the rate limiter.
type RateLimiterOption func(*RateLimiter)

// WithRateLimiterLogger sets the logger for the rate limiter.
func WithRateLimiterLogger(logger observability.Logger) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.logger = logger
	}
}

// WithClientTTL sets how long an idle client bucket is kept.
func WithClientTTL(ttl time.Duration) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.clientTTL = ttl
	}
}

// WithLimitedCallback sets a callback invoked for every rejected request.
func WithLimitedCallback(fn func(route string)) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.onLimited = fn
	}
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(rps, burst int, perClient bool, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		perClient: perClient,
		clients:   make(map[string]*clientEntry),
		rps:       rps,
		burst:     burst,
		logger:    observability.NopLogger(),
		clientTTL: DefaultClientTTL,
		stopCh:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(rl)
	}

	return rl
}

// NewRateLimiterFromConfig creates a rate limiter from configuration and
// starts idle bucket cleanup when limiting per client. It returns nil when
// rate limiting is disabled. Callers must Stop the returned limiter.
func NewRateLimiterFromConfig(cfg config.RateLimitConfig, opts ...RateLimiterOption) *RateLimiter {
	if !cfg.Enabled {
		return nil
	}

	rl := NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst, cfg.PerClient, opts...)
	if cfg.PerClient {
		rl.StartAutoCleanup()
	}
	return rl
}

// Allow reports whether a request from key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	if rl.perClient {
		return rl.allowPerClient(key)
	}
	return rl.limiter.Allow()
}

func (rl *RateLimiter) allowPerClient(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	entry, exists := rl.clients[key]
	if !exists {
		entry = &clientEntry{limiter: rate.NewLimiter(rate.Limit(rl.rps), rl.burst)}
		rl.clients[key] = entry
	}
	entry.lastAccess = now
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// Clients returns the number of tracked client buckets.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// CleanupOldClients removes client buckets idle for longer than maxAge.
func (rl *RateLimiter) CleanupOldClients(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, entry := range rl.clients {
		if now.Sub(entry.lastAccess) > maxAge {
			delete(rl.clients, key)
			removed++
		}
	}

	if removed > 0 {
		rl.logger.Debug("cleaned up expired rate limiter entries",
			observability.Int("removed", removed),
			observability.Int("remaining", len(rl.clients)),
		)
	}
}

// StartAutoCleanup periodically removes idle client buckets until Stop.
func (rl *RateLimiter) StartAutoCleanup() {
	rl.mu.Lock()
	if rl.stopped {
		rl.mu.Unlock()
		return
	}
	ttl := rl.clientTTL
	rl.mu.Unlock()

	interval := ttl / 2
	if interval > MaxCleanupInterval {
		interval = MaxCleanupInterval
	}
	if interval < MinCleanupInterval {
		interval = MinCleanupInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.CleanupOldClients(ttl)
			case <-rl.stopCh:
				return
			}
		}
	}()
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if !rl.stopped {
		rl.stopped = true
		close(rl.stopCh)
	}
}

// ClientKey identifies the caller by X-ClientId, falling back to the
// client IP.
func ClientKey(c *gin.Context) string {
	if clientID := c.GetHeader(ClientIDHeader); clientID != "" {
		return clientID
	}
	return c.ClientIP()
}

// RateLimit returns a middleware that rejects requests over the limit with
// 429. A nil limiter allows every request.
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil {
			c.Next()
			return
		}

		key := ClientKey(c)
		if rl.Allow(key) {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = observability.UnmatchedRoute
		}

		rl.logger.Warn("rate limit exceeded",
			observability.String("client", key),
			observability.String("route", route),
		)
		if rl.onLimited != nil {
			rl.onLimited(route)
		}

		c.Header("Retry-After", "1")
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.rps))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":   "rate-limited",
			"message": "rate limit exceeded",
		})
	}
}
