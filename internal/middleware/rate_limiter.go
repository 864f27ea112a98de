package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter implements rate limiting for API endpoints
type RateLimiter struct {
	ipLimiters      map[string]*rate.Limiter
	authLimiters    map[string]*rate.Limiter
	ipMutex         sync.RWMutex
	authMutex       sync.RWMutex
	ipLimiterRate   rate.Limit
	authLimiterRate rate.Limit
	ipBurst         int
	authBurst       int
	cleanupTicker   *time.Ticker
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(ipRequestsPerSecond, authRequestsPerMinute float64, ipBurst, authBurst int) *RateLimiter {
	limiter := &RateLimiter{
		ipLimiters:      make(map[string]*rate.Limiter),
		authLimiters:    make(map[string]*rate.Limiter),
		ipLimiterRate:   rate.Limit(ipRequestsPerSecond),
		authLimiterRate: rate.Limit(authRequestsPerMinute / 60),
		ipBurst:         ipBurst,
		authBurst:       authBurst,
		cleanupTicker:   time.NewTicker(5 * time.Minute),
	}

	go limiter.cleanup()

	return limiter
}

// cleanup periodically resets the limiter maps to prevent unbounded growth
func (rl *RateLimiter) cleanup() {
	for range rl.cleanupTicker.C {
		rl.ipMutex.Lock()
		rl.ipLimiters = make(map[string]*rate.Limiter)
		rl.ipMutex.Unlock()

		rl.authMutex.Lock()
		rl.authLimiters = make(map[string]*rate.Limiter)
		rl.authMutex.Unlock()
	}
}

// Stop stops the rate limiter cleanup
func (rl *RateLimiter) Stop() {
	rl.cleanupTicker.Stop()
}

// getIPLimiter returns the rate limiter for an IP
func (rl *RateLimiter) getIPLimiter(ip string) *rate.Limiter {
	rl.ipMutex.RLock()
	limiter, exists := rl.ipLimiters[ip]
	rl.ipMutex.RUnlock()

	if !exists {
		rl.ipMutex.Lock()
		limiter = rate.NewLimiter(rl.ipLimiterRate, rl.ipBurst)
		rl.ipLimiters[ip] = limiter
		rl.ipMutex.Unlock()
	}

	return limiter
}

// getAuthLimiter returns the rate limiter for authentication attempts
func (rl *RateLimiter) getAuthLimiter(key string) *rate.Limiter {
	rl.authMutex.RLock()
	limiter, exists := rl.authLimiters[key]
	rl.authMutex.RUnlock()

	if !exists {
		rl.authMutex.Lock()
		limiter = rate.NewLimiter(rl.authLimiterRate, rl.authBurst)
		rl.authLimiters[key] = limiter
		rl.authMutex.Unlock()
	}

	return limiter
}

// IPRateLimiterMiddleware limits requests per client IP
func (rl *RateLimiter) IPRateLimiterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := rl.getIPLimiter(c.ClientIP())
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// AuthRateLimiterMiddleware limits authentication attempts per client IP
func (rl *RateLimiter) AuthRateLimiterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := rl.getAuthLimiter(c.ClientIP())
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many authentication attempts"})
			c.Abort()
			return
		}
		c.Next()
	}
}
