package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/launchfoundry/appstack/internal/config"
	"github.com/launchfoundry/appstack/internal/httputil"
	"github.com/launchfoundry/appstack/pkg/logger"
)

const (
	cleanupInterval = 5 * time.Minute
	limiterIdleTTL  = 10 * time.Minute
)

// limiterEntry pairs a limiter with its last access so idle entries can be
// evicted.
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per authenticated user, falling back to the
// client IP for anonymous traffic. It implements the lifecycle Service
// interface; when started it periodically evicts idle limiters so the map
// does not grow without bound.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	enabled  bool
	log      *logger.Logger

	stopOnce sync.Once
	stop     chan struct{}
}

// NewRateLimiter creates a limiter from the tier's rate-limit settings.
func NewRateLimiter(settings config.RateLimitSettings, log *logger.Logger) *RateLimiter {
	if log == nil {
		log = logger.NewDefault("ratelimit")
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(settings.RequestsPerSec),
		burst:    settings.Burst,
		enabled:  settings.Enabled,
		log:      log,
		stop:     make(chan struct{}),
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// Cleanup evicts limiters that have not been used within maxIdle and
// returns the number removed.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for key, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
			removed++
		}
	}
	return removed
}

// Name implements the lifecycle Service interface.
func (rl *RateLimiter) Name() string { return "ratelimit" }

// Start launches the periodic cleanup loop.
func (rl *RateLimiter) Start(context.Context) error {
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := rl.Cleanup(limiterIdleTTL); removed > 0 {
					rl.log.WithField("removed", removed).Debug("evicted idle rate limiters")
				}
			case <-rl.stop:
				return
			}
		}
	}()
	return nil
}

// Stop terminates the cleanup loop.
func (rl *RateLimiter) Stop(context.Context) error {
	rl.stopOnce.Do(func() { close(rl.stop) })
	return nil
}

// Handler returns the rate limiting middleware handler.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.enabled {
			next.ServeHTTP(w, r)
			return
		}

		key := ""
		if identity := IdentityFromRequest(r); identity != nil {
			key = identity.ID
		}
		if key == "" {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			key = host
		}

		if !rl.getLimiter(key).Allow() {
			rl.log.WithField("key", key).WithField("path", r.URL.Path).Warn("rate limit exceeded")
			httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.ErrorBody{
				Code:    "RATE_LIMITED",
				Message: "too many requests",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
