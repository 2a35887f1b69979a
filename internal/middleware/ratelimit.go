package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/halfwaymeet/meetup-server-go/internal/errors"
	"github.com/halfwaymeet/meetup-server-go/internal/httputil"
)

const (
	maxEntries      = 10000
	cleanupInterval = time.Minute
)

type windowEntry struct {
	count   int
	resetAt time.Time
}

// RateLimiter is a fixed-window admission gate keyed by client origin.
// Windows do not slide: a stale entry is replaced wholesale on the first
// request past its reset time, so a burst straddling a window boundary can
// admit up to twice the threshold. That is the accepted trade-off for
// keeping the state a single (count, resetAt) pair per origin.
type RateLimiter struct {
	mu          sync.Mutex
	store       map[string]*windowEntry
	limit       int
	window      time.Duration
	lastCleanup time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		store:       make(map[string]*windowEntry),
		limit:       limit,
		window:      window,
		lastCleanup: time.Now(),
	}
}

// cleanup drops expired windows. Caller holds mu.
func (rl *RateLimiter) cleanup(now time.Time) {
	if now.Sub(rl.lastCleanup) < cleanupInterval && len(rl.store) <= maxEntries {
		return
	}
	rl.lastCleanup = now

	for key, entry := range rl.store {
		if now.After(entry.resetAt) {
			delete(rl.store, key)
		}
	}
}

// Admit decides whether a request from origin may proceed at the given
// instant. A rejected request does not mutate the window.
func (rl *RateLimiter) Admit(origin string, now time.Time) (allowed bool, resetAt time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanup(now)

	entry, exists := rl.store[origin]
	if !exists || now.After(entry.resetAt) {
		entry = &windowEntry{count: 1, resetAt: now.Add(rl.window)}
		rl.store[origin] = entry
		return true, entry.resetAt
	}

	if entry.count >= rl.limit {
		return false, entry.resetAt
	}

	entry.count++
	return true, entry.resetAt
}

type RateLimitMiddleware struct {
	limiter *RateLimiter
}

func NewRateLimitMiddleware(limit int, window time.Duration) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: NewRateLimiter(limit, window),
	}
}

// Handler gates the wrapped route by remote address. Mount chi's RealIP
// ahead of it so proxied requests are keyed by the client, not the proxy.
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		allowed, resetAt := m.limiter.Admit(r.RemoteAddr, now)
		if !allowed {
			secondsLeft := int(resetAt.Sub(now).Seconds()) + 1
			w.Header().Set("Retry-After", fmt.Sprintf("%d", secondsLeft))
			log.Warn().Str("remoteAddr", r.RemoteAddr).Msg("session creation rate limit exceeded")
			httputil.WriteError(w, apperrors.RateLimitExceeded())
			return
		}

		next.ServeHTTP(w, r)
	})
}
