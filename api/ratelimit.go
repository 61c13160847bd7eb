package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// windowEntry is one client's request count within the current fixed window.
type windowEntry struct {
	count   int
	resetAt time.Time
}

// RateLimitResult is the verdict for one request against the limit.
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// FixedWindowLimiter counts requests per client IP in fixed windows. When a
// window expires the next request starts a fresh one with count 1; there is
// no rollover of unused quota.
type FixedWindowLimiter struct {
	mu      sync.Mutex
	windows map[string]*windowEntry
	max     int
	window  time.Duration
	done    chan struct{}
	once    sync.Once
}

func NewFixedWindowLimiter(max int, window time.Duration) *FixedWindowLimiter {
	if max <= 0 {
		max = 100
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	rl := &FixedWindowLimiter{
		windows: make(map[string]*windowEntry),
		max:     max,
		window:  window,
		done:    make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// sweepPerCheck bounds how many entries a single CheckLimit call examines
// while evicting expired windows, keeping the check path O(1).
const sweepPerCheck = 8

// CheckLimit counts one request for the client and reports whether it is
// within the window's budget. Each call also opportunistically evicts a
// handful of expired windows so the map shrinks under traffic without
// waiting for the periodic cleanup.
func (rl *FixedWindowLimiter) CheckLimit(clientIP string) RateLimitResult {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	scanned := 0
	for ip, entry := range rl.windows {
		if scanned >= sweepPerCheck {
			break
		}
		scanned++
		if ip != clientIP && !now.Before(entry.resetAt) {
			delete(rl.windows, ip)
		}
	}

	entry, exists := rl.windows[clientIP]
	if !exists || !now.Before(entry.resetAt) {
		entry = &windowEntry{count: 1, resetAt: now.Add(rl.window)}
		rl.windows[clientIP] = entry
		return RateLimitResult{Allowed: true, Remaining: rl.max - 1, ResetAt: entry.resetAt}
	}

	entry.count++
	remaining := rl.max - entry.count
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitResult{Allowed: entry.count <= rl.max, Remaining: remaining, ResetAt: entry.resetAt}
}

// cleanup evicts windows that expired more than one period ago.
func (rl *FixedWindowLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-rl.window)
			rl.mu.Lock()
			for ip, entry := range rl.windows {
				if entry.resetAt.Before(cutoff) {
					delete(rl.windows, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Stop terminates the cleanup goroutine.
func (rl *FixedWindowLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

// getClientIP extracts the client IP, trusting proxy headers first.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

// RateLimitMiddleware enforces the per-IP limit and stamps rate limit headers
// on every response. Rejections answer 429 with a Retry-After hint.
func RateLimitMiddleware(rl *FixedWindowLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := rl.CheckLimit(getClientIP(r))

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				retryAfter := int(time.Until(result.ResetAt).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"error":   "too many requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
