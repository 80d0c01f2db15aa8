package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RateLimit defines limits for an endpoint pattern.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// RateLimiter implements fixed-window per-IP rate limiting. State is kept
// in-process so limiting behaves identically whichever storage backend is
// active; limits here guard abuse from one address, not global capacity.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limits  map[string]RateLimit
	logger  zerolog.Logger
}

type window struct {
	count   int
	started time.Time
}

// NewRateLimiter creates a rate limiter with per-endpoint limits tuned for
// anonymous traffic.
func NewRateLimiter(logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		logger:  logger,
		limits: map[string]RateLimit{
			"POST /api/rooms":    {30, time.Hour},
			"DELETE /api/rooms/": {30, time.Hour},
			"POST /api/rooms/":   {120, time.Minute}, // messages, verify
			"GET /api/rooms":     {240, time.Minute},
			"POST /api/uploads":  {20, time.Hour},
			"GET /api/uploads/":  {240, time.Minute},
		},
	}
}

// findLimit returns the limit for the request and the pattern that matched
// it, longest matching prefix first, or nil when the endpoint is unlimited.
// The pattern is part of the window key so endpoints with different budgets
// never share a counter.
func (rl *RateLimiter) findLimit(r *http.Request) (*RateLimit, string) {
	var best *RateLimit
	var bestPattern string
	bestLen := -1
	for pattern, limit := range rl.limits {
		method, prefix, ok := strings.Cut(pattern, " ")
		if !ok || method != r.Method {
			continue
		}
		match := r.URL.Path == prefix ||
			(strings.HasSuffix(prefix, "/") && strings.HasPrefix(r.URL.Path, prefix))
		if match && len(prefix) > bestLen {
			l := limit
			best = &l
			bestPattern = pattern
			bestLen = len(prefix)
		}
	}
	return best, bestPattern
}

// checkAndIncrement applies the fixed window for one key.
// Returns (allowed, remaining, resetAt).
func (rl *RateLimiter) checkAndIncrement(key string, limit RateLimit) (bool, int, time.Time) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	win, ok := rl.windows[key]
	if !ok || now.Sub(win.started) >= limit.Window {
		win = &window{started: now}
		rl.windows[key] = win
	}
	win.count++

	// Opportunistically drop stale windows so the map stays bounded.
	if len(rl.windows) > 10000 {
		for k, w := range rl.windows {
			if now.Sub(w.started) >= time.Hour {
				delete(rl.windows, k)
			}
		}
	}

	remaining := limit.Requests - win.count
	if remaining < 0 {
		remaining = 0
	}
	return win.count <= limit.Requests, remaining, win.started.Add(limit.Window)
}

// Middleware returns the rate limiting middleware.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, pattern := rl.findLimit(r)
		if limit == nil {
			next.ServeHTTP(w, r)
			return
		}

		ip := RealIP(r)
		key := pattern + " " + ip
		allowed, remaining, resetAt := rl.checkAndIncrement(key, *limit)

		// Set rate limit headers
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(resetAt).Seconds())))

			rl.logger.Warn().
				Str("type", "security").
				Str("event", "rate_limit_exceeded").
				Str("ip", ip).
				Str("endpoint", r.URL.Path).
				Msg("rate limit exceeded")

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RealIP extracts the real client IP from headers or connection.
func RealIP(r *http.Request) string {
	// X-Forwarded-For first
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	// Then X-Real-IP
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	// Fallback to RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
