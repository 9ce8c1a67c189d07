package middleware

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

type window struct {
	count int
	ends  time.Time
}

// IPRateLimiter is a fixed-window limiter keyed by client IP, and by branch
// as well once RequireBranch has run.
type IPRateLimiter struct {
	mu         sync.Mutex
	limit      int
	window     time.Duration
	maxEntries int
	entries    map[string]window
	now        func() time.Time
}

func NewIPRateLimiter(limit int, every time.Duration) *IPRateLimiter {
	return NewIPRateLimiterWithMaxEntries(limit, every, 10000)
}

// NewIPRateLimiterWithMaxEntries bounds the number of tracked clients.
// When the table is full, expired windows are dropped first; if none
// expired, new clients are refused until one does.
func NewIPRateLimiterWithMaxEntries(limit int, every time.Duration, maxEntries int) *IPRateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if every <= 0 {
		every = time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &IPRateLimiter{
		limit:      limit,
		window:     every,
		maxEntries: maxEntries,
		entries:    map[string]window{},
		now:        time.Now,
	}
}

func (rl *IPRateLimiter) Middleware(message string) func(http.Handler) http.Handler {
	if message == "" {
		message = "Rate limit exceeded"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter := rl.allow(rateLimitKey(r))
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				writeError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", message, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *IPRateLimiter) allow(key string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, tracked := rl.entries[key]
	if !tracked && len(rl.entries) >= rl.maxEntries {
		rl.prune(now)
		if len(rl.entries) >= rl.maxEntries {
			return false, rl.window
		}
	}
	if !entry.ends.After(now) {
		entry = window{ends: now.Add(rl.window)}
	}
	entry.count++
	rl.entries[key] = entry

	if entry.count > rl.limit {
		return false, entry.ends.Sub(now)
	}
	return true, 0
}

func (rl *IPRateLimiter) prune(now time.Time) {
	for key, entry := range rl.entries {
		if !entry.ends.After(now) {
			delete(rl.entries, key)
		}
	}
}

func rateLimitKey(r *http.Request) string {
	ip := clientIP(r.RemoteAddr)
	if ip == "" {
		ip = "unknown"
	}
	if branchID, ok := BranchFromContext(r.Context()); ok {
		return fmt.Sprintf("%d|%s", branchID, ip)
	}
	return ip
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
