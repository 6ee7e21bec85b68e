package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

type clientInfo struct {
	count   int
	resetAt time.Time
}

type rateLimiter struct {
	mtx       sync.Mutex
	clients   map[string]*clientInfo
	rpm       int
	window    time.Duration
	lastSweep time.Time
}

func newRateLimiter(rpm int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		clients: make(map[string]*clientInfo),
		rpm:     rpm,
		window:  window,
	}
}

type decision struct {
	allowed    bool
	remaining  int
	resetAt    time.Time
	retryAfter int
}

// allow counts a request from ip. Windows that have ended are dropped at
// most once per window so the map only holds active clients.
func (l *rateLimiter) allow(ip string, now time.Time) decision {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if now.Sub(l.lastSweep) >= l.window {
		for key, info := range l.clients {
			if now.After(info.resetAt) {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}

	info, exists := l.clients[ip]
	switch {
	case !exists:
		info = &clientInfo{count: 1, resetAt: now.Add(l.window)}
		l.clients[ip] = info
	case now.After(info.resetAt):
		info.count = 1
		info.resetAt = now.Add(l.window)
	case info.count >= l.rpm:
		return decision{
			resetAt:    info.resetAt,
			retryAfter: int(info.resetAt.Sub(now).Seconds()),
		}
	default:
		info.count++
	}

	return decision{
		allowed:   true,
		remaining: max(l.rpm-info.count, 0),
		resetAt:   info.resetAt,
	}
}

func (l *rateLimiter) size() int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return len(l.clients)
}

// RateLimit allows rpm requests per client IP in a fixed one minute window.
// rpm <= 0 disables the limit.
func RateLimit(rpm int) func(http.Handler) http.Handler {
	limiter := newRateLimiter(rpm, time.Minute)

	return func(next http.Handler) http.Handler {
		if rpm <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := limiter.allow(clientIP(r), time.Now())
			if !d.allowed {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(d.retryAfter))
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error":       "rate_limit_exceeded",
					"message":     "too many requests, try again later",
					"retry_after": d.retryAfter,
					"request_id":  GetRequestID(r.Context()),
				})
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rpm))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.resetAt.Unix(), 10))

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
