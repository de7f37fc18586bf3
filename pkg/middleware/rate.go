// Package middleware provides the HTTP middleware chain shared by every
// bazaar route.
package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/bazaar/pkg/cache"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
)

// bucket is an in-process fixed window for one client.
type bucket struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

func (b *bucket) allow(max int, window time.Duration) (bool, time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if now.After(b.resetAt) {
		b.count = 0
		b.resetAt = now.Add(window)
	}

	b.count++
	return b.count <= max, b.resetAt
}

type memoryWindows struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	window  time.Duration
}

func newMemoryWindows(window time.Duration) *memoryWindows {
	m := &memoryWindows{buckets: map[string]*bucket{}, window: window}
	go m.evictLoop()
	return m
}

func (m *memoryWindows) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		m.mu.Lock()
		for k, b := range m.buckets {
			b.mu.Lock()
			expired := now.After(b.resetAt)
			b.mu.Unlock()
			if expired {
				delete(m.buckets, k)
			}
		}
		m.mu.Unlock()
	}
}

func (m *memoryWindows) get(key string) *bucket {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.buckets[key]; ok {
		return b
	}
	b := &bucket{resetAt: time.Now().Add(m.window)}
	m.buckets[key] = b
	return b
}

// RateLimit limits each client IP to max requests per window. Counters live
// in Redis when it is connected, so the limit holds across replicas, and
// fall back to process memory otherwise.
func RateLimit(max int, window time.Duration) func(http.Handler) http.Handler {
	local := newMemoryWindows(window)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			allowed, reset := allowRedis(r.Context(), ip, max, window)
			if reset.IsZero() {
				allowed, reset = local.get(ip).allow(max, window)
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(max))
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(reset).Seconds())+1))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprint(w, `{"status":429,"code":"rate_limited","message":"Too Many Requests"}`)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// allowRedis returns a zero reset time when Redis is unavailable.
func allowRedis(ctx context.Context, ip string, max int, window time.Duration) (bool, time.Time) {
	if !cache.Enabled() {
		return false, time.Time{}
	}
	slot := time.Now().Truncate(window)
	key := fmt.Sprintf("ratelimit:%s:%d", ip, slot.Unix())

	n, err := cache.Incr(ctx, key, window)
	if err != nil {
		logger.WithCtx(ctx).Warn("ratelimit: redis incr failed", "error", err)
		return false, time.Time{}
	}
	return n <= int64(max), slot.Add(window)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
