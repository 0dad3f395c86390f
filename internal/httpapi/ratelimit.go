package httpapi

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// maxTrackedClients caps the number of per-client token buckets so rotating
// source IPs can't grow the map without bound.
const maxTrackedClients = 4096

const limiterBurst = 5

// ipLimiter hands out one token bucket per client IP at a shared
// requests-per-minute rate. Safe for concurrent use.
type ipLimiter struct {
	mu      sync.Mutex
	rpm     int
	buckets map[string]*rate.Limiter
}

func newIPLimiter(rpm int) *ipLimiter {
	return &ipLimiter{rpm: rpm, buckets: make(map[string]*rate.Limiter)}
}

func (l *ipLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= maxTrackedClients {
			for k := range l.buckets {
				delete(l.buckets, k)
				break
			}
		}
		lim = rate.NewLimiter(rate.Limit(float64(l.rpm)/60.0), limiterBurst)
		l.buckets[key] = lim
	}
	return lim.Allow()
}

// middleware rejects over-limit requests with 429. The key is the client IP
// as rewritten by chi's RealIP middleware, which runs before this one.
func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			key = host
		}
		if !l.allow(key) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
