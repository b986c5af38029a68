package gateway

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/peakwatch/stock-gateway/internal/metrics"
)

// RateLimit returns a per-IP rate-limiting middleware. Each client IP gets
// its own token bucket; buckets idle for longer than the cleanup window are
// dropped. Rejected requests get a 429 with the standard error envelope.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := &ipRateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		buckets: make(map[string]*ipBucket),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(clientIP(r)) {
				metrics.RateLimitRejections.Inc()
				writeError(w, "too many requests, please try again later", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RefererCheck returns a middleware that rejects requests whose Referer
// header is missing or matches none of the allowed fragments, blocking
// direct API calls from outside the frontend. A fragment matches by
// substring, so "http://localhost:" covers any local port.
func RefererCheck(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			referer := r.Header.Get("Referer")
			if referer == "" {
				writeError(w, "direct API access is not allowed", http.StatusForbidden)
				return
			}
			for _, fragment := range allowed {
				if strings.Contains(referer, fragment) {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, "request origin is not allowed", http.StatusForbidden)
		})
	}
}

const bucketIdleTTL = 10 * time.Minute

type ipBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipRateLimiter struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*ipBucket
	sweep   time.Time
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.sweep) > bucketIdleTTL {
		for key, b := range l.buckets {
			if now.Sub(b.lastSeen) > bucketIdleTTL {
				delete(l.buckets, key)
			}
		}
		l.sweep = now
	}

	b, ok := l.buckets[ip]
	if !ok {
		b = &ipBucket{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = now
	return b.limiter.Allow()
}

// clientIP extracts the remote IP, relying on chi's RealIP middleware to
// have rewritten RemoteAddr from proxy headers when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
