package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lectures/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultLoginRate = 10
	visitorIdle      = 10 * time.Minute
)

// IPLimiter throttles requests per client IP with one token bucket each.
type IPLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPLimiter allows perMinute requests per IP per minute, with bursts up to perMinute.
// Non-positive values fall back to 10.
func NewIPLimiter(perMinute int) *IPLimiter {
	if perMinute <= 0 {
		perMinute = defaultLoginRate
	}
	return &IPLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		now:      time.Now,
	}
}

// Allow reports whether ip may make another request now.
func (l *IPLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > visitorIdle {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) > visitorIdle {
				delete(l.visitors, key)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Check is [IPLimiter.Allow] as an error.
func (l *IPLimiter) Check(ip string) error {
	if !l.Allow(ip) {
		return shared.ErrRateLimited
	}
	return nil
}

// Middleware rejects requests over the limit with 429 Too Many Requests.
func (l *IPLimiter) Middleware(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if err := l.Check(ip); err != nil {
				logger.Warn("rate limited", "ip", ip, "path", r.URL.Path, "error", err)
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Too many login attempts. Try again in a minute.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP is the host part of the connection's remote address.
// Forwarding headers are not trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
