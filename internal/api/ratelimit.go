package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipLimiters hands out one token-bucket limiter per client IP.
type ipLimiters struct {
	mu       sync.Mutex
	perMin   int
	limiters map[string]*rate.Limiter
}

func newIPLimiters(perMin int) *ipLimiters {
	return &ipLimiters{
		perMin:   perMin,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMin)), l.perMin)
		l.limiters[ip] = lim
	}
	return lim
}

// rateLimit rejects requests beyond the configured per-IP rate. Disabled
// when the configured rate is zero or negative.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiters.perMin <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !s.limiters.get(ip).Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
