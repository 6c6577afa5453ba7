package mockapi

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// loginLimiter keeps one token bucket per client IP.
type loginLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	visitors map[string]*rate.Limiter
}

func newLoginLimiter(limit rate.Limit, burst int) *loginLimiter {
	return &loginLimiter{limit: limit, burst: burst, visitors: make(map[string]*rate.Limiter)}
}

func (l *loginLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, ok := l.visitors[ip]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.visitors[ip] = limiter
	}
	return limiter
}

// RateLimitLogin answers 429 when a client IP exceeds the login rate. It is a no-op
// unless WithLoginRateLimit was given.
func (s *Server) RateLimitLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.loginLimiter == nil {
			next(w, r)
			return
		}
		limiter := s.loginLimiter.get(clientIP(r))
		if !limiter.Allow() {
			retryAfter := time.Second
			if s.loginLimiter.limit > 0 {
				retryAfter = max(time.Duration(float64(time.Second)/float64(s.loginLimiter.limit)), time.Second)
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter/time.Second)))
			s.logger.Warn().Str("ip", clientIP(r)).Msg("login rate limit exceeded")
			writeError(w, http.StatusTooManyRequests, "too many login attempts")
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
