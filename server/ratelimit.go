package server

import (
	"net"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	limiterTokensPerSecond = 5
	limiterBurst           = 10
	limiterCacheSize       = 10_000
	limiterEntryTTL        = 10 * time.Minute
)

// ipRateLimiter keeps one token bucket per client IP in an expiring LRU so
// idle entries are evicted and memory stays bounded.
type ipRateLimiter struct {
	visitors *lru.LRU[string, *rate.Limiter]
}

func newIPRateLimiter() *ipRateLimiter {
	return &ipRateLimiter{
		visitors: lru.NewLRU[string, *rate.Limiter](limiterCacheSize, nil, limiterEntryTTL),
	}
}

func (l *ipRateLimiter) Allow(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr // fallback
	}

	lim, found := l.visitors.Get(host)
	if !found {
		lim = rate.NewLimiter(rate.Limit(limiterTokensPerSecond), limiterBurst)
		l.visitors.Add(host, lim)
	}
	return lim.Allow()
}

// RateLimitMiddleware throttles credential-guessing traffic on the auth
// endpoints per client IP.
func (s *Server) RateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authLimiter.Allow(r.RemoteAddr) {
			http.Error(w, `{"error":"too many requests"}`, http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
