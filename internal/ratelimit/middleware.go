package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"
)

// Middleware applies the limiter to every request except the excluded
// path prefixes (health probes, typically). Denied requests receive
// 429 with a Retry-After hint; admitted responses carry the remaining
// budget in X-RateLimit headers.
func Middleware(limiter *Limiter, exclude []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, p := range exclude {
			if strings.HasPrefix(r.URL.Path, p) {
				next.ServeHTTP(w, r)
				return
			}
		}

		clientID := ClientID(r)
		allowed, remaining := limiter.Allow(clientID)
		if !allowed {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded, please try again later", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		next.ServeHTTP(w, r)
	})
}

// ClientID derives the client identifier from the forwarded-address
// header, falling back to the remote peer address.
func ClientID(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
	return host
}
