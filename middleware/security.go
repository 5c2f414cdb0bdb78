package middleware

import (
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prashant564/Courses24-API/httpkit"
	"github.com/prashant564/Courses24-API/logging"
	"golang.org/x/time/rate"
)

// SecurityHeaders sets the usual hardening headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "0")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'self'")
		h.Set("Cross-Origin-Resource-Policy", "same-origin")
		if r.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

func CORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")
			if origin != "*" {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IPRateLimiter allows max requests per window for each client address.
// The client address is the TCP peer unless the peer is a trusted proxy, in
// which case X-Forwarded-For is walked from the right past trusted hops.
type IPRateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*rateClient
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	trusted   []*net.IPNet
	now       func() time.Time
}

type rateClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter builds a limiter. trustedProxies holds IPs or CIDRs of
// reverse proxies whose X-Forwarded-For header is believed; invalid entries
// are logged and skipped.
func NewIPRateLimiter(window time.Duration, max int, trustedProxies ...string) *IPRateLimiter {
	l := &IPRateLimiter{
		clients: make(map[string]*rateClient),
		limit:   rate.Limit(float64(max) / window.Seconds()),
		burst:   max,
		idle:    window,
		now:     time.Now,
	}
	for _, entry := range trustedProxies {
		if network := parseNetwork(strings.TrimSpace(entry)); network != nil {
			l.trusted = append(l.trusted, network)
			continue
		}
		if strings.TrimSpace(entry) != "" {
			logging.Logger.Warnf("Event ID: TRUSTED_PROXY_INVALID, Description: Ignoring trusted proxy %q", entry)
		}
	}
	l.lastSweep = l.now()
	return l
}

func parseNetwork(entry string) *net.IPNet {
	if _, network, err := net.ParseCIDR(entry); err == nil {
		return network
	}
	ip := net.ParseIP(entry)
	if ip == nil {
		return nil
	}
	bits := 128
	if ip.To4() != nil {
		ip, bits = ip.To4(), 32
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}
}

func (l *IPRateLimiter) isTrusted(ip net.IP) bool {
	for _, network := range l.trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP returns the address the request is rate limited under.
func (l *IPRateLimiter) ClientIP(r *http.Request) string {
	peer := remoteHost(r)
	peerIP := net.ParseIP(peer)
	if peerIP == nil || !l.isTrusted(peerIP) {
		return peer
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		ip := net.ParseIP(hop)
		if ip == nil {
			break
		}
		if !l.isTrusted(ip) {
			return hop
		}
	}
	return peer
}

func (l *IPRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}

	c, ok := l.clients[ip]
	if !ok {
		c = &rateClient{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// sweep drops clients idle for a whole window; their bucket would be full
// again anyway.
func (l *IPRateLimiter) sweep(now time.Time) {
	for ip, c := range l.clients {
		if now.Sub(c.lastSeen) >= l.idle {
			delete(l.clients, ip)
		}
	}
	l.lastSweep = now
}

func (l *IPRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := l.ClientIP(r)
		if !l.allow(ip) {
			logging.WithRequest(httpkit.RequestID(r)).Warnf("Event ID: RATE_LIMIT_EXCEEDED, Description: Client %s exceeded the rate limit on %s", ip, r.URL.Path)
			httpkit.Error(w, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestLogger assigns a request id, echoes it in X-Request-ID and logs
// each request with its status and latency.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(httpkit.WithRequestID(r.Context(), id)))

		logging.WithRequest(id).Infof("Event ID: HTTP_REQUEST, Description: %s %s -> %d in %s from %s",
			r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond), remoteHost(r))
	})
}

// Recover turns a panicking handler into a 500 response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logging.WithRequest(httpkit.RequestID(r)).Errorf("Event ID: HANDLER_PANIC, Description: %s %s panicked: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				httpkit.Error(w, http.StatusInternalServerError, "Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
