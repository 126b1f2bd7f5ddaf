package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"inkwell.org/internal/audit"
	"inkwell.org/internal/obs"
)

type requestIDContextKey struct{}

// RequestID assigns each request an identifier, propagated via header,
// context, and the audit log.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", rid)
		ctx := context.WithValue(r.Context(), requestIDContextKey{}, rid)
		ctx = audit.WithRequestID(ctx, rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the request id assigned by RequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDContextKey{}).(string); ok {
		return v
	}
	return ""
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// LoggingJSON emits one structured line per request.
func LoggingJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, code: 200}
		start := time.Now()
		next.ServeHTTP(sw, r)
		obs.LogEntry(map[string]any{
			"ts":          time.Now().UTC().Format(time.RFC3339Nano),
			"level":       "info",
			"msg":         "request_complete",
			"request_id":  RequestIDFromContext(r.Context()),
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      sw.code,
			"duration_ms": time.Since(start).Milliseconds(),
			"remote":      clientIP(r),
			"user_agent":  r.Header.Get("User-Agent"),
		})
	})
}

// SecurityHeaders applies the standard hardening set. The API serves JSON
// only, so the CSP can be maximally strict.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "0")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// CORS reflects the origin only when it appears in the configured allow
// list, or when it is a localhost origin and allowLocal is set (development
// only). Credentials are allowed because the refresh token travels as a
// cookie. Vary is set unconditionally: the response differs by Origin even
// when the answer is a denial, and caches must know that.
func CORS(next http.Handler, origins []string, allowLocal bool) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		origin := r.Header.Get("Origin")
		if origin != "" {
			if _, ok := allowed[origin]; ok || (allowLocal && isLocalOrigin(origin)) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		w.Header().Set("Access-Control-Max-Age", "600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MaxBodyBytes limits request body size.
func MaxBodyBytes(next http.Handler, maxBytes int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		next.ServeHTTP(w, r)
	})
}

const (
	bucketTTL        = 5 * time.Minute
	bucketSweepEvery = time.Minute
)

// ipBuckets holds per-client limiters. Stale entries are swept inline on
// lookup rather than by a background goroutine, so instantiating a limiter
// never leaks anything.
type ipBuckets struct {
	mu        sync.Mutex
	buckets   map[string]*ipBucket
	lastSweep time.Time
}

type ipBucket struct {
	lim *rate.Limiter
	ts  time.Time
}

func newIPBuckets() *ipBuckets {
	return &ipBuckets{
		buckets:   make(map[string]*ipBucket),
		lastSweep: time.Now(),
	}
}

func (b *ipBuckets) limiter(ip string, limit rate.Limit, burst int) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	if now.Sub(b.lastSweep) >= bucketSweepEvery {
		for k, bucket := range b.buckets {
			if now.Sub(bucket.ts) > bucketTTL {
				delete(b.buckets, k)
			}
		}
		b.lastSweep = now
	}
	bucket, ok := b.buckets[ip]
	if !ok {
		bucket = &ipBucket{lim: rate.NewLimiter(limit, burst)}
		b.buckets[ip] = bucket
	}
	bucket.ts = now
	return bucket.lim
}

// RateLimit applies a per-client-IP token bucket across the whole surface.
func RateLimit(next http.Handler, burst, perSecond int) http.Handler {
	buckets := newIPBuckets()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if ip == "" {
			ip = "unknown"
		}
		if !buckets.limiter(ip, rate.Limit(perSecond), burst).Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, r, http.StatusTooManyRequests, codeRateLimit, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginRateLimit is the tighter bucket in front of the login endpoint.
// Thresholds are configuration, not design; lockout logic is deliberately
// out of scope.
func LoginRateLimit(next http.Handler, burst, perMinute int) http.Handler {
	buckets := newIPBuckets()
	limit := rate.Limit(float64(perMinute) / 60.0)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if ip == "" {
			ip = "unknown"
		}
		if !buckets.limiter(ip, limit, burst).Allow() {
			w.Header().Set("Retry-After", "60")
			writeError(w, r, http.StatusTooManyRequests, codeRateLimit, "too many login attempts, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	// X-Forwarded-For support (first IP)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isLocalOrigin(o string) bool {
	return strings.HasPrefix(o, "http://localhost:") || strings.HasPrefix(o, "http://127.0.0.1:")
}
