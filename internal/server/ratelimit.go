package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/vetassist/vetchat/internal/ratelimit"
)

// rateLimitContextKey is the context key for the rate limit holder
type rateLimitContextKey struct{}

// rateLimitHolder carries the per-request rate limit decision from the
// handler back to the response writer wrapper. The middleware installs an
// empty holder before the handler runs; the handler fills it in once the
// limiter has been consulted.
type rateLimitHolder struct {
	decision *ratelimit.Decision
}

// SetRateLimit records the limiter decision for the current request so the
// middleware can emit it as x-ratelimit-* response headers. No-op if the
// middleware isn't present.
func SetRateLimit(ctx context.Context, d ratelimit.Decision) {
	if h, ok := ctx.Value(rateLimitContextKey{}).(*rateLimitHolder); ok {
		h.decision = &d
	}
}

// RateLimitHeaderMiddleware writes normalized rate limit headers to responses.
// Headers are written lazily at the first body write so handlers have a
// chance to consult the limiter first.
func RateLimitHeaderMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		holder := &rateLimitHolder{}
		ctx := context.WithValue(r.Context(), rateLimitContextKey{}, holder)
		wrapped := &rateLimitResponseWriter{
			ResponseWriter: w,
			holder:         holder,
		}
		next.ServeHTTP(wrapped, r.WithContext(ctx))
	})
}

// rateLimitResponseWriter wraps ResponseWriter to write rate limit headers.
type rateLimitResponseWriter struct {
	http.ResponseWriter
	holder       *rateLimitHolder
	wroteHeaders bool
}

func (rw *rateLimitResponseWriter) WriteHeader(code int) {
	if !rw.wroteHeaders {
		rw.writeRateLimitHeaders()
		rw.wroteHeaders = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *rateLimitResponseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeaders {
		rw.writeRateLimitHeaders()
		rw.wroteHeaders = true
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *rateLimitResponseWriter) writeRateLimitHeaders() {
	d := rw.holder.decision
	if d == nil || d.Limit <= 0 {
		return
	}

	h := rw.Header()
	h.Set("x-ratelimit-limit-requests", strconv.Itoa(d.Limit))
	h.Set("x-ratelimit-remaining-requests", strconv.Itoa(d.Remaining))
	if !d.Reset.IsZero() {
		h.Set("x-ratelimit-reset-requests", strconv.FormatInt(d.Reset.Unix(), 10))
	}
}

// Flush forwards Flush to the underlying ResponseWriter if it supports http.Flusher.
func (rw *rateLimitResponseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
