package api

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/time/rate"

	"journey-tracker/internal/logging"
)

// CompressionMiddleware gzips responses of at least 1KB for clients that accept it.
func CompressionMiddleware(next http.Handler) http.Handler {
	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(1024),
		gzhttp.CompressionLevel(6),
	)
	if err != nil {
		return gzhttp.GzipHandler(next)
	}
	return wrapper(next)
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// NewRequestLoggingMiddleware logs every request and puts logger on its context.
func NewRequestLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			r = r.WithContext(logging.WithLogger(r.Context(), logger))

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			logging.LogHTTPRequest(logger,
				r.Method,
				r.URL.Path,
				wrapped.statusCode,
				float64(time.Since(start).Nanoseconds())/1e6,
				slog.String("component", "http_server"))
		})
	}
}

// newRefreshLimiter allows perMinute manual refreshes per minute. Zero
// disables manual refreshes and a negative value removes the limit.
func newRefreshLimiter(perMinute int) *rate.Limiter {
	switch {
	case perMinute < 0:
		return rate.NewLimiter(rate.Inf, 0)
	case perMinute == 0:
		return rate.NewLimiter(0, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

func (api *API) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api.refreshLimiter.Allow() {
			next(w, r)
			return
		}
		retryAfter := time.Hour.Seconds()
		if limit := api.refreshLimiter.Limit(); limit > 0 && limit != rate.Inf {
			retryAfter = math.Max(1, math.Round(1/float64(limit)))
		}
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter)))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(api.refreshLimiter.Burst()))
		w.Header().Set("X-RateLimit-Remaining", "0")
		api.sendError(w, r, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
	}
}
