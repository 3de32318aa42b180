package handlers

import (
	"net/http"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/iprasannamb/qosc/internal/config"
)

// statusRecorder captures the status code written by the wrapped handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs every request with its status and latency
func LoggingMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// RateLimitMiddleware rejects requests beyond the limiter's budget with 429
func RateLimitMiddleware(limiter *rate.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			respondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CORSMiddleware allows the web front-end origins to call the API
func CORSMiddleware(origins []string, next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "If-None-Match"},
		ExposedHeaders: []string{"ETag", "Location"},
		MaxAge:         600,
	}).Handler(next)
}

// NewRouter assembles the routes and the middleware chain. Rate limiting is
// skipped when cfg.RateLimit is zero.
func NewRouter(h *PlaygroundHandler, logger *zap.Logger, cfg config.ServerConfig) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", HomeHandler)
	h.Register(mux)

	var handler http.Handler = mux
	if cfg.RateLimit > 0 {
		handler = RateLimitMiddleware(rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst), handler)
	}
	handler = CORSMiddleware(cfg.CORSOrigins, handler)
	return LoggingMiddleware(logger, handler)
}
