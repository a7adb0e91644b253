package web

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"go.uber.org/zap"
	goahttp "goa.design/goa/v3/http"
	httpmiddleware "goa.design/goa/v3/http/middleware"
	goamiddleware "goa.design/goa/v3/middleware"

	"chengdumed/internal/config"
	"chengdumed/internal/metrics"
)

// Handler wraps mux with the middleware chain:
// request ID -> request context -> security headers -> CORS -> logging -> metrics -> routes
func Handler(mux goahttp.Muxer, cfg *config.Config, log *zap.SugaredLogger) http.Handler {
	var handler http.Handler = mux
	handler = metrics.PrometheusMiddleware(handler)
	handler = RequestLogging(log)(handler)
	handler = CORS(&cfg.CORS)(handler)
	handler = SecurityHeaders(cfg.App.Debug)(handler)
	handler = httpmiddleware.PopulateRequestContext()(handler)
	handler = httpmiddleware.RequestID(httpmiddleware.UseXRequestIDHeaderOption(true))(handler)
	return handler
}

// SecurityHeaders adds security headers to responses
func SecurityHeaders(debug bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

			// Remove server identification
			w.Header().Set("Server", "")

			// HSTS (only in production with HTTPS)
			if !debug && r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORS configures cross-origin access from the configured origins
func CORS(cfg *config.CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: cfg.AllowedMethods,
		AllowedHeaders: cfg.AllowedHeaders,
		ExposedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         cfg.MaxAge,
	})
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

// RequestLogging logs all incoming requests and their responses
func RequestLogging(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Skip logging for health checks and metric scrapes to reduce noise
			if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			reqID, _ := r.Context().Value(goamiddleware.RequestIDKey).(string)

			log.Infof("[REQUEST] %s %s from %s id=%s", r.Method, r.URL.Path, r.RemoteAddr, reqID)

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			statusText := "OK"
			if wrapped.statusCode >= 400 {
				statusText = "ERROR"
			}
			log.Infof("[RESPONSE] %s %s -> %d %s (%v)", r.Method, r.URL.Path, wrapped.statusCode, statusText, duration)
		})
	}
}
