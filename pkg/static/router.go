package static

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arborfs/arborfs/internal/logger"
	"github.com/arborfs/arborfs/internal/ratelimiter"
	"github.com/arborfs/arborfs/pkg/metrics"
	"github.com/arborfs/arborfs/pkg/store/content"
	"github.com/arborfs/arborfs/pkg/store/record"
)

// NewRouter creates and configures the chi router with all middleware and
// routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - GET/HEAD /static/* - Asset delivery (rate limited per client)
//   - GET /healthz - Record and content store health
//   - GET /metrics - Prometheus exposition (only when metrics are enabled)
func NewRouter(config Config, records record.Store, objects content.Store, limiter *ratelimiter.PerClient) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health probes bypass rate limiting
	r.Get("/healthz", healthHandler(records, objects))

	if metrics.IsEnabled() {
		r.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	}

	assets := assetHandler(config.Root, config.CacheMaxAge)
	r.Group(func(r chi.Router) {
		r.Use(rateLimit(limiter))
		r.Get("/static/*", assets)
		r.Head("/static/*", assets)
	})

	return r
}

// healthStatus is the /healthz response body.
type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// healthHandler reports the health of both backing stores. Any failing
// store turns the response into 503 with the failing check named.
func healthHandler(records record.Store, objects content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := healthStatus{
			Status: "ok",
			Checks: map[string]string{"records": "ok", "content": "ok"},
		}

		if err := records.Healthcheck(r.Context()); err != nil {
			body.Status = "degraded"
			body.Checks["records"] = err.Error()
		}
		if err := objects.Healthcheck(r.Context()); err != nil {
			body.Status = "degraded"
			body.Checks["content"] = err.Error()
		}

		status := http.StatusOK
		if body.Status != "ok" {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

// rateLimit rejects requests from clients that exhausted their token bucket.
func rateLimit(limiter *ratelimiter.PerClient) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client address used as the rate-limit key. RealIP
// middleware has already substituted forwarded addresses by the time this
// runs; the port is stripped so one client maps to one bucket.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requestLogger is a custom middleware that logs requests using the
// internal logger.
//
// Completions log at INFO with method, path, status, bytes, and duration.
// Health probes log at DEBUG to reduce noise.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		// Wrap response writer to capture status code and bytes written
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		if r.URL.Path == "/healthz" {
			logger.Debug("HTTP %s %s -> %d (%d bytes, %s) request_id=%s",
				r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), duration, requestID)
		} else {
			logger.Info("HTTP %s %s -> %d (%d bytes, %s) request_id=%s",
				r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), duration, requestID)
		}
	})
}
