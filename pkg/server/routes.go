package server

import (
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"golang.org/x/time/rate"
)

// maxBodyBytes bounds request bodies; a batch holds a few dozen samples.
const maxBodyBytes = 1 << 20

// routes registers all HTTP routes and wraps them in the middleware stack.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/panels", s.handlePanels)
	mux.HandleFunc("POST /api/rrdtool", s.handleRRDTool)
	mux.HandleFunc("GET /api/tables", s.handleTables)
	mux.HandleFunc("GET /api/tables/{name}", s.handleTable)
	mux.HandleFunc("GET /metrics", s.handlePrometheus)

	return s.accessLogMiddleware(newRateLimitMiddleware(s.limiter)(securityHeadersMiddleware(mux)))
}

func (s *Server) newHTTPServer() *http.Server {
	return &http.Server{
		Addr:              ":" + s.listenPort,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// accessLogMiddleware logs every request and counts responses by status code.
func (s *Server) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.stats.recordResponse(m.Code)
		s.logger.Debugf("%s %s %d %dB %v", r.Method, r.URL.Path, m.Code, m.Written, m.Duration)
	})
}

// newRateLimitMiddleware rejects requests with 429 once limiter is exhausted.
func newRateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// securityHeadersMiddleware sets conservative response headers.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
