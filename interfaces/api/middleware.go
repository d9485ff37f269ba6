package api

import (
	"net"
	"net/http"
	"time"

	"github.com/texgallery/renderd/infrastructure/logging"
)

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withMiddleware wraps the handler with security headers, admission
// control, and request logging.
func (s *Server) withMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")

		// The liveness probe bypasses admission control.
		if s.limiter != nil && r.URL.Path != "/healthz" {
			decision, err := s.limiter.Admit(r.Context(), callerKey(r))
			if err != nil {
				logging.Warn().
					Add(logging.Component("api")).
					Add(logging.ErrorField(err)).
					Msg("limiter store unavailable")
			}
			if !decision.Allowed {
				s.metrics.RecordRateLimitHit(r.Context(), r.URL.Path)
				writeRateLimited(w, decision.RetryAfter.Seconds())
				return
			}
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler.ServeHTTP(rec, r)

		logging.Info().
			Add(logging.Route(r.Method + " " + r.URL.Path)).
			Add(logging.Status(rec.status)).
			Add(logging.Duration(time.Since(start))).
			Msg("request handled")
	})
}

// callerKey identifies the caller for rate limiting: the API key
// header when present, the remote IP otherwise.
func callerKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
