package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/texgallery/renderd/domain/job"
	"github.com/texgallery/renderd/infrastructure/logging"
)

// errorResponse is the uniform rejection body. Reason strings come
// from the error taxonomy and never contain host filesystem paths.
type errorResponse struct {
	Error      string `json:"error"`
	Reason     string `json:"reason,omitempty"`
	Log        string `json:"log,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, reason string) {
	writeJSON(w, status, errorResponse{Error: kind, Reason: reason})
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "validation", "method not allowed")
}

// writeFailure maps a classified job error to its HTTP shape.
func writeFailure(w http.ResponseWriter, err error) {
	var validationErr *job.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, "validation", validationErr.Reason)
		return
	}

	var rateErr *job.RateLimitError
	if errors.As(err, &rateErr) {
		writeRateLimited(w, rateErr.RetryAfter.Seconds())
		return
	}

	var toolErr *job.ToolError
	if errors.As(err, &toolErr) {
		if toolErr.TimedOut {
			writeJSON(w, http.StatusGatewayTimeout, errorResponse{
				Error: "tool_timeout",
				Log:   toolErr.Log,
			})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: "tool_failure",
			Log:   toolErr.Log,
		})
		return
	}

	var cloneErr *job.CloneError
	if errors.As(err, &cloneErr) {
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error: "clone_failure",
			Log:   cloneErr.Log,
		})
		return
	}

	// Anything unclassified is a server-side fault. The detail stays in
	// the log, not the response.
	logging.Error().
		Add(logging.Component("api")).
		Add(logging.ErrorField(err)).
		Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal", "")
}

func writeRateLimited(w http.ResponseWriter, retryAfterSeconds float64) {
	secs := int(math.Ceil(retryAfterSeconds))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeJSON(w, http.StatusTooManyRequests, errorResponse{
		Error:      "rate_limited",
		Reason:     "request quota exceeded",
		RetryAfter: secs,
	})
}
