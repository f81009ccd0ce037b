package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/w-h-a/tutor/internal/fault"
)

const rateLimitedDetail = "Rate limit exceeded. Please try again later."

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError maps errors the services return to statuses. Fallback answers
// are not errors and never reach here.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch fault.KindOf(err) {
	case fault.KindRateLimited:
		writeDetail(w, http.StatusTooManyRequests, rateLimitedDetail)
	case fault.KindInvalidInput:
		writeDetail(w, http.StatusBadRequest, cause(err))
	case fault.KindConfiguration:
		writeDetail(w, http.StatusBadRequest, "Configuration error: "+cause(err))
	case fault.KindNotFound:
		writeDetail(w, http.StatusNotFound, cause(err))
	case fault.KindTimeout:
		writeDetail(w, http.StatusGatewayTimeout, "Request timed out")
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}

// cause strips the operation and kind prefixes from a fault.
func cause(err error) string {
	var fe *fault.Error
	if errors.As(err, &fe) && fe.Err != nil {
		return fe.Err.Error()
	}
	return err.Error()
}

func origin(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
