package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
)

// Logging emits one structured line per request.
func Logging(h http.Handler) http.Handler {
	return handlers.CustomLoggingHandler(io.Discard, h, func(_ io.Writer, p handlers.LogFormatterParams) {
		slog.InfoContext(
			p.Request.Context(),
			"http request",
			"method", p.Request.Method,
			"path", p.URL.Path,
			"status", p.StatusCode,
			"bytes", p.Size,
			"duration", time.Since(p.TimeStamp),
			"remote", p.Request.RemoteAddr,
		)
	})
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...any) {
	slog.Error("recovered from handler panic", "error", fmt.Sprint(v...))
}

// Recovery turns a handler panic into a 500.
func Recovery() func(http.Handler) http.Handler {
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(false),
	)
}

// CORS allows browser clients from origins. An empty list allows any origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	)
}

// ProxyHeaders takes the client address from X-Forwarded-For and X-Real-IP so
// admission control sees the caller rather than the proxy.
func ProxyHeaders(h http.Handler) http.Handler {
	return handlers.ProxyHeaders(h)
}
