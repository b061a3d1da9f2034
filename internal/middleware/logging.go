package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// responseMeter captures the status code and body size a handler writes.
type responseMeter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (m *responseMeter) WriteHeader(code int) {
	m.status = code
	m.ResponseWriter.WriteHeader(code)
}

func (m *responseMeter) Write(p []byte) (int, error) {
	n, err := m.ResponseWriter.Write(p)
	m.bytes += n
	return n, err
}

// RequestLogger logs one line per request: method, path, status, response
// size, duration, and client IP. Server errors log at error level and
// client errors at warn, so a noisy portal client or a failing handler
// stands out at the default info level.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			meter := &responseMeter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(meter, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", meter.status),
				slog.Int("bytes", meter.bytes),
				slog.Duration("duration", time.Since(start)),
				slog.String("ip", RealIP(r)),
			}

			level := slog.LevelInfo
			switch {
			case meter.status >= 500:
				level = slog.LevelError
			case meter.status >= 400:
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "request", attrs...)
		})
	}
}
