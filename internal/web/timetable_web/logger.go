package timetable_web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// AccessLogger logs one line per request, at warn for client errors and
// error for server errors.
func AccessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		startTime := time.Now()
		wrapped := middleware.NewWrapResponseWriter(writer, request.ProtoMajor)

		next.ServeHTTP(wrapped, request)

		code := wrapped.Status()
		if code == 0 {
			code = http.StatusOK
		}

		ipAddress := request.RemoteAddr
		if cloudflareConnectingIP := request.Header.Get("CF-Connecting-IP"); cloudflareConnectingIP != "" {
			ipAddress = cloudflareConnectingIP
		}

		requestLogger := log.With().
			Int("status", code).
			Str("method", request.Method).
			Str("path", request.URL.Path).
			Str("ip", ipAddress).
			Str("latency", time.Since(startTime).String()).
			Str("user-agent", request.UserAgent()).
			Str("request-id", middleware.GetReqID(request.Context())).
			Int("bytes", wrapped.BytesWritten()).
			Logger()

		switch {
		case code >= http.StatusBadRequest && code < http.StatusInternalServerError:
			requestLogger.Warn().Msg("HTTP Request")
		case code >= http.StatusInternalServerError:
			requestLogger.Error().Msg("HTTP Request")
		default:
			requestLogger.Info().Msg("HTTP Request")
		}
	})
}
