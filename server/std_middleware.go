package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

// APIMiddleware is the base chain for every JSON route.
func (s *Server) APIMiddleware(mw ...func(http.HandlerFunc) http.HandlerFunc) []func(http.HandlerFunc) http.HandlerFunc {
	chainedMiddleWare := []func(http.HandlerFunc) http.HandlerFunc{
		s.CorrelationIDMiddleware,
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.MetricsMiddleware,
		s.CorsMiddleware,
	}
	chainedMiddleWare = append(chainedMiddleWare, mw...)
	return chainedMiddleWare
}

// ProtectedMiddleware is the base chain plus the access-token gate.
func (s *Server) ProtectedMiddleware(mw ...func(http.HandlerFunc) http.HandlerFunc) []func(http.HandlerFunc) http.HandlerFunc {
	chainedMiddleWare := append(s.APIMiddleware(), s.RequireAuth)
	chainedMiddleWare = append(chainedMiddleWare, mw...)
	return chainedMiddleWare
}

const correlationIDHeader = "x-correlation-id"

// CorrelationIDMiddleware tags every request with a correlation id, taken
// from the client when supplied and generated otherwise, and echoes it back
// in the response header.
func (s *Server) CorrelationIDMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get(correlationIDHeader)
		if correlationID == "" {
			correlationID = uuid.New().String()
			r.Header.Set(correlationIDHeader, correlationID)
		}
		w.Header().Set(correlationIDHeader, correlationID)

		ctx := context.WithValue(r.Context(), ContextKeyCorrelationID, correlationID)
		next(w, r.WithContext(ctx))
	}
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next(sw, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", time.Since(start)).
			Str("correlation_id", w.Header().Get(correlationIDHeader)).
			Str("remote", r.RemoteAddr).
			Msg("http request")
	}
}

func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panic")
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			}
		}()
		next(w, r)
	}
}

// CorsMiddleware handles cross-origin requests. The refresh cookie is
// credentialed, so only explicitly allowed origins are reflected and the
// wildcard is never combined with Allow-Credentials.
func (s *Server) CorsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// No Origin header = same-origin request, no CORS headers needed
		if origin == "" {
			next(w, r)
			return
		}

		allowed := s.config.GetAllowedOrigins().IsAllowedOrigin(origin)

		if r.Method == http.MethodOptions {
			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", s.config.GetAllowedMethods())
				w.Header().Set("Access-Control-Allow-Headers", s.config.GetAllowedHeaders())
				w.Header().Set("Access-Control-Max-Age", "86400")
			}
			// Disallowed preflights get 200 with no CORS headers; the browser
			// blocks the actual request.
			w.WriteHeader(http.StatusOK)
			return
		}

		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		next(w, r)
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
