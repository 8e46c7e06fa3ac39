package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"ytmp3d/internal/consts"
	"ytmp3d/internal/errs"
	"ytmp3d/internal/infrastructure/delivery/http/response"
	"ytmp3d/internal/observability"

	"github.com/google/uuid"
)

type contextKey string

const RequestIDKey contextKey = "requestID"

const (
	HeaderXRequestID = "X-Request-ID"
)

// RequestLog is the structured payload logged for every request.
type RequestLog struct {
	Method        string `json:"method"`
	URI           string `json:"uri"`
	RemoteAddr    string `json:"remote_addr"`
	Proto         string `json:"proto"`
	ContentLength int64  `json:"content_length"`
}

func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				slog.ErrorContext(r.Context(), "panic in handler", slog.Any("panic", rvr))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderXRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), RequestIDKey, reqID)
		w.Header().Set(HeaderXRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.DebugContext(r.Context(), "http request",
			slog.Any("request", RequestLog{
				Method:        r.Method,
				URI:           r.RequestURI,
				RemoteAddr:    r.RemoteAddr,
				Proto:         r.Proto,
				ContentLength: r.ContentLength,
			}))
		next.ServeHTTP(w, r)
	})
}

// APIKey rejects requests whose X-API-Key header does not match key.
// An empty key disables the check entirely.
func APIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				next.ServeHTTP(w, r)

				return
			}

			got := r.Header.Get(consts.HeaderAPIKey)
			if got == "" {
				response.Forbidden(w, errs.ErrMissingAPIKey.Error())

				return
			}

			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				response.Forbidden(w, errs.ErrInvalidAPIKey.Error())

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Metrics records request counts and durations labeled by route pattern.
func Metrics(m *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rec, r)

			pattern := r.Pattern
			if pattern == "" {
				pattern = "unmatched"
			}

			m.RecordHTTPRequest(r.Method, pattern, rec.status, time.Since(start))
		})
	}
}
