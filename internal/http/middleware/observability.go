package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/http/httperr"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/requestid"
)

const HeaderRequestID = "X-Request-Id"

// RequestIDMiddleware reuses the caller's X-Request-Id or generates one, and
// echoes it on the response.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if reqID == "" || len(reqID) > 128 {
			reqID = requestid.NewRequestID()
		}

		ctx := requestid.SetRequestID(r.Context(), reqID)
		w.Header().Set(HeaderRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLoggingMiddleware logs one line per request when it completes.
// Bodies and headers are never logged. 5xx responses get a second http_error
// line carrying the root cause recorded by the handler.
func RequestLoggingMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := logger.SetLoggerInContext(r.Context(), log)
			ctx = logger.InitRootErrorContext(ctx)
			r = r.WithContext(ctx)

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			fields := []zap.Field{
				logger.Module("http"),
				logger.Action("request"),
				zap.String("method", r.Method),
				zap.String("route", getRoutePattern(r)),
				zap.String("path", r.URL.Path),
				zap.String("query", sanitizeQuery(r.URL.RawQuery)),
				zap.Int("status", wrapped.statusCode),
				zap.Int64("bytes", wrapped.bytes),
				zap.Float64("latency_ms", float64(time.Since(start).Microseconds())/1000),
				zap.String("remote_addr", sanitizeRemoteAddr(r.RemoteAddr)),
				zap.String("user_agent", sanitizeUserAgent(r.UserAgent())),
			}
			log.Info(ctx, "http request completed", fields...)

			if wrapped.statusCode >= http.StatusInternalServerError {
				rootErr := logger.GetRootError(ctx)
				errFields := []zap.Field{
					logger.Module("http"),
					logger.Action("http_error"),
					zap.Int("status", wrapped.statusCode),
					zap.String("method", r.Method),
					zap.String("route", getRoutePattern(r)),
					zap.String("kind", classifyError(rootErr)),
				}
				if rootErr != nil {
					errFields = append(errFields, zap.String("err", rootErr.Error()))
					var pgErr *pgconn.PgError
					if errors.As(rootErr, &pgErr) {
						errFields = append(errFields, zap.String("pgcode", pgErr.Code))
					}
				} else {
					errFields = append(errFields, zap.String("err", "internal server error (unspecified cause)"))
				}
				log.Error(ctx, "http_error", errFields...)
			}
		})
	}
}

// RecoveryMiddleware turns a panic into a logged 500.
func RecoveryMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				ctx := r.Context()
				logger.SetRootError(ctx, fmt.Errorf("panic: %v", rec))

				log.Error(ctx, "panic_recovered",
					logger.Module("http"),
					logger.Action("panic_recovery"),
					zap.Any("panic", rec),
					zap.String("stack", string(debug.Stack())),
					zap.String("method", r.Method),
					zap.String("route", getRoutePattern(r)),
				)
				httperr.InternalError(w, ctx)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	bytes       int64
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.wroteHeader {
		rw.statusCode = statusCode
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

var sensitiveQueryKeys = []string{"token", "password", "secret"}

// sanitizeQuery drops credentials passed as query parameters and caps length.
func sanitizeQuery(query string) string {
	if query == "" {
		return ""
	}
	parts := strings.Split(query, "&")
	kept := parts[:0]
	for _, p := range parts {
		key, _, _ := strings.Cut(p, "=")
		key = strings.ToLower(key)
		redact := false
		for _, s := range sensitiveQueryKeys {
			if strings.Contains(key, s) {
				redact = true
				break
			}
		}
		if redact {
			kept = append(kept, key+"=[REDACTED]")
			continue
		}
		kept = append(kept, p)
	}
	out := strings.Join(kept, "&")

	const maxLen = 200
	if len(out) > maxLen {
		return out[:maxLen] + "..."
	}
	return out
}

// sanitizeRemoteAddr strips the port: 192.168.1.100:54321 -> 192.168.1.100
func sanitizeRemoteAddr(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func sanitizeUserAgent(ua string) string {
	const maxLen = 100
	if len(ua) > maxLen {
		return ua[:maxLen] + "..."
	}
	return ua
}

// getRoutePattern returns the matched chi pattern, falling back to the path.
func getRoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func classifyError(err error) string {
	if err == nil {
		return "unknown"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return "db"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "panic"):
		return "panic"
	case strings.Contains(msg, "scan"):
		return "scan"
	case strings.Contains(msg, "blob"), strings.Contains(msg, "upload"):
		return "blob"
	}
	return "unknown"
}
