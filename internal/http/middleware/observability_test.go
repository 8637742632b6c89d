package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/http/httperr"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/http/middleware"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/requestid"
)

// bufferLogger writes JSON lines into buf.
func bufferLogger(buf *bytes.Buffer) *logger.Logger {
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return logger.NewWithCore("test-service", zapcore.NewCore(enc, zapcore.AddSync(buf), zapcore.DebugLevel))
}

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	var seen string
	handler := middleware.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestid.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.True(t, strings.HasPrefix(seen, "req_"), "got %q", seen)
	assert.Equal(t, seen, rec.Header().Get(middleware.HeaderRequestID))
}

func TestRequestIDMiddleware_PreservesExistingID(t *testing.T) {
	var seen string
	handler := middleware.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestid.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(middleware.HeaderRequestID, "test-request-id-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "test-request-id-123", seen)
	assert.Equal(t, "test-request-id-123", rec.Header().Get(middleware.HeaderRequestID))
}

func TestRequestIDMiddleware_ReplacesOversizedID(t *testing.T) {
	handler := middleware.RequestIDMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(middleware.HeaderRequestID, strings.Repeat("x", 200))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.True(t, strings.HasPrefix(rec.Header().Get(middleware.HeaderRequestID), "req_"))
}

func TestRequestLoggingMiddleware_LogsRoutePatternAndRedactsQuery(t *testing.T) {
	var buf bytes.Buffer
	log := bufferLogger(&buf)

	r := chi.NewRouter()
	r.Use(middleware.RequestLoggingMiddleware(log))
	r.Get("/api/cases/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.NotNil(t, logger.GetLogger(r.Context()))
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cases/c1?token=abc&status=Open", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	out := buf.String()
	assert.Contains(t, out, `"route":"/api/cases/{id}"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, "token=[REDACTED]&status=Open")
	assert.NotContains(t, out, "abc")
}

func TestRequestLoggingMiddleware_LogsRootCauseOn5xx(t *testing.T) {
	var buf bytes.Buffer
	log := bufferLogger(&buf)

	handler := middleware.RequestLoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.SetRootError(r.Context(), assert.AnError)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), `"action":"http_error"`)
	assert.Contains(t, buf.String(), assert.AnError.Error())
}

func TestRecoveryMiddleware_RecoversPanic(t *testing.T) {
	httperr.ExposeErrorIDs(false)
	handler := middleware.RecoveryMiddleware(logger.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("test panic")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":{"code":"INTERNAL_ERROR","message":"Internal Server Error"}}`, rec.Body.String())
}

func TestRecoveryMiddleware_ExposesErrorIDInDev(t *testing.T) {
	httperr.ExposeErrorIDs(true)
	t.Cleanup(func() { httperr.ExposeErrorIDs(false) })

	handler := middleware.RequestIDMiddleware(
		middleware.RecoveryMiddleware(logger.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("dev panic")
		})),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	reqID := rec.Header().Get(middleware.HeaderRequestID)
	assert.Contains(t, rec.Body.String(), `"error_id":"`+reqID+`"`)
}

func TestRecoveryMiddleware_DoesNotAffectNormalFlow(t *testing.T) {
	handler := middleware.RecoveryMiddleware(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("success"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", rec.Body.String())
}

func BenchmarkRequestIDMiddleware(b *testing.B) {
	handler := middleware.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/test", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}
