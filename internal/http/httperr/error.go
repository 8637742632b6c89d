package httperr

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"

	"go.uber.org/zap"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	OK    bool         `json:"ok"`
	Error *ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	ErrorID string            `json:"error_id,omitempty"`
}

// Error codes for 401 Unauthorized (authentication failures)
const (
	ErrCodeMissingAuthorization = "MISSING_AUTHORIZATION"
	ErrCodeInvalidScheme        = "INVALID_SCHEME"
	ErrCodeInvalidToken         = "INVALID_TOKEN"
	ErrCodeTokenExpired         = "TOKEN_EXPIRED"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
)

// Error codes for 403 Forbidden
const (
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeRoleNotPermitted = "ROLE_NOT_PERMITTED"
)

// Error codes for 400/404/409/413
const (
	ErrCodeInvalidParameter = "INVALID_PARAMETER"
	ErrCodeInvalidFormat    = "INVALID_FORMAT"
	ErrCodeMissingParameter = "MISSING_PARAMETER"
	ErrCodeValidationError  = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	ErrCodeRateLimited      = "RATE_LIMITED"
)

// Error codes for 500 Internal Server Error
const (
	ErrCodeInternalError = "INTERNAL_ERROR"
)

var exposeErrorID atomic.Bool

// ExposeErrorIDs controls whether 500 responses carry the request id as error_id.
// Enabled for APP_ENV=dev.
func ExposeErrorIDs(enabled bool) {
	exposeErrorID.Store(enabled)
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	log := logger.GetLogger(ctx)

	log.Warn(ctx, "request failed",
		logger.Module("http"),
		logger.Action("write_error"),
		zap.Int("status_code", status),
		zap.String("error_code", code),
		zap.String("message", message),
	)

	writeResponse(w, status, ErrorResponse{
		OK:    false,
		Error: &ErrorDetail{Code: code, Message: message},
	})
}

// WriteErrorWithFields writes a standardized error response with field-level details
func WriteErrorWithFields(w http.ResponseWriter, ctx context.Context, status int, code, message string, fields map[string]string) {
	log := logger.GetLogger(ctx)

	fieldPairs := make([]zap.Field, 0, len(fields)+5)
	fieldPairs = append(fieldPairs,
		logger.Module("http"),
		logger.Action("write_error"),
		zap.Int("status_code", status),
		zap.String("error_code", code),
		zap.String("message", message),
	)
	for k, v := range fields {
		fieldPairs = append(fieldPairs, zap.String("field_"+k, v))
	}

	log.Warn(ctx, "request failed with field errors", fieldPairs...)

	writeResponse(w, status, ErrorResponse{
		OK:    false,
		Error: &ErrorDetail{Code: code, Message: message, Fields: fields},
	})
}

// Unauthorized401 writes a 401 Unauthorized response
func Unauthorized401(w http.ResponseWriter, ctx context.Context, code, message string) {
	WriteError(w, ctx, http.StatusUnauthorized, code, message)
}

// Forbidden403 writes a 403 Forbidden response
func Forbidden403(w http.ResponseWriter, ctx context.Context, code, message string) {
	WriteError(w, ctx, http.StatusForbidden, code, message)
}

// BadRequest400 writes a 400 Bad Request response
func BadRequest400(w http.ResponseWriter, ctx context.Context, code, message string) {
	WriteError(w, ctx, http.StatusBadRequest, code, message)
}

// BadRequest400WithFields writes a 400 Bad Request response with field-level errors
func BadRequest400WithFields(w http.ResponseWriter, ctx context.Context, code, message string, fields map[string]string) {
	WriteErrorWithFields(w, ctx, http.StatusBadRequest, code, message, fields)
}

// NotFound404 writes a 404 Not Found response
func NotFound404(w http.ResponseWriter, ctx context.Context, message string) {
	WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, message)
}

// Conflict409 writes a 409 Conflict response
func Conflict409(w http.ResponseWriter, ctx context.Context, message string) {
	WriteError(w, ctx, http.StatusConflict, ErrCodeConflict, message)
}

// PayloadTooLarge413 writes a 413 response
func PayloadTooLarge413(w http.ResponseWriter, ctx context.Context, message string) {
	WriteError(w, ctx, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, message)
}

// InternalError500 writes a 500 Internal Server Error response
func InternalError500(w http.ResponseWriter, ctx context.Context, message string) {
	reqID := logger.GetRequestIDFromContext(ctx)

	log := logger.GetLogger(ctx)
	log.Error(ctx, "internal server error",
		logger.Module("http"),
		logger.Action("write_error"),
		zap.String("message", message),
	)

	// generic message outside dev
	response := ErrorResponse{
		OK: false,
		Error: &ErrorDetail{
			Code:    ErrCodeInternalError,
			Message: "Internal Server Error",
		},
	}
	if exposeErrorID.Load() {
		response.Error.ErrorID = reqID
	}

	writeResponse(w, http.StatusInternalServerError, response)
}

// InternalError writes a 500 with a default log message.
func InternalError(w http.ResponseWriter, ctx context.Context) {
	InternalError500(w, ctx, "internal server error")
}

func writeResponse(w http.ResponseWriter, status int, response ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
