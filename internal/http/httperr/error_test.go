package httperr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/requestid"
)

func testContext() context.Context {
	ctx := logger.SetLoggerInContext(context.Background(), logger.NewNop())
	return requestid.SetRequestID(ctx, "req_test")
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	require.NotNil(t, response.Error)
	return response
}

func TestWriteHelpers(t *testing.T) {
	ctx := testContext()

	tests := []struct {
		name     string
		write    func(w http.ResponseWriter)
		status   int
		code     string
		message  string
	}{
		{"401", func(w http.ResponseWriter) { Unauthorized401(w, ctx, ErrCodeInvalidToken, "Invalid token") }, http.StatusUnauthorized, ErrCodeInvalidToken, "Invalid token"},
		{"403", func(w http.ResponseWriter) { Forbidden403(w, ctx, ErrCodeForbidden, "Forbidden: not your case") }, http.StatusForbidden, ErrCodeForbidden, "Forbidden: not your case"},
		{"400", func(w http.ResponseWriter) { BadRequest400(w, ctx, ErrCodeInvalidParameter, "Invalid clientId") }, http.StatusBadRequest, ErrCodeInvalidParameter, "Invalid clientId"},
		{"404", func(w http.ResponseWriter) { NotFound404(w, ctx, "Case not found") }, http.StatusNotFound, ErrCodeNotFound, "Case not found"},
		{"409", func(w http.ResponseWriter) { Conflict409(w, ctx, "Email already in use") }, http.StatusConflict, ErrCodeConflict, "Email already in use"},
		{"413", func(w http.ResponseWriter) { PayloadTooLarge413(w, ctx, "File too large") }, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "File too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.write(rr)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			response := decode(t, rr)
			assert.False(t, response.OK)
			assert.Equal(t, tt.code, response.Error.Code)
			assert.Equal(t, tt.message, response.Error.Message)
		})
	}
}

func TestWriteErrorWithFields(t *testing.T) {
	rr := httptest.NewRecorder()
	fields := map[string]string{
		"title":    "is required",
		"deadline": "is required",
	}

	BadRequest400WithFields(rr, testContext(), ErrCodeValidationError, "validation failed", fields)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	response := decode(t, rr)
	assert.Equal(t, fields, response.Error.Fields)
}

func TestInternalError500_HidesErrorIDOutsideDev(t *testing.T) {
	ExposeErrorIDs(false)

	rr := httptest.NewRecorder()
	InternalError500(rr, testContext(), "database connection failed")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	response := decode(t, rr)
	assert.Equal(t, ErrCodeInternalError, response.Error.Code)
	assert.Equal(t, "Internal Server Error", response.Error.Message)
	assert.Empty(t, response.Error.ErrorID)
}

func TestInternalError500_ExposesErrorIDInDev(t *testing.T) {
	ExposeErrorIDs(true)
	t.Cleanup(func() { ExposeErrorIDs(false) })

	rr := httptest.NewRecorder()
	InternalError(rr, testContext())

	response := decode(t, rr)
	assert.Equal(t, "req_test", response.Error.ErrorID)
}
