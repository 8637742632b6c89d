// Package handler adapts HTTP requests to the service layer. Handlers decode
// and validate input, call one service method and map its errors to the
// standard error envelope.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/audit"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/auth"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/http/httperr"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/service"
)

// maxJSONBody limits JSON request bodies. Uploads use their own limit.
const maxJSONBody = 1 << 20

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// principal returns the authenticated caller or writes a 401.
func principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := auth.GetPrincipal(r.Context())
	if !ok {
		httperr.Unauthorized401(w, r.Context(), httperr.ErrCodeInvalidToken, "authentication required")
	}
	return p, ok
}

// validatable is implemented by the request DTOs.
type validatable interface {
	Validate() error
}

// decode reads a JSON body into dst and runs its validation when present.
// On failure the error response is already written.
func decode(w http.ResponseWriter, r *http.Request, log *logger.Logger, dst interface{}) bool {
	ctx := r.Context()
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httperr.PayloadTooLarge413(w, ctx, "request body too large")
			return false
		}
		log.Warn(ctx, "invalid request body", zap.Error(err))
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidParameter, "request body must be valid JSON")
		return false
	}

	v, ok := dst.(validatable)
	if !ok {
		return true
	}
	if err := v.Validate(); err != nil {
		log.Warn(ctx, "validation failed", zap.Error(err))
		if fields := domain.FieldErrors(err); fields != nil {
			httperr.BadRequest400WithFields(w, ctx, httperr.ErrCodeValidationError, "validation failed", fields)
			return false
		}
		httperr.BadRequest400(w, ctx, httperr.ErrCodeValidationError, err.Error())
		return false
	}
	return true
}

func queryPtr(r *http.Request, name string) *string {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	return &v
}

func handleServiceError(w http.ResponseWriter, ctx context.Context, log *logger.Logger, err error) {
	var verr *service.ValidationError

	switch {
	case errors.As(err, &verr):
		log.Debug(ctx, "validation error", zap.Error(err))
		httperr.BadRequest400WithFields(w, ctx, httperr.ErrCodeValidationError, verr.Message, verr.Fields)
	case domain.FieldErrors(err) != nil:
		httperr.BadRequest400WithFields(w, ctx, httperr.ErrCodeValidationError, "validation failed", domain.FieldErrors(err))

	case errors.Is(err, service.ErrManageAssistants):
		httperr.Forbidden403(w, ctx, httperr.ErrCodeForbidden, "Only the assigned attorney can modify assistants")
	case errors.Is(err, service.ErrForbidden):
		httperr.Forbidden403(w, ctx, httperr.ErrCodeForbidden, "Forbidden: not your case")

	case errors.Is(err, service.ErrInvalidCredentials):
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidCredentials, "Invalid credentials")
	case errors.Is(err, service.ErrEmailRegistered):
		httperr.BadRequest400(w, ctx, httperr.ErrCodeConflict, "Email already registered")
	case errors.Is(err, service.ErrEmailTaken):
		httperr.Conflict409(w, ctx, "Email already in use")
	case errors.Is(err, service.ErrCurrentPassword):
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidCredentials, "Current password incorrect")

	case errors.Is(err, service.ErrInvalidClient):
		httperr.BadRequest400WithFields(w, ctx, httperr.ErrCodeInvalidParameter, "Invalid clientId",
			map[string]string{"clientId": "does not reference an existing client"})
	case errors.Is(err, service.ErrAssistantNotFound):
		httperr.NotFound404(w, ctx, "Assistant user not found")
	case errors.Is(err, service.ErrNotAssistant):
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidParameter, "Only users with Assistant role can be assigned")
	case errors.Is(err, service.ErrAttorneyNotFound):
		httperr.NotFound404(w, ctx, "Attorney user not found")
	case errors.Is(err, service.ErrNotAttorney):
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidParameter, "Only users with Attorney role can be assigned to a case")
	case errors.Is(err, service.ErrInvalidAssignee):
		httperr.BadRequest400WithFields(w, ctx, httperr.ErrCodeInvalidParameter, "Invalid assignedTo",
			map[string]string{"assignedTo": "does not reference an existing user"})
	case errors.Is(err, service.ErrAssistantNotAssigned):
		httperr.NotFound404(w, ctx, "Assistant not assigned to this case")
	case errors.Is(err, service.ErrFileRequired):
		httperr.BadRequest400(w, ctx, httperr.ErrCodeMissingParameter, "File is required")
	case errors.Is(err, service.ErrFileTooLarge):
		httperr.PayloadTooLarge413(w, ctx, "File exceeds the upload limit")

	case errors.Is(err, service.ErrCaseNotFound):
		httperr.NotFound404(w, ctx, "Case not found")
	case errors.Is(err, service.ErrTaskNotFound):
		httperr.NotFound404(w, ctx, "Task not found")
	case errors.Is(err, service.ErrDocumentNotFound):
		httperr.NotFound404(w, ctx, "Document not found")
	case errors.Is(err, service.ErrClientNotFound):
		httperr.NotFound404(w, ctx, "Client not found")
	case errors.Is(err, service.ErrUserNotFound):
		httperr.NotFound404(w, ctx, "User not found")

	case errors.Is(err, audit.ErrInvalidDate):
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "Invalid date format. Use YYYY-MM-DD")
	case errors.Is(err, audit.ErrInvalidFormat):
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidParameter, "format must be csv or json")

	case errors.Is(err, context.Canceled):
		// client went away; nothing useful can be written
		log.Debug(ctx, "request canceled", zap.Error(err))
	default:
		logger.SetRootError(ctx, err)
		log.Error(ctx, "unhandled internal server error", zap.Error(err))
		httperr.InternalError500(w, ctx, "an internal error occurred")
	}
}
