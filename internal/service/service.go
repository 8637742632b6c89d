// Package service implements the resource operations. Every method takes the
// calling Principal, consults the access policy before touching storage and
// records successful mutations on the audit trail.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/access"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/audit"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
)

var (
	ErrForbidden        = access.ErrForbidden
	ErrUserNotFound     = store.ErrUserNotFound
	ErrClientNotFound   = store.ErrClientNotFound
	ErrCaseNotFound     = store.ErrCaseNotFound
	ErrTaskNotFound     = store.ErrTaskNotFound
	ErrDocumentNotFound = store.ErrDocumentNotFound
	ErrEmailTaken       = store.ErrEmailTaken

	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrEmailRegistered      = errors.New("email already registered")
	ErrCurrentPassword      = errors.New("current password incorrect")
	ErrInvalidClient        = errors.New("invalid clientId")
	ErrAssistantNotFound    = errors.New("assistant user not found")
	ErrNotAssistant         = errors.New("only users with Assistant role can be assigned")
	ErrAttorneyNotFound     = errors.New("attorney user not found")
	ErrNotAttorney          = errors.New("only users with Attorney role can be assigned to a case")
	ErrInvalidAssignee      = errors.New("invalid assignedTo")
	ErrAssistantNotAssigned = errors.New("assistant not assigned to this case")
	ErrFileRequired         = errors.New("file is required")
	ErrFileTooLarge         = errors.New("file exceeds the upload limit")

	// ErrManageAssistants is a forbidden error with its own message.
	ErrManageAssistants = fmt.Errorf("%w: only the assigned attorney can modify assistants", access.ErrForbidden)
)

// ValidationError is an input problem detected by a service after the request
// DTO passed its own validation.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(message, field, reason string) error {
	return &ValidationError{Message: message, Fields: map[string]string{field: reason}}
}

// Recorder receives audit events. *audit.Trail implements it.
type Recorder interface {
	Record(ctx context.Context, ev audit.Event)
}

var _ Recorder = (*audit.Trail)(nil)

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// logDenied emits the authorization failure so rejected writes stay visible
// even though they never reach the audit log.
func logDenied(ctx context.Context, log *logger.Logger, module, action string, p domain.Principal, resourceID string) {
	log.Warn(ctx, "access denied",
		logger.Module(module),
		logger.Action(action),
		zap.String("actor_id", p.ID),
		zap.String("role", string(p.Role)),
		zap.String("resource_id", resourceID),
	)
}
