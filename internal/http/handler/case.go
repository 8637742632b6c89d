package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/http/httperr"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/service"
)

type CaseHandler struct {
	service *service.CaseService
}

func NewCaseHandler(service *service.CaseService) *CaseHandler {
	return &CaseHandler{service: service}
}

// ListCases handles GET /api/cases?search=&status=&priority=
func (h *CaseHandler) ListCases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	p, ok := principal(w, r)
	if !ok {
		return
	}

	params := domain.ListCasesParams{Search: queryPtr(r, "search")}
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.CaseStatus(v)
		if !status.IsValid() {
			httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidParameter, "status must be Open, Pending or Closed")
			return
		}
		params.Status = &status
	}
	if v := r.URL.Query().Get("priority"); v != "" {
		priority := domain.Priority(v)
		if !priority.IsValid() {
			httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidParameter, "priority must be Low, Medium or High")
			return
		}
		params.Priority = &priority
	}

	cases, err := h.service.ListCases(ctx, p, params)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Debug(ctx, "cases listed", logger.Module("case"), logger.Action("list"),
		zap.Int("count", len(cases)))
	writeJSON(w, http.StatusOK, cases)
}

// GetCase handles GET /api/cases/{id}
func (h *CaseHandler) GetCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}

	detail, err := h.service.GetCase(ctx, p, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, logger.GetLogger(ctx), err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// CreateCase handles POST /api/cases
func (h *CaseHandler) CreateCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req domain.CreateCaseRequest
	if !decode(w, r, log, &req) {
		return
	}

	c, err := h.service.CreateCase(ctx, p, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "case created", logger.Module("case"), logger.Action("create"),
		zap.String("case_id", c.ID))
	w.Header().Set("Location", "/api/cases/"+c.ID)
	writeJSON(w, http.StatusCreated, c)
}

// UpdateCase handles PUT /api/cases/{id}
func (h *CaseHandler) UpdateCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req domain.UpdateCaseRequest
	if !decode(w, r, log, &req) {
		return
	}

	c, err := h.service.UpdateCase(ctx, p, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCase handles DELETE /api/cases/{id}
func (h *CaseHandler) DeleteCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteCase(ctx, p, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, ctx, logger.GetLogger(ctx), err)
		return
	}
	writeMessage(w, http.StatusOK, "Case deleted")
}

// AddAssistant handles POST /api/cases/{id}/add-assistant
func (h *CaseHandler) AddAssistant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req domain.AddAssistantRequest
	if !decode(w, r, log, &req) {
		return
	}
	req.AssistantID = strings.TrimSpace(req.AssistantID)
	if req.AssistantID == "" {
		httperr.BadRequest400WithFields(w, ctx, httperr.ErrCodeMissingParameter, "assistantId is required",
			map[string]string{"assistantId": "is required"})
		return
	}

	view, err := h.service.AddAssistant(ctx, p, chi.URLParam(r, "id"), req.AssistantID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// RemoveAssistant handles DELETE /api/cases/{id}/remove-assistant/{assistantId}
func (h *CaseHandler) RemoveAssistant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}

	view, err := h.service.RemoveAssistant(ctx, p, chi.URLParam(r, "id"), chi.URLParam(r, "assistantId"))
	if err != nil {
		handleServiceError(w, ctx, logger.GetLogger(ctx), err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
