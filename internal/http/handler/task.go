package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/http/httperr"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/service"
)

type TaskHandler struct {
	service *service.TaskService
}

func NewTaskHandler(service *service.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// ListTasks handles GET /api/tasks?caseId=&status=
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}

	params := domain.ListTasksParams{CaseID: queryPtr(r, "caseId")}
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.TaskStatus(v)
		if !status.IsValid() {
			httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidParameter, "status must be Open, In Progress, Completed or Overdue")
			return
		}
		params.Status = &status
	}

	tasks, err := h.service.ListTasks(ctx, p, params)
	if err != nil {
		handleServiceError(w, ctx, logger.GetLogger(ctx), err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// GetTask handles GET /api/tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}

	task, err := h.service.GetTask(ctx, p, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, logger.GetLogger(ctx), err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// CreateTask handles POST /api/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req domain.CreateTaskRequest
	if !decode(w, r, log, &req) {
		return
	}

	task, err := h.service.CreateTask(ctx, p, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "task created", logger.Module("task"), logger.Action("create"),
		zap.String("task_id", task.ID), zap.String("case_id", task.CaseID))
	w.Header().Set("Location", "/api/tasks/"+task.ID)
	writeJSON(w, http.StatusCreated, task)
}

// UpdateTask handles PUT /api/tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req domain.UpdateTaskRequest
	if !decode(w, r, log, &req) {
		return
	}

	task, err := h.service.UpdateTask(ctx, p, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(ctx, p, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, ctx, logger.GetLogger(ctx), err)
		return
	}
	writeMessage(w, http.StatusOK, "Task deleted")
}
