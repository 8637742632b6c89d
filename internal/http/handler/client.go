package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/http/httperr"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/service"
)

type ClientHandler struct {
	service *service.ClientService
}

func NewClientHandler(service *service.ClientService) *ClientHandler {
	return &ClientHandler{service: service}
}

// ListClients handles GET /api/clients
func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := principal(w, r); !ok {
		return
	}

	params := domain.ListClientsParams{Search: queryPtr(r, "search")}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 100 {
			httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidParameter, "limit must be between 1 and 100")
			return
		}
		params.Limit = limit
	}

	clients, err := h.service.ListClients(ctx, params)
	if err != nil {
		handleServiceError(w, ctx, logger.GetLogger(ctx), err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

// GetClient handles GET /api/clients/{id}
func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := principal(w, r); !ok {
		return
	}

	c, err := h.service.GetClient(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, logger.GetLogger(ctx), err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateClient handles POST /api/clients
func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req domain.CreateClientRequest
	if !decode(w, r, log, &req) {
		return
	}

	c, err := h.service.CreateClient(ctx, p, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "client created", logger.Module("client"), logger.Action("create"),
		zap.String("client_id", c.ID))
	w.Header().Set("Location", "/api/clients/"+c.ID)
	writeJSON(w, http.StatusCreated, c)
}

// UpdateClient handles PUT /api/clients/{id}
func (h *ClientHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req domain.UpdateClientRequest
	if !decode(w, r, log, &req) {
		return
	}

	c, err := h.service.UpdateClient(ctx, p, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteClient handles DELETE /api/clients/{id}
func (h *ClientHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteClient(ctx, p, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, ctx, logger.GetLogger(ctx), err)
		return
	}
	writeMessage(w, http.StatusOK, "Client deleted")
}
