package handler

import (
	"net/http"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/dashboard"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
)

type DashboardHandler struct {
	aggregator *dashboard.Aggregator
}

func NewDashboardHandler(aggregator *dashboard.Aggregator) *DashboardHandler {
	return &DashboardHandler{aggregator: aggregator}
}

// Overview handles GET /api/dashboard/overview
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}

	overview, err := h.aggregator.Overview(ctx, p)
	if err != nil {
		handleServiceError(w, ctx, logger.GetLogger(ctx), err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// Attention handles GET /api/dashboard/attention
func (h *DashboardHandler) Attention(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}

	attention, err := h.aggregator.Attention(ctx, p)
	if err != nil {
		handleServiceError(w, ctx, logger.GetLogger(ctx), err)
		return
	}
	writeJSON(w, http.StatusOK, attention)
}
