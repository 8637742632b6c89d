package handler

import (
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/audit"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
)

type AuditHandler struct {
	trail *audit.Trail
}

func NewAuditHandler(trail *audit.Trail) *AuditHandler {
	return &AuditHandler{trail: trail}
}

// Export handles GET /api/audit/export?from=&to=&format=csv|json
func (h *AuditHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	p, ok := principal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	report, err := h.trail.Export(ctx, p, audit.ExportParams{
		From:   q.Get("from"),
		To:     q.Get("to"),
		Format: q.Get("format"),
	})
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "audit exported", logger.Module("audit"), logger.Action("export"),
		zap.Int("records", report.Records),
		zap.String("filename", report.Filename),
	)

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": report.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(report.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report.Body)
}
