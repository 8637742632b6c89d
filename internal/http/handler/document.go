package handler

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/http/httperr"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/service"
)

const (
	// multipartMemory is kept in memory before parts spill to temp files.
	multipartMemory = 8 << 20
	// multipartOverhead covers boundaries and the non-file fields.
	multipartOverhead = 1 << 20
)

type DocumentHandler struct {
	service *service.DocumentService
}

func NewDocumentHandler(service *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// ListDocuments handles GET /api/documents?caseId=
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}

	docs, err := h.service.ListDocuments(ctx, p, domain.ListDocumentsParams{CaseID: queryPtr(r, "caseId")})
	if err != nil {
		handleServiceError(w, ctx, logger.GetLogger(ctx), err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// UploadDocument handles POST /api/documents/upload (multipart: file, caseId)
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	p, ok := principal(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.service.MaxUploadBytes()+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httperr.PayloadTooLarge413(w, ctx, "File exceeds the upload limit")
			return
		}
		log.Warn(ctx, "invalid multipart body", zap.Error(err))
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "request must be multipart/form-data")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	in := service.Upload{CaseID: r.FormValue("caseId")}

	file, hdr, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// service reports ErrFileRequired
	case err != nil:
		log.Warn(ctx, "unreadable file part", zap.Error(err))
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "file part could not be read")
		return
	default:
		defer file.Close()
		in.Filename = filepath.Base(hdr.Filename)
		in.ContentType = partContentType(hdr)
		in.Size = hdr.Size
		in.Body = file
	}

	doc, err := h.service.UploadDocument(ctx, p, in)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "document uploaded", logger.Module("document"), logger.Action("upload"),
		zap.String("document_id", doc.ID),
		zap.String("case_id", doc.CaseID),
		zap.Int64("size", doc.Size),
	)
	writeJSON(w, http.StatusCreated, doc)
}

// DownloadDocument handles GET /api/documents/{id}/download
func (h *DocumentHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	p, ok := principal(w, r)
	if !ok {
		return
	}

	doc, rc, err := h.service.OpenDocument(ctx, p, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}
	defer rc.Close()

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	if doc.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(doc.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		// headers are gone, the client sees a truncated body
		log.Warn(ctx, "document stream interrupted", zap.String("document_id", doc.ID), zap.Error(err))
	}
}

// UpdateDocument handles PUT /api/documents/{id}
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req domain.UpdateDocumentRequest
	if !decode(w, r, log, &req) {
		return
	}

	doc, err := h.service.UpdateDocumentStatus(ctx, p, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /api/documents/{id}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteDocument(ctx, p, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, ctx, logger.GetLogger(ctx), err)
		return
	}
	writeMessage(w, http.StatusOK, "Document deleted")
}

func partContentType(hdr *multipart.FileHeader) string {
	if ct := hdr.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	if ct := mime.TypeByExtension(filepath.Ext(hdr.Filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
