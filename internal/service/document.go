package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/access"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/audit"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/blob"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/ids"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
)

// DefaultMaxUploadBytes caps a single upload at 20 MiB.
const DefaultMaxUploadBytes int64 = 20 << 20

// Upload is a file received for a case.
type Upload struct {
	CaseID      string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadObserver is told the size of every stored upload.
type UploadObserver interface {
	ObserveUpload(n int64)
}

type DocumentService struct {
	docs     store.Documents
	cases    store.Cases
	blobs    blob.Store
	audit    Recorder
	log      *logger.Logger
	maxBytes int64
	observer UploadObserver
	clock    clock
}

func NewDocumentService(s store.Set, blobs blob.Store, rec Recorder, log *logger.Logger, maxBytes int64) *DocumentService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &DocumentService{
		docs:     s.Documents,
		cases:    s.Cases,
		blobs:    blobs,
		audit:    rec,
		log:      log,
		maxBytes: maxBytes,
	}
}

// WithUploadObserver reports stored upload sizes to o.
func (s *DocumentService) WithUploadObserver(o UploadObserver) *DocumentService {
	s.observer = o
	return s
}

// MaxUploadBytes is the largest accepted file.
func (s *DocumentService) MaxUploadBytes() int64 { return s.maxBytes }

// ListDocuments returns the documents whose case p can see, newest first.
func (s *DocumentService) ListDocuments(ctx context.Context, p domain.Principal, params domain.ListDocumentsParams) ([]domain.Document, error) {
	docs, err := s.docs.List(ctx, access.DocumentScope(p), params)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// UploadDocument stores the bytes and then the row. The blob is removed again
// if the row cannot be written.
func (s *DocumentService) UploadDocument(ctx context.Context, p domain.Principal, in Upload) (*domain.Document, error) {
	in.CaseID = strings.TrimSpace(in.CaseID)
	if in.CaseID == "" {
		return nil, invalid("Case is required", "caseId", "is required")
	}
	if in.Body == nil || in.Filename == "" {
		return nil, ErrFileRequired
	}
	if in.Size > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	parent, err := s.cases.Get(ctx, in.CaseID)
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	if err := access.CanWrite(p, parent); err != nil {
		logDenied(ctx, s.log, "document", "upload", p, parent.ID)
		return nil, err
	}

	ref, err := s.blobs.Put(ctx, blob.Object{Filename: in.Filename, ContentType: in.ContentType, Size: in.Size}, in.Body)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	now := s.clock.now()
	doc := &domain.Document{
		ID:          ids.NewAt(now),
		CaseID:      parent.ID,
		Filename:    in.Filename,
		FileURL:     ref,
		ContentType: in.ContentType,
		Size:        in.Size,
		Status:      domain.DocumentStatusPending,
		UploadedBy:  p.ID,
		UploadedAt:  now,
		UpdatedAt:   now,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		s.removeBlob(ctx, ref)
		return nil, fmt.Errorf("create document: %w", err)
	}
	if s.observer != nil {
		s.observer.ObserveUpload(in.Size)
	}

	s.audit.Record(ctx, audit.Event{
		ActorID:  p.ID,
		Action:   domain.ActionDocumentUpload,
		Entity:   domain.EntityDocument,
		EntityID: doc.ID,
		Metadata: map[string]interface{}{"caseId": doc.CaseID, "filename": doc.Filename},
	})
	return doc, nil
}

// OpenDocument returns the document and a reader over its bytes. The caller
// closes the reader.
func (s *DocumentService) OpenDocument(ctx context.Context, p domain.Principal, id string) (*domain.Document, io.ReadCloser, error) {
	doc, err := s.readableDocument(ctx, p, id, "download")
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(ctx, doc.FileURL)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, nil, ErrDocumentNotFound
		}
		return nil, nil, fmt.Errorf("open document: %w", err)
	}
	return doc, rc, nil
}

// UpdateDocumentStatus is allowed for anyone who can read the document.
func (s *DocumentService) UpdateDocumentStatus(ctx context.Context, p domain.Principal, id string, req *domain.UpdateDocumentRequest) (*domain.Document, error) {
	if _, err := s.readableDocument(ctx, p, id, "update"); err != nil {
		return nil, err
	}
	doc, err := s.docs.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	s.audit.Record(ctx, audit.Event{
		ActorID:  p.ID,
		Action:   domain.ActionUpdate,
		Entity:   domain.EntityDocument,
		EntityID: doc.ID,
		Metadata: map[string]interface{}{"caseId": doc.CaseID, "status": string(doc.Status)},
	})
	return doc, nil
}

// DeleteDocument requires write permission on the parent case. When that case
// no longer exists only an Admin may delete. Blob removal is best effort.
func (s *DocumentService) DeleteDocument(ctx context.Context, p domain.Principal, id string) error {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}
	parent, err := s.cases.Get(ctx, doc.CaseID)
	switch {
	case err == nil:
		if err := access.CanWrite(p, parent); err != nil {
			logDenied(ctx, s.log, "document", "delete", p, id)
			return err
		}
	case errors.Is(err, store.ErrCaseNotFound):
		if !p.IsAdmin() {
			logDenied(ctx, s.log, "document", "delete", p, id)
			return ErrForbidden
		}
	default:
		return fmt.Errorf("get case: %w", err)
	}

	if err := s.docs.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	s.removeBlob(ctx, doc.FileURL)

	s.audit.Record(ctx, audit.Event{
		ActorID:  p.ID,
		Action:   domain.ActionDelete,
		Entity:   domain.EntityDocument,
		EntityID: doc.ID,
		Metadata: map[string]interface{}{"caseId": doc.CaseID, "filename": doc.Filename},
	})
	return nil
}

func (s *DocumentService) readableDocument(ctx context.Context, p domain.Principal, id, action string) (*domain.Document, error) {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	var parent *domain.Case
	if c, err := s.cases.Get(ctx, doc.CaseID); err == nil {
		parent = c
	} else if !errors.Is(err, store.ErrCaseNotFound) {
		return nil, fmt.Errorf("get case: %w", err)
	}

	// documents of a deleted case stay readable for Admin only
	if !access.CanReadDocument(p, parent) && !(parent == nil && p.IsAdmin()) {
		logDenied(ctx, s.log, "document", action, p, id)
		return nil, ErrForbidden
	}
	return doc, nil
}

func (s *DocumentService) removeBlob(ctx context.Context, ref string) {
	if err := s.blobs.Delete(ctx, ref); err != nil {
		s.log.Warn(ctx, "failed to delete document blob",
			logger.Module("document"),
			logger.Action("delete_blob"),
			zap.String("ref", ref),
			zap.Error(err),
		)
	}
}
