package domain

import (
	"database/sql/driver"
	"time"
)

// DocumentStatus representa o estado de revisão de um documento.
type DocumentStatus string

const (
	DocumentStatusPending     DocumentStatus = "Pending"
	DocumentStatusUnderReview DocumentStatus = "Under Review"
	DocumentStatusReviewed    DocumentStatus = "Reviewed"
)

func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusPending, DocumentStatusUnderReview, DocumentStatusReviewed:
		return true
	}
	return false
}

func (s *DocumentStatus) Scan(src interface{}) error {
	return scanEnum(s, src, DocumentStatusPending, "DocumentStatus")
}

func (s DocumentStatus) Value() (driver.Value, error) {
	return enumValue(s, "DocumentStatus")
}

// Document is an uploaded file attached to a case. FileURL is the blob reference.
type Document struct {
	ID          string         `json:"id" db:"id"`
	CaseID      string         `json:"caseId" db:"case_id"`
	Filename    string         `json:"filename" db:"filename"`
	FileURL     string         `json:"fileUrl" db:"file_url"`
	ContentType string         `json:"contentType,omitempty" db:"content_type"`
	Size        int64          `json:"size" db:"size"`
	Status      DocumentStatus `json:"status" db:"status"`
	UploadedBy  string         `json:"uploadedBy" db:"uploaded_by"`
	UploadedAt  time.Time      `json:"uploadedAt" db:"uploaded_at"`
	UpdatedAt   time.Time      `json:"updatedAt" db:"updated_at"`
}

type UpdateDocumentRequest struct {
	Status DocumentStatus `json:"status" validate:"required,enum"`
}

func (r *UpdateDocumentRequest) Validate() error {
	return validate.Struct(r)
}

type ListDocumentsParams struct {
	CaseID *string
}
