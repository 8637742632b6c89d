package domain

import (
	"fmt"
	"time"
)

// Audit entity names.
const (
	EntityCase     = "Case"
	EntityClient   = "Client"
	EntityTask     = "Task"
	EntityDocument = "Document"
	EntityUser     = "User"
)

// Audit actions.
const (
	ActionCreate          = "create"
	ActionUpdate          = "update"
	ActionDelete          = "delete"
	ActionLogin           = "login"
	ActionRegister        = "register"
	ActionDocumentUpload  = "document_upload"
	ActionAddAssistant    = "add_assistant"
	ActionRemoveAssistant = "remove_assistant"
)

// AuditEntry is an append-only record of a mutation. UserName and Role are
// snapshots taken when the entry was written.
type AuditEntry struct {
	ID        string                 `json:"id" db:"id"`
	UserID    *string                `json:"userId,omitempty" db:"user_id"`
	UserName  *string                `json:"userName,omitempty" db:"user_name"`
	Role      *string                `json:"role,omitempty" db:"role"`
	Action    string                 `json:"action" db:"action"`
	Entity    string                 `json:"entity" db:"entity"`
	EntityID  string                 `json:"entityId" db:"entity_id"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
}

// CaseRef returns the case the entry is traceable to: the entity itself for
// Case entries, metadata.caseId for Task and Document entries.
func (e *AuditEntry) CaseRef() (string, bool) {
	switch e.Entity {
	case EntityCase:
		return e.EntityID, e.EntityID != ""
	case EntityTask, EntityDocument:
		return e.MetadataCaseID()
	}
	return "", false
}

// MetadataCaseID returns metadata.caseId as a string when present.
func (e *AuditEntry) MetadataCaseID() (string, bool) {
	if e.Metadata == nil {
		return "", false
	}
	switch v := e.Metadata["caseId"].(type) {
	case string:
		return v, v != ""
	case nil:
		return "", false
	default:
		return fmt.Sprint(v), true
	}
}

// AuditFilter selects entries for export. A nil CaseIDs means unrestricted;
// an empty non-nil slice matches nothing.
type AuditFilter struct {
	From    *time.Time
	To      *time.Time
	CaseIDs []string
}

// SearchResult is one hit from the global search.
type SearchResult struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Search result types.
const (
	SearchTypeCase     = "case"
	SearchTypeClient   = "client"
	SearchTypeDocument = "document"
)
