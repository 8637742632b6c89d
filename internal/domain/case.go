package domain

import (
	"database/sql/driver"
	"slices"
	"strings"
	"time"
)

// CaseStatus representa o estado de um caso.
type CaseStatus string

const (
	CaseStatusOpen    CaseStatus = "Open"
	CaseStatusPending CaseStatus = "Pending"
	CaseStatusClosed  CaseStatus = "Closed"
)

func (s CaseStatus) IsValid() bool {
	switch s {
	case CaseStatusOpen, CaseStatusPending, CaseStatusClosed:
		return true
	}
	return false
}

// IsActive reports whether the case is still being worked (Open or Pending).
func (s CaseStatus) IsActive() bool {
	return s == CaseStatusOpen || s == CaseStatusPending
}

func (s *CaseStatus) Scan(src interface{}) error {
	return scanEnum(s, src, CaseStatusOpen, "CaseStatus")
}

func (s CaseStatus) Value() (driver.Value, error) {
	return enumValue(s, "CaseStatus")
}

// AllCaseStatuses lists statuses in display order.
var AllCaseStatuses = []CaseStatus{CaseStatusOpen, CaseStatusPending, CaseStatusClosed}

// Priority representa a prioridade de um caso.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func (p *Priority) Scan(src interface{}) error {
	return scanEnum(p, src, PriorityMedium, "Priority")
}

func (p Priority) Value() (driver.Value, error) {
	return enumValue(p, "Priority")
}

// AllPriorities lists priorities from most to least urgent.
var AllPriorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Case is a legal matter. Tasks and documents inherit its visibility.
type Case struct {
	ID               string     `json:"id" db:"id"`
	Title            string     `json:"title" db:"title"`
	Description      *string    `json:"description,omitempty" db:"description"`
	ClientID         string     `json:"clientId" db:"client_id"`
	AssignedAttorney string     `json:"assignedAttorney" db:"assigned_attorney"`
	Assistants       []string   `json:"assistants" db:"assistants"`
	Status           CaseStatus `json:"status" db:"status"`
	Priority         Priority   `json:"priority" db:"priority"`
	StartDate        time.Time  `json:"startDate" db:"start_date"`
	Deadline         time.Time  `json:"deadline" db:"deadline"`
	Tags             []string   `json:"tags" db:"tags"`
	CreatedBy        string     `json:"createdBy" db:"created_by"`
	CreatedAt        time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time  `json:"updatedAt" db:"updated_at"`
}

// HasAssistant reports whether userID is listed on the case.
func (c *Case) HasAssistant(userID string) bool {
	return slices.Contains(c.Assistants, userID)
}

// Clone returns a deep copy safe to mutate.
func (c *Case) Clone() *Case {
	cp := *c
	cp.Assistants = slices.Clone(c.Assistants)
	cp.Tags = slices.Clone(c.Tags)
	if c.Description != nil {
		d := *c.Description
		cp.Description = &d
	}
	return &cp
}

// CaseView is a case with its references populated for display.
type CaseView struct {
	*Case
	Client         *ClientRef `json:"client,omitempty"`
	Attorney       *UserRef   `json:"attorney,omitempty"`
	AssistantUsers []UserRef  `json:"assistantUsers,omitempty"`
}

// CaseDetail is the full case page: the case, its tasks, documents and a summary.
type CaseDetail struct {
	Case      *CaseView  `json:"case"`
	Tasks     []TaskView `json:"tasks"`
	Documents []Document `json:"documents"`
	Summary   string     `json:"summary"`
}

// CreateCaseRequest DTO para criação de caso.
// assignedAttorney é sempre o usuário autenticado.
type CreateCaseRequest struct {
	Title       string      `json:"title" validate:"required,max=500"`
	Description *string     `json:"description,omitempty" validate:"omitempty,max=10000"`
	ClientID    string      `json:"clientId" validate:"required"`
	Status      *CaseStatus `json:"status,omitempty" validate:"omitempty,enum"`
	Priority    *Priority   `json:"priority,omitempty" validate:"omitempty,enum"`
	StartDate   *Date       `json:"startDate,omitempty"`
	Deadline    *Date       `json:"deadline" validate:"required"`
	Tags        []string    `json:"tags,omitempty" validate:"omitempty,max=50,dive,min=1,max=100"`
}

func (r *CreateCaseRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = trimPtr(r.Description)
	r.ClientID = strings.TrimSpace(r.ClientID)
	r.Tags = normalizeTags(r.Tags)
	return validate.Struct(r)
}

// UpdateCaseRequest DTO para atualização parcial (nil = não modificar).
type UpdateCaseRequest struct {
	Title            *string     `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Description      *string     `json:"description,omitempty" validate:"omitempty,max=10000"`
	ClientID         *string     `json:"clientId,omitempty" validate:"omitempty,min=1"`
	AssignedAttorney *string     `json:"assignedAttorney,omitempty" validate:"omitempty,min=1"`
	Status           *CaseStatus `json:"status,omitempty" validate:"omitempty,enum"`
	Priority         *Priority   `json:"priority,omitempty" validate:"omitempty,enum"`
	StartDate        *Date       `json:"startDate,omitempty"`
	Deadline         *Date       `json:"deadline,omitempty"`
	Tags             *[]string   `json:"tags,omitempty" validate:"omitempty,max=50,dive,min=1,max=100"`
}

func (r *UpdateCaseRequest) Validate() error {
	r.Title = trimPtr(r.Title)
	r.Description = trimPtr(r.Description)
	r.ClientID = trimPtr(r.ClientID)
	r.AssignedAttorney = trimPtr(r.AssignedAttorney)
	if r.Tags != nil {
		tags := normalizeTags(*r.Tags)
		r.Tags = &tags
	}
	return validate.Struct(r)
}

// AddAssistantRequest body of POST /cases/{id}/add-assistant.
type AddAssistantRequest struct {
	AssistantID string `json:"assistantId"`
}

// ListCasesParams filtros de listagem. Search matches the title.
type ListCasesParams struct {
	Search   *string
	Status   *CaseStatus
	Priority *Priority
}

func (p *ListCasesParams) Normalize() {
	if p.Search != nil {
		q := strings.TrimSpace(*p.Search)
		if q == "" {
			p.Search = nil
		} else {
			p.Search = &q
		}
	}
}

func normalizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, strings.TrimSpace(t))
	}
	return out
}
