// Package access decides which cases, tasks and documents a principal can see
// and which cases it can modify.
package access

import (
	"errors"
	"slices"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
)

// ErrForbidden is returned when a principal may not act on a case.
var ErrForbidden = errors.New("forbidden: not your case")

// Scope describes a row filter over cases. Stores translate it into their own
// query language; Matches evaluates it in memory.
//
// The zero value matches nothing.
type Scope struct {
	// All disables filtering.
	All bool
	// AttorneyID restricts to cases whose assignedAttorney equals it.
	AttorneyID string
	// AssistantID restricts to cases whose assistants contain it.
	AssistantID string
	// AssigneeID widens a task scope to tasks assigned to it, regardless of case.
	AssigneeID string
}

// None reports whether the scope can never match.
func (s Scope) None() bool {
	return !s.All && s.AttorneyID == "" && s.AssistantID == "" && s.AssigneeID == ""
}

// MatchesCase evaluates the case part of the scope.
func (s Scope) MatchesCase(c *domain.Case) bool {
	if c == nil {
		return false
	}
	if s.All {
		return true
	}
	if s.AttorneyID != "" && c.AssignedAttorney == s.AttorneyID {
		return true
	}
	if s.AssistantID != "" && slices.Contains(c.Assistants, s.AssistantID) {
		return true
	}
	return false
}

// MatchesTask evaluates the scope on a task and its parent case. parent may be
// nil when the case no longer exists; such tasks are only visible to Admin or
// through the assignee clause.
func (s Scope) MatchesTask(t *domain.Task, parent *domain.Case) bool {
	if t == nil {
		return false
	}
	if s.All {
		return true
	}
	if s.AssigneeID != "" && t.AssignedTo == s.AssigneeID {
		return true
	}
	return s.MatchesCase(parent)
}

// CaseScope returns the case filter for p.
func CaseScope(p domain.Principal) Scope {
	switch p.Role {
	case domain.RoleAdmin:
		return Scope{All: true}
	case domain.RoleAttorney:
		return Scope{AttorneyID: p.ID}
	case domain.RoleAssistant:
		return Scope{AssistantID: p.ID}
	default:
		return Scope{}
	}
}

// TaskScope returns the task filter for p. Assistants additionally see tasks
// assigned to them on cases they are not listed on; Attorneys do not.
func TaskScope(p domain.Principal) Scope {
	s := CaseScope(p)
	if p.Role == domain.RoleAssistant {
		s.AssigneeID = p.ID
	}
	return s
}

// DocumentScope returns the document filter for p, resolved via the parent case.
func DocumentScope(p domain.Principal) Scope {
	return CaseScope(p)
}

// CanReadCase reports whether p can see c.
func CanReadCase(p domain.Principal, c *domain.Case) bool {
	return CaseScope(p).MatchesCase(c)
}

// CanReadTask reports whether p can see t, whose parent case is parent.
func CanReadTask(p domain.Principal, t *domain.Task, parent *domain.Case) bool {
	return TaskScope(p).MatchesTask(t, parent)
}

// CanReadDocument reports whether p can see a document of the given case.
func CanReadDocument(p domain.Principal, parent *domain.Case) bool {
	return DocumentScope(p).MatchesCase(parent)
}

// CanWrite returns nil when p may modify c or its tasks and documents.
func CanWrite(p domain.Principal, c *domain.Case) error {
	if c == nil {
		return ErrForbidden
	}
	switch p.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleAttorney:
		if c.AssignedAttorney == p.ID {
			return nil
		}
	case domain.RoleAssistant:
		if c.HasAssistant(p.ID) {
			return nil
		}
	}
	return ErrForbidden
}

// CanManageAssistants returns nil when p may change the assistants of c.
// Assistants never can, even when listed.
func CanManageAssistants(p domain.Principal, c *domain.Case) error {
	if c == nil {
		return ErrForbidden
	}
	if p.Role == domain.RoleAdmin || (p.Role == domain.RoleAttorney && c.AssignedAttorney == p.ID) {
		return nil
	}
	return ErrForbidden
}

// CanWriteClients reports whether p may create, update or delete clients.
func CanWriteClients(p domain.Principal) bool {
	return p.Role == domain.RoleAdmin || p.Role == domain.RoleAttorney
}

// CanCreateCases reports whether p may open new cases.
func CanCreateCases(p domain.Principal) bool {
	return p.Role == domain.RoleAdmin || p.Role == domain.RoleAttorney
}

// CanManageUsers reports whether p may administer accounts.
func CanManageUsers(p domain.Principal) bool {
	return p.Role == domain.RoleAdmin
}

// CanExportAudit reports whether p may export any audit entries at all.
func CanExportAudit(p domain.Principal) bool {
	return p.Role == domain.RoleAdmin || p.Role == domain.RoleAttorney
}
