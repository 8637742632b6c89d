package domain

import (
	"database/sql/driver"
	"strings"
	"time"
)

// TaskStatus representa o estado de uma tarefa.
type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "Open"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusCompleted  TaskStatus = "Completed"
	TaskStatusOverdue    TaskStatus = "Overdue"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusOpen, TaskStatusInProgress, TaskStatusCompleted, TaskStatusOverdue:
		return true
	}
	return false
}

func (s *TaskStatus) Scan(src interface{}) error {
	return scanEnum(s, src, TaskStatusOpen, "TaskStatus")
}

func (s TaskStatus) Value() (driver.Value, error) {
	return enumValue(s, "TaskStatus")
}

// Task belongs to a case. Visibility follows the parent case, plus the assignee.
type Task struct {
	ID         string     `json:"id" db:"id"`
	CaseID     string     `json:"caseId" db:"case_id"`
	Title      string     `json:"title" db:"title"`
	Status     TaskStatus `json:"status" db:"status"`
	DueDate    time.Time  `json:"dueDate" db:"due_date"`
	AssignedTo string     `json:"assignedTo" db:"assigned_to"`
	Category   string     `json:"category,omitempty" db:"category"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
}

// IsOverdue reports whether the task is past due and not completed.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status != TaskStatusCompleted && t.DueDate.Before(now)
}

// ApplyOverdue moves a past-due, non-completed task to Overdue.
func (t *Task) ApplyOverdue(now time.Time) {
	if t.IsOverdue(now) {
		t.Status = TaskStatusOverdue
	}
}

// TaskCaseRef is the parent case as shown next to a task.
type TaskCaseRef struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	AssignedAttorney string   `json:"assignedAttorney"`
	Assistants       []string `json:"assistants"`
}

// TaskView is a task with its case and assignee populated.
type TaskView struct {
	*Task
	Case     *TaskCaseRef `json:"case,omitempty"`
	Assignee *UserRef     `json:"assignee,omitempty"`
}

type CreateTaskRequest struct {
	CaseID     string      `json:"caseId" validate:"required"`
	Title      string      `json:"title" validate:"required,max=500"`
	Status     *TaskStatus `json:"status,omitempty" validate:"omitempty,enum"`
	DueDate    *Date       `json:"dueDate" validate:"required"`
	AssignedTo string      `json:"assignedTo" validate:"required"`
	Category   string      `json:"category,omitempty" validate:"omitempty,max=100"`
}

func (r *CreateTaskRequest) Validate() error {
	r.CaseID = strings.TrimSpace(r.CaseID)
	r.Title = strings.TrimSpace(r.Title)
	r.AssignedTo = strings.TrimSpace(r.AssignedTo)
	r.Category = strings.TrimSpace(r.Category)
	return validate.Struct(r)
}

// UpdateTaskRequest DTO para atualização parcial. The parent case cannot change.
type UpdateTaskRequest struct {
	Title      *string     `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Status     *TaskStatus `json:"status,omitempty" validate:"omitempty,enum"`
	DueDate    *Date       `json:"dueDate,omitempty"`
	AssignedTo *string     `json:"assignedTo,omitempty" validate:"omitempty,min=1"`
	Category   *string     `json:"category,omitempty" validate:"omitempty,max=100"`
}

func (r *UpdateTaskRequest) Validate() error {
	r.Title = trimPtr(r.Title)
	r.AssignedTo = trimPtr(r.AssignedTo)
	r.Category = trimPtr(r.Category)
	return validate.Struct(r)
}

type ListTasksParams struct {
	CaseID *string
	Status *TaskStatus
}
