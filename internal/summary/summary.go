// Package summary derives the textual case summary and the deadline risk level.
package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
)

// RiskLevel classifies how close a case is to its deadline.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "High"
	RiskMedium RiskLevel = "Medium"
	RiskLow    RiskLevel = "Low"
)

const (
	highRiskDays   = 3.0
	mediumRiskDays = 7.0
)

// DeadlineLayout matches the human date rendering used in summaries ("Tue Mar 05 2024").
const DeadlineLayout = "Mon Jan 02 2006"

// Risk returns the risk level for a deadline relative to now. The remaining
// time is measured in fractional days, so past deadlines are High.
func Risk(deadline *time.Time, now time.Time) RiskLevel {
	if deadline == nil || deadline.IsZero() {
		return RiskLow
	}
	days := deadline.Sub(now).Hours() / 24
	switch {
	case days < highRiskDays:
		return RiskHigh
	case days < mediumRiskDays:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Input is everything a summary is computed from.
type Input struct {
	ClientName *string
	Status     domain.CaseStatus
	Priority   domain.Priority
	Deadline   *time.Time
	// OpenTasks counts tasks whose status is not Completed.
	OpenTasks        int
	MissingDocuments []string
}

// Engine renders summaries. Required lists the document filenames every
// case is expected to carry; Location is used to render the deadline date.
type Engine struct {
	Required []string
	Location *time.Location
}

func NewEngine(required []string, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{Required: required, Location: loc}
}

// Summarize renders the fixed-format summary text.
func (e *Engine) Summarize(in Input, now time.Time) string {
	client := "N/A"
	if in.ClientName != nil {
		client = *in.ClientName
	}

	deadline := "N/A"
	if in.Deadline != nil && !in.Deadline.IsZero() {
		deadline = in.Deadline.In(e.location()).Format(DeadlineLayout)
	}

	missing := "None"
	if len(in.MissingDocuments) > 0 {
		missing = strings.Join(in.MissingDocuments, ", ")
	}

	var b strings.Builder
	b.WriteString("Case Summary:\n")
	fmt.Fprintf(&b, "Client: %s\n", client)
	fmt.Fprintf(&b, "Status: %s\n", in.Status)
	fmt.Fprintf(&b, "Priority: %s\n", in.Priority)
	fmt.Fprintf(&b, "Deadline: %s\n", deadline)
	fmt.Fprintf(&b, "Open Tasks: %d\n", in.OpenTasks)
	fmt.Fprintf(&b, "Missing Documents: %s\n", missing)
	fmt.Fprintf(&b, "Risk Level: %s", Risk(in.Deadline, now))
	return b.String()
}

// ForCase builds the summary for a case from its tasks and documents.
func (e *Engine) ForCase(c *domain.Case, client *domain.Client, tasks []domain.Task, docs []domain.Document, now time.Time) string {
	in := Input{
		Status:           c.Status,
		Priority:         c.Priority,
		OpenTasks:        CountOpen(tasks),
		MissingDocuments: MissingDocuments(e.Required, docs),
	}
	if client != nil {
		name := client.Name
		in.ClientName = &name
	}
	if !c.Deadline.IsZero() {
		d := c.Deadline
		in.Deadline = &d
	}
	return e.Summarize(in, now)
}

// MissingDocuments returns the required names with no document of that filename.
func MissingDocuments(required []string, docs []domain.Document) []string {
	have := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		have[d.Filename] = struct{}{}
	}
	var missing []string
	for _, name := range required {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// CountOpen counts tasks that are not Completed.
func CountOpen(tasks []domain.Task) int {
	n := 0
	for _, t := range tasks {
		if t.Status != domain.TaskStatusCompleted {
			n++
		}
	}
	return n
}

func (e *Engine) location() *time.Location {
	if e.Location == nil {
		return time.UTC
	}
	return e.Location
}
