package summary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func days(n float64) *time.Time {
	t := now.Add(time.Duration(n * 24 * float64(time.Hour)))
	return &t
}

func TestRisk_Boundaries(t *testing.T) {
	tests := []struct {
		name     string
		deadline *time.Time
		want     RiskLevel
	}{
		{"nil deadline", nil, RiskLow},
		{"past deadline", days(-1), RiskHigh},
		{"2 days", days(2), RiskHigh},
		{"just under 3 days", days(2.99), RiskHigh},
		{"exactly 3 days", days(3), RiskMedium},
		{"5 days", days(5), RiskMedium},
		{"exactly 7 days", days(7), RiskLow},
		{"10 days", days(10), RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Risk(tt.deadline, now))
		})
	}
}

func TestSummarize_FullFormat(t *testing.T) {
	e := NewEngine(nil, time.UTC)
	client := "Acme Corp"

	got := e.Summarize(Input{
		ClientName:       &client,
		Status:           domain.CaseStatusOpen,
		Priority:         domain.PriorityHigh,
		Deadline:         days(2),
		OpenTasks:        4,
		MissingDocuments: []string{"Retainer.pdf", "ID.pdf"},
	}, now)

	want := "Case Summary:\n" +
		"Client: Acme Corp\n" +
		"Status: Open\n" +
		"Priority: High\n" +
		"Deadline: Sun Mar 03 2024\n" +
		"Open Tasks: 4\n" +
		"Missing Documents: Retainer.pdf, ID.pdf\n" +
		"Risk Level: High"
	assert.Equal(t, want, got)
}

func TestSummarize_Defaults(t *testing.T) {
	e := NewEngine(nil, nil)

	got := e.Summarize(Input{Status: domain.CaseStatusClosed, Priority: domain.PriorityLow}, now)

	assert.Contains(t, got, "Client: N/A\n")
	assert.Contains(t, got, "Deadline: N/A\n")
	assert.Contains(t, got, "Open Tasks: 0\n")
	assert.Contains(t, got, "Missing Documents: None\n")
	assert.Contains(t, got, "Risk Level: Low")
}

func TestForCase_CountsOpenTasksAndMissingDocuments(t *testing.T) {
	e := NewEngine([]string{"Retainer.pdf", "Engagement.pdf"}, time.UTC)
	c := &domain.Case{Status: domain.CaseStatusPending, Priority: domain.PriorityMedium, Deadline: *days(10)}
	tasks := []domain.Task{
		{Status: domain.TaskStatusOpen},
		{Status: domain.TaskStatusOverdue},
		{Status: domain.TaskStatusCompleted},
	}
	docs := []domain.Document{{Filename: "Retainer.pdf"}}

	got := e.ForCase(c, &domain.Client{Name: "Globex"}, tasks, docs, now)

	assert.Contains(t, got, "Client: Globex\n")
	assert.Contains(t, got, "Open Tasks: 2\n")
	assert.Contains(t, got, "Missing Documents: Engagement.pdf\n")
	assert.Contains(t, got, "Deadline: Mon Mar 11 2024\n")
	assert.Contains(t, got, "Risk Level: Low")
}

func TestMissingDocuments_EmptyRequired(t *testing.T) {
	assert.Empty(t, MissingDocuments(nil, []domain.Document{{Filename: "x"}}))
}
