package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/audit"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store/memory"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

var (
	admin = domain.Principal{ID: "u-admin", Name: "Ada", Role: domain.RoleAdmin}
	ann   = domain.Principal{ID: "u-ann", Name: "Ann", Role: domain.RoleAttorney}
	bea   = domain.Principal{ID: "u-bea", Name: "Bea", Role: domain.RoleAttorney}
	sam   = domain.Principal{ID: "u-sam", Name: "Sam", Role: domain.RoleAssistant}
	tia   = domain.Principal{ID: "u-tia", Name: "Tia", Role: domain.RoleAssistant}
)

func strp(s string) *string { return &s }

// fixture is a seeded in-memory firm:
//
//	c1 "Smith v. Jones"  attorney ann, assistants [sam]
//	c2 "Estate of Brown" attorney bea
//	t1 on c1 assigned ann; t2 on c2 assigned sam; t3 on c2 assigned bea;
//	t4 on c2 assigned ann
type fixture struct {
	db    *memory.DB
	set   store.Set
	trail *audit.Trail
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := memory.New()
	db.SetClock(fixedClock)

	for _, p := range []domain.Principal{admin, ann, bea, sam, tia} {
		require.NoError(t, db.Users().Create(ctx, &domain.User{
			ID: p.ID, Name: p.Name, Email: p.ID + "@firm.test", Role: p.Role, CreatedAt: now, UpdatedAt: now,
		}))
	}
	require.NoError(t, db.Clients().Create(ctx, &domain.Client{ID: "cl1", Name: "Acme Corp", CreatedBy: admin.ID, CreatedAt: now}))

	cases := []*domain.Case{
		{ID: "c1", Title: "Smith v. Jones", ClientID: "cl1", AssignedAttorney: ann.ID, Assistants: []string{sam.ID},
			Status: domain.CaseStatusOpen, Priority: domain.PriorityHigh, Deadline: now.Add(48 * time.Hour),
			Tags: []string{}, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "c2", Title: "Estate of Brown", ClientID: "cl1", AssignedAttorney: bea.ID, Assistants: []string{},
			Status: domain.CaseStatusPending, Priority: domain.PriorityLow, Deadline: now.Add(10 * 24 * time.Hour),
			Tags: []string{}, CreatedAt: now.Add(-time.Hour)},
	}
	for _, c := range cases {
		require.NoError(t, db.Cases().Create(ctx, c))
	}

	tasks := []*domain.Task{
		{ID: "t1", CaseID: "c1", Title: "File motion", Status: domain.TaskStatusOpen, DueDate: now.Add(24 * time.Hour), AssignedTo: ann.ID},
		{ID: "t2", CaseID: "c2", Title: "Collect records", Status: domain.TaskStatusOpen, DueDate: now.Add(48 * time.Hour), AssignedTo: sam.ID},
		{ID: "t3", CaseID: "c2", Title: "Draft will", Status: domain.TaskStatusInProgress, DueDate: now.Add(72 * time.Hour), AssignedTo: bea.ID},
		{ID: "t4", CaseID: "c2", Title: "Review deed", Status: domain.TaskStatusOpen, DueDate: now.Add(96 * time.Hour), AssignedTo: ann.ID},
	}
	for _, tk := range tasks {
		require.NoError(t, db.Tasks().Create(ctx, tk))
	}

	set := db.Set()
	return &fixture{
		db:    db,
		set:   set,
		trail: audit.New(set.Audit, set.Users, set.Cases, logger.NewNop(), audit.WithClock(fixedClock)),
	}
}

// entries flushes the trail and returns the stored audit log.
func (f *fixture) entries(t *testing.T) []domain.AuditEntry {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.trail.Flush(ctx))
	list, err := f.set.Audit.List(context.Background(), domain.AuditFilter{})
	require.NoError(t, err)
	return list
}

func countAction(entries []domain.AuditEntry, action string) int {
	n := 0
	for _, e := range entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

func (f *fixture) cases() *CaseService {
	s := NewCaseService(f.set, f.trail, nil, logger.NewNop())
	s.clock = fixedClock
	return s
}

func (f *fixture) tasks() *TaskService {
	s := NewTaskService(f.set, f.trail, logger.NewNop())
	s.clock = fixedClock
	return s
}

type failingAudit struct{}

func (failingAudit) Append(context.Context, *domain.AuditEntry) error {
	return context.DeadlineExceeded
}

func (failingAudit) List(context.Context, domain.AuditFilter) ([]domain.AuditEntry, error) {
	return nil, context.DeadlineExceeded
}
