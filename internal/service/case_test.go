package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/audit"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/summary"
)

func caseIDs(views []domain.CaseView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}

func TestListCases_RowFilterPerRole(t *testing.T) {
	f := newFixture(t)
	svc := f.cases()
	ctx := context.Background()

	tests := []struct {
		name string
		p    domain.Principal
		want []string
	}{
		{"admin sees all newest first", admin, []string{"c2", "c1"}},
		{"attorney sees assigned", ann, []string{"c1"}},
		{"other attorney", bea, []string{"c2"}},
		{"assistant sees listed", sam, []string{"c1"}},
		{"unlisted assistant sees nothing", tia, []string{}},
		{"unknown role sees nothing", domain.Principal{ID: "x", Role: "Paralegal"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, err := svc.ListCases(ctx, tt.p, domain.ListCasesParams{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, caseIDs(views))
		})
	}
}

func TestListCases_PopulatesReferences(t *testing.T) {
	f := newFixture(t)
	views, err := f.cases().ListCases(context.Background(), ann, domain.ListCasesParams{Search: strp("smith")})
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].Client)
	assert.Equal(t, "Acme Corp", views[0].Client.Name)
	require.NotNil(t, views[0].Attorney)
	assert.Equal(t, "Ann", views[0].Attorney.Name)
}

func TestGetCase_DetailWithSummary(t *testing.T) {
	f := newFixture(t)
	svc := NewCaseService(f.set, f.trail, summary.NewEngine([]string{"Retainer.pdf"}, nil), logger.NewNop())
	svc.clock = fixedClock

	detail, err := svc.GetCase(context.Background(), sam, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", detail.Case.ID)
	require.Len(t, detail.Case.AssistantUsers, 1)
	assert.Equal(t, "Sam", detail.Case.AssistantUsers[0].Name)
	require.Len(t, detail.Tasks, 1)
	assert.Equal(t, "Ann", detail.Tasks[0].Assignee.Name)
	assert.Empty(t, detail.Documents)

	assert.True(t, strings.HasPrefix(detail.Summary, "Case Summary:\nClient: Acme Corp\n"))
	assert.Contains(t, detail.Summary, "Open Tasks: 1\n")
	assert.Contains(t, detail.Summary, "Missing Documents: Retainer.pdf\n")
	assert.True(t, strings.HasSuffix(detail.Summary, "Risk Level: High"))
}

func TestGetCase_ForbiddenAndNotFound(t *testing.T) {
	f := newFixture(t)
	svc := f.cases()
	ctx := context.Background()

	_, err := svc.GetCase(ctx, bea, "c1")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetCase(ctx, admin, "missing")
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestCreateCase_AssignsCallerAndDefaults(t *testing.T) {
	f := newFixture(t)
	svc := f.cases()

	req := &domain.CreateCaseRequest{Title: "New matter", ClientID: "cl1", Deadline: domain.NewDate(now.Add(30 * 24 * time.Hour))}
	c, err := svc.CreateCase(context.Background(), bea, req)
	require.NoError(t, err)
	assert.Equal(t, bea.ID, c.AssignedAttorney)
	assert.Equal(t, domain.CaseStatusOpen, c.Status)
	assert.Equal(t, domain.PriorityMedium, c.Priority)
	assert.Equal(t, now, c.StartDate)
	assert.NotNil(t, c.Tags)

	entries := f.entries(t)
	require.Equal(t, 1, countAction(entries, domain.ActionCreate))
	assert.Equal(t, "New matter", entries[0].Metadata["title"])
	assert.Equal(t, "Bea", *entries[0].UserName)
}

func TestCreateCase_Rejections(t *testing.T) {
	f := newFixture(t)
	svc := f.cases()
	ctx := context.Background()
	req := &domain.CreateCaseRequest{Title: "X", ClientID: "cl1", Deadline: domain.NewDate(now)}

	_, err := svc.CreateCase(ctx, sam, req)
	assert.ErrorIs(t, err, ErrForbidden)

	bad := *req
	bad.ClientID = "nope"
	_, err = svc.CreateCase(ctx, ann, &bad)
	assert.ErrorIs(t, err, ErrInvalidClient)

	assert.Empty(t, f.entries(t))
}

func TestCreateCase_SucceedsWhenAuditStoreFails(t *testing.T) {
	f := newFixture(t)
	trail := audit.New(failingAudit{}, f.set.Users, f.set.Cases, logger.NewNop())
	svc := NewCaseService(f.set, trail, nil, logger.NewNop())

	req := &domain.CreateCaseRequest{Title: "Resilient", ClientID: "cl1", Deadline: domain.NewDate(now)}
	c, err := svc.CreateCase(context.Background(), ann, req)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, trail.Flush(ctx))

	stored, err := f.set.Cases.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Resilient", stored.Title)
}

func TestUpdateCase_OnlyAdminOrAssignedAttorney(t *testing.T) {
	f := newFixture(t)
	svc := f.cases()
	ctx := context.Background()
	req := &domain.UpdateCaseRequest{Status: func() *domain.CaseStatus { s := domain.CaseStatusClosed; return &s }()}

	_, err := svc.UpdateCase(ctx, bea, "c1", req)
	assert.ErrorIs(t, err, ErrForbidden)

	// listed assistants work on tasks but not on the case record
	_, err = svc.UpdateCase(ctx, sam, "c1", req)
	assert.ErrorIs(t, err, ErrForbidden)

	c, err := svc.UpdateCase(ctx, ann, "c1", req)
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusClosed, c.Status)
	assert.Equal(t, "Smith v. Jones", c.Title)

	_, err = svc.UpdateCase(ctx, admin, "c1", &domain.UpdateCaseRequest{ClientID: strp("ghost")})
	assert.ErrorIs(t, err, ErrInvalidClient)

	// the assigned attorney must be an existing Attorney
	_, err = svc.UpdateCase(ctx, ann, "c1", &domain.UpdateCaseRequest{AssignedAttorney: strp(sam.ID)})
	assert.ErrorIs(t, err, ErrNotAttorney)
	_, err = svc.UpdateCase(ctx, bea, "c2", &domain.UpdateCaseRequest{AssignedAttorney: strp("ghost-user")})
	assert.ErrorIs(t, err, ErrAttorneyNotFound)

	stored, err := f.set.Cases.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, ann.ID, stored.AssignedAttorney)
	stored, err = f.set.Cases.Get(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, bea.ID, stored.AssignedAttorney)

	assert.Equal(t, 1, countAction(f.entries(t), domain.ActionUpdate))
}

func TestUpdateCase_ReassignAttorney(t *testing.T) {
	f := newFixture(t)
	svc := f.cases()
	ctx := context.Background()

	// unchanged value skips the lookup
	_, err := svc.UpdateCase(ctx, ann, "c1", &domain.UpdateCaseRequest{AssignedAttorney: strp(ann.ID)})
	require.NoError(t, err)

	c, err := svc.UpdateCase(ctx, admin, "c1", &domain.UpdateCaseRequest{AssignedAttorney: strp(bea.ID)})
	require.NoError(t, err)
	assert.Equal(t, bea.ID, c.AssignedAttorney)

	_, err = svc.GetCase(ctx, ann, "c1")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeleteCase_DoesNotCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.set.Documents.Create(ctx, &domain.Document{ID: "d1", CaseID: "c2", Filename: "deed.pdf", Status: domain.DocumentStatusPending}))

	require.NoError(t, f.cases().DeleteCase(ctx, bea, "c2"))

	_, err := f.set.Cases.Get(ctx, "c2")
	assert.ErrorIs(t, err, ErrCaseNotFound)

	for _, id := range []string{"t2", "t3", "t4"} {
		_, err := f.set.Tasks.Get(ctx, id)
		assert.NoError(t, err, "task %s should survive", id)
	}
	_, err = f.set.Documents.Get(ctx, "d1")
	assert.NoError(t, err)

	assert.Equal(t, 1, countAction(f.entries(t), domain.ActionDelete))
}

func TestAddAssistant_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	svc := f.cases()
	ctx := context.Background()

	view, err := svc.AddAssistant(ctx, bea, "c2", tia.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{tia.ID}, view.Assistants)

	view, err = svc.AddAssistant(ctx, bea, "c2", tia.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{tia.ID}, view.Assistants)
	require.Len(t, view.AssistantUsers, 1)

	assert.Equal(t, 1, countAction(f.entries(t), domain.ActionAddAssistant))
}

func TestAddAssistant_Validation(t *testing.T) {
	f := newFixture(t)
	svc := f.cases()
	ctx := context.Background()

	_, err := svc.AddAssistant(ctx, bea, "c2", "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "assistantId")

	_, err = svc.AddAssistant(ctx, ann, "c2", tia.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, err, ErrManageAssistants)

	_, err = svc.AddAssistant(ctx, sam, "c1", tia.ID)
	assert.ErrorIs(t, err, ErrForbidden, "assistants never manage assistants")

	_, err = svc.AddAssistant(ctx, bea, "c2", "u-ghost")
	assert.ErrorIs(t, err, ErrAssistantNotFound)

	_, err = svc.AddAssistant(ctx, bea, "c2", ann.ID)
	assert.ErrorIs(t, err, ErrNotAssistant)

	_, err = svc.AddAssistant(ctx, admin, "missing", tia.ID)
	assert.ErrorIs(t, err, ErrCaseNotFound)

	assert.Empty(t, f.entries(t))
}

func TestRemoveAssistant(t *testing.T) {
	f := newFixture(t)
	svc := f.cases()
	ctx := context.Background()

	_, err := svc.RemoveAssistant(ctx, ann, "c1", tia.ID)
	assert.ErrorIs(t, err, ErrAssistantNotAssigned)

	view, err := svc.RemoveAssistant(ctx, ann, "c1", sam.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Assistants)

	assert.Equal(t, 1, countAction(f.entries(t), domain.ActionRemoveAssistant))
}
