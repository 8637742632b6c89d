// Package dashboard folds the caller's visible cases and tasks into the
// overview counters and the attention lists.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/access"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
)

// ClosingSoonWindow is how far ahead a deadline counts as closing soon.
const ClosingSoonWindow = 3 * 24 * time.Hour

// trendMonths is the number of calendar months in the monthly trend,
// the current one included.
const trendMonths = 5

type PriorityCount struct {
	Priority domain.Priority `json:"priority"`
	Count    int             `json:"count"`
}

type StatusCount struct {
	Status domain.CaseStatus `json:"status"`
	Count  int               `json:"count"`
}

type MonthCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type CategoryBreakdown struct {
	Category  string `json:"category"`
	Completed int    `json:"completed"`
	Overdue   int    `json:"overdue"`
}

type RiskBucket struct {
	Level string `json:"level"`
	Value int    `json:"value"`
}

// Overview is the payload of GET /api/dashboard/overview.
type Overview struct {
	TotalActiveCases       int                 `json:"totalActiveCases"`
	CasesClosingSoon       int                 `json:"casesClosingSoon"`
	OverdueTasks           int                 `json:"overdueTasks"`
	CasesByPriority        []PriorityCount     `json:"casesByPriority"`
	CaseStatusDistribution []StatusCount       `json:"caseStatusDistribution"`
	MonthlyTrend           []MonthCount        `json:"monthlyTrend"`
	TaskBreakdown          []CategoryBreakdown `json:"taskBreakdown"`
	RiskDistribution       []RiskBucket        `json:"riskDistribution"`
}

// Attention is the payload of GET /api/dashboard/attention.
type Attention struct {
	CasesClosingSoon      []domain.CaseView `json:"casesClosingSoon"`
	OverdueTasks          []domain.TaskView `json:"overdueTasks"`
	CasesMissingDocuments []domain.CaseView `json:"casesMissingDocuments"`
}

type Aggregator struct {
	cases     store.Cases
	tasks     store.Tasks
	documents store.Documents
	clients   store.Clients
	users     store.Users
	now       func() time.Time
	location  *time.Location
}

type Option func(*Aggregator)

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithLocation sets the timezone months are bucketed in.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.location = loc
		}
	}
}

func New(s store.Set, opts ...Option) *Aggregator {
	a := &Aggregator{
		cases:     s.Cases,
		tasks:     s.Tasks,
		documents: s.Documents,
		clients:   s.Clients,
		users:     s.Users,
		now:       time.Now,
		location:  time.UTC,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Overview computes the counters over the cases and tasks p can see.
func (a *Aggregator) Overview(ctx context.Context, p domain.Principal) (*Overview, error) {
	now := a.now()

	cases, err := a.cases.List(ctx, access.CaseScope(p), domain.ListCasesParams{}, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load cases: %w", err)
	}
	tasks, err := a.tasks.List(ctx, access.TaskScope(p), domain.ListTasksParams{})
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	out := &Overview{}
	priorities := make(map[domain.Priority]int)
	statuses := make(map[domain.CaseStatus]int)

	monthStart := time.Date(now.In(a.location).Year(), now.In(a.location).Month(), 1, 0, 0, 0, 0, a.location)
	trendStart := monthStart.AddDate(0, -(trendMonths - 1), 0)
	months := make(map[string]int)

	for i := range cases {
		c := &cases[i]
		priorities[c.Priority]++
		statuses[c.Status]++
		if c.Status.IsActive() {
			out.TotalActiveCases++
			if closingSoon(c, now) {
				out.CasesClosingSoon++
			}
		}
		if !c.CreatedAt.Before(trendStart) && !c.CreatedAt.After(now) {
			months[c.CreatedAt.In(a.location).Format("2006-01")]++
		}
	}

	categories := make(map[string]*CategoryBreakdown)
	for i := range tasks {
		t := &tasks[i]
		b, ok := categories[t.Category]
		if !ok {
			b = &CategoryBreakdown{Category: t.Category}
			categories[t.Category] = b
		}
		switch {
		case t.Status == domain.TaskStatusCompleted:
			b.Completed++
		case t.IsOverdue(now):
			b.Overdue++
			out.OverdueTasks++
		}
	}

	out.CasesByPriority = make([]PriorityCount, 0, len(priorities))
	for _, pr := range domain.AllPriorities {
		if n := priorities[pr]; n > 0 {
			out.CasesByPriority = append(out.CasesByPriority, PriorityCount{Priority: pr, Count: n})
		}
	}

	out.CaseStatusDistribution = make([]StatusCount, 0, len(statuses))
	for _, st := range domain.AllCaseStatuses {
		if n := statuses[st]; n > 0 {
			out.CaseStatusDistribution = append(out.CaseStatusDistribution, StatusCount{Status: st, Count: n})
		}
	}

	out.MonthlyTrend = make([]MonthCount, 0, len(months))
	for m := trendStart; !m.After(monthStart); m = m.AddDate(0, 1, 0) {
		key := m.Format("2006-01")
		if n := months[key]; n > 0 {
			out.MonthlyTrend = append(out.MonthlyTrend, MonthCount{Date: key, Count: n})
		}
	}

	out.TaskBreakdown = make([]CategoryBreakdown, 0, len(categories))
	for _, b := range categories {
		out.TaskBreakdown = append(out.TaskBreakdown, *b)
	}
	sort.Slice(out.TaskBreakdown, func(i, j int) bool {
		return out.TaskBreakdown[i].Category < out.TaskBreakdown[j].Category
	})

	out.RiskDistribution = []RiskBucket{
		{Level: "High Risk", Value: priorities[domain.PriorityHigh]},
		{Level: "Medium Risk", Value: priorities[domain.PriorityMedium]},
		{Level: "Low Risk", Value: priorities[domain.PriorityLow]},
	}
	return out, nil
}

// Attention lists what needs action now. The three lists load concurrently
// and any failure fails the whole call.
func (a *Aggregator) Attention(ctx context.Context, p domain.Principal) (*Attention, error) {
	now := a.now()
	out := &Attention{
		CasesClosingSoon:      []domain.CaseView{},
		OverdueTasks:          []domain.TaskView{},
		CasesMissingDocuments: []domain.CaseView{},
	}

	var (
		cases []domain.Case
		tasks []domain.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cases, err = a.cases.List(gctx, access.CaseScope(p), domain.ListCasesParams{}, 0)
		if err != nil {
			return fmt.Errorf("failed to load cases: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tasks, err = a.tasks.List(gctx, access.TaskScope(p), domain.ListTasksParams{})
		if err != nil {
			return fmt.Errorf("failed to load tasks: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	active := make([]domain.Case, 0, len(cases))
	activeIDs := make([]string, 0, len(cases))
	for _, c := range cases {
		if c.Status.IsActive() {
			active = append(active, c)
			activeIDs = append(activeIDs, c.ID)
		}
	}

	var overdue []domain.Task
	for _, t := range tasks {
		if t.IsOverdue(now) {
			overdue = append(overdue, t)
		}
	}

	counts, err := a.documents.CountByCase(ctx, activeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	var soon, missing []domain.Case
	for _, c := range active {
		if closingSoon(&c, now) {
			soon = append(soon, c)
		}
		if counts[c.ID] == 0 {
			missing = append(missing, c)
		}
	}

	refs, err := a.loadRefs(ctx, append(append([]domain.Case{}, soon...), missing...), overdue)
	if err != nil {
		return nil, err
	}

	for i := range soon {
		out.CasesClosingSoon = append(out.CasesClosingSoon, refs.caseView(&soon[i]))
	}
	for i := range missing {
		out.CasesMissingDocuments = append(out.CasesMissingDocuments, refs.caseView(&missing[i]))
	}
	for i := range overdue {
		out.OverdueTasks = append(out.OverdueTasks, refs.taskView(&overdue[i]))
	}
	return out, nil
}

func closingSoon(c *domain.Case, now time.Time) bool {
	return !c.Deadline.Before(now) && !c.Deadline.After(now.Add(ClosingSoonWindow))
}

type refs struct {
	clients map[string]*domain.Client
	users   map[string]*domain.User
	cases   map[string]*domain.Case
}

func (a *Aggregator) loadRefs(ctx context.Context, cases []domain.Case, tasks []domain.Task) (*refs, error) {
	clientIDs := make([]string, 0, len(cases))
	userIDs := make([]string, 0, len(cases)+len(tasks))
	caseIDs := make([]string, 0, len(tasks))
	for _, c := range cases {
		clientIDs = append(clientIDs, c.ClientID)
		userIDs = append(userIDs, c.AssignedAttorney)
	}
	for _, t := range tasks {
		userIDs = append(userIDs, t.AssignedTo)
		caseIDs = append(caseIDs, t.CaseID)
	}

	r := &refs{}
	var err error
	if r.clients, err = a.clients.GetMany(ctx, clientIDs); err != nil {
		return nil, fmt.Errorf("failed to load clients: %w", err)
	}
	if r.users, err = a.users.GetMany(ctx, userIDs); err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	if r.cases, err = a.cases.GetMany(ctx, caseIDs); err != nil {
		return nil, fmt.Errorf("failed to load task cases: %w", err)
	}
	return r, nil
}

func (r *refs) caseView(c *domain.Case) domain.CaseView {
	v := domain.CaseView{Case: c}
	if cl, ok := r.clients[c.ClientID]; ok {
		v.Client = cl.Ref()
	}
	if u, ok := r.users[c.AssignedAttorney]; ok {
		v.Attorney = u.Ref()
	}
	return v
}

func (r *refs) taskView(t *domain.Task) domain.TaskView {
	v := domain.TaskView{Task: t}
	if c, ok := r.cases[t.CaseID]; ok {
		v.Case = &domain.TaskCaseRef{
			ID:               c.ID,
			Title:            c.Title,
			AssignedAttorney: c.AssignedAttorney,
			Assistants:       c.Assistants,
		}
	}
	if u, ok := r.users[t.AssignedTo]; ok {
		v.Assignee = u.Ref()
	}
	return v
}
