package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/access"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/config"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/ids"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a demo dataset for the dashboard",
	Long: `Create demo clients, cases and tasks assigned to an existing attorney so
the dashboard charts have data. Cases are spread over the last five months.`,
	RunE: runSeed,
}

var seedFlags seedOptions

func init() {
	seedCmd.Flags().StringVar(&seedFlags.AttorneyEmail, "attorney-email", "", "email of the existing attorney the cases are assigned to (required)")
	seedCmd.Flags().IntVar(&seedFlags.Cases, "cases", 40, "number of demo cases")
	seedCmd.Flags().IntVar(&seedFlags.Tasks, "tasks", 30, "number of demo tasks")
	seedCmd.Flags().Uint64Var(&seedFlags.Seed, "seed", 0, "random seed; 0 uses the current time")
	_ = seedCmd.MarkFlagRequired("attorney-email")
	rootCmd.AddCommand(seedCmd)
}

type seedOptions struct {
	AttorneyEmail string
	Cases         int
	Tasks         int
	Seed          uint64
}

type seedResult struct {
	Clients int
	Cases   int
	Tasks   int
}

var (
	errSeedAttorneyNotFound = errors.New("attorney account not found")
	errSeedNotAttorney      = errors.New("account is not an Admin or Attorney")
)

var taskCategories = []string{"Litigation", "Corporate", "Compliance"}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(cfg.OTELServiceName, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	set, pool, err := openStore(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	res, err := seedDemo(ctx, set, seedFlags, time.Now().UTC())
	if err != nil {
		log.Error(ctx, "seeding failed", logger.Module("seed"), logger.Action("run"), zap.Error(err))
		return err
	}
	log.Info(ctx, "seeding complete",
		logger.Module("seed"),
		logger.Action("run"),
		zap.Int("clients", res.Clients),
		zap.Int("cases", res.Cases),
		zap.Int("tasks", res.Tasks),
	)
	fmt.Printf("✓ Seeding complete: %d clients, %d cases, %d tasks\n", res.Clients, res.Cases, res.Tasks)
	return nil
}

// seedDemo creates demo data owned by the attorney with opts.AttorneyEmail.
// Clients are only created when the directory is empty. Cases are created
// by the first Admin, or by the attorney when there is none.
func seedDemo(ctx context.Context, set store.Set, opts seedOptions, now time.Time) (seedResult, error) {
	var res seedResult

	attorney, err := set.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(opts.AttorneyEmail)))
	if errors.Is(err, store.ErrUserNotFound) {
		return res, fmt.Errorf("%w: %s", errSeedAttorneyNotFound, opts.AttorneyEmail)
	}
	if err != nil {
		return res, fmt.Errorf("failed to load attorney: %w", err)
	}
	if !access.CanCreateCases(domain.Principal{ID: attorney.ID, Role: attorney.Role}) {
		return res, errSeedNotAttorney
	}

	creator := attorney.ID
	adminRole := domain.RoleAdmin
	admins, err := set.Users.List(ctx, &adminRole)
	if err != nil {
		return res, fmt.Errorf("failed to list admins: %w", err)
	}
	if len(admins) > 0 {
		creator = admins[0].ID
	}

	seed := opts.Seed
	if seed == 0 {
		seed = uint64(now.UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1))

	clients, err := set.Clients.List(ctx, domain.ListClientsParams{})
	if err != nil {
		return res, fmt.Errorf("failed to list clients: %w", err)
	}
	if len(clients) == 0 {
		for _, c := range demoClients(creator, now) {
			if err := set.Clients.Create(ctx, &c); err != nil {
				return res, fmt.Errorf("failed to create client: %w", err)
			}
			clients = append(clients, c)
			res.Clients++
		}
	}

	description := "Seeded demo case for dashboard visualization"
	caseIDs := make([]string, 0, opts.Cases)
	for i := 0; i < opts.Cases; i++ {
		day := rng.IntN(28) + 1
		base := time.Date(now.Year(), now.Month()-time.Month(rng.IntN(5)), day, 0, 0, 0, 0, time.UTC)
		c := &domain.Case{
			ID:               ids.NewAt(base),
			Title:            fmt.Sprintf("Demo Case %d-%d", now.Unix(), i),
			Description:      &description,
			ClientID:         clients[rng.IntN(len(clients))].ID,
			AssignedAttorney: attorney.ID,
			Assistants:       []string{},
			Status:           domain.AllCaseStatuses[rng.IntN(len(domain.AllCaseStatuses))],
			Priority:         demoPriority(rng.Float64()),
			StartDate:        base,
			Deadline:         base.AddDate(0, 0, 7),
			Tags:             []string{},
			CreatedBy:        creator,
			CreatedAt:        base,
			UpdatedAt:        base,
		}
		if err := set.Cases.Create(ctx, c); err != nil {
			return res, fmt.Errorf("failed to create case: %w", err)
		}
		caseIDs = append(caseIDs, c.ID)
		res.Cases++
	}
	if len(caseIDs) == 0 {
		return res, nil
	}

	for i := 0; i < opts.Tasks; i++ {
		due := time.Date(now.Year(), now.Month()-time.Month(rng.IntN(5)), rng.IntN(28)+1, 0, 0, 0, 0, time.UTC)
		status := domain.TaskStatusOpen
		if rng.Float64() > 0.4 {
			status = domain.TaskStatusCompleted
		}
		t := &domain.Task{
			ID:         ids.NewAt(due),
			CaseID:     caseIDs[rng.IntN(len(caseIDs))],
			Title:      fmt.Sprintf("Demo Task %d-%d", now.Unix(), i),
			Status:     status,
			DueDate:    due,
			AssignedTo: attorney.ID,
			Category:   taskCategories[rng.IntN(len(taskCategories))],
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := set.Tasks.Create(ctx, t); err != nil {
			return res, fmt.Errorf("failed to create task: %w", err)
		}
		res.Tasks++
	}
	return res, nil
}

// demoPriority maps a uniform draw to 20% High, 50% Medium, 30% Low.
func demoPriority(x float64) domain.Priority {
	switch {
	case x < 0.2:
		return domain.PriorityHigh
	case x < 0.7:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

func demoClients(createdBy string, now time.Time) []domain.Client {
	str := func(s string) *string { return &s }
	return []domain.Client{
		{ID: ids.NewAt(now), Name: "Infosys Ltd", Email: str("legal@infosys.com"), Phone: str("9876543210"),
			Address: str("Bangalore"), CreatedBy: createdBy, CreatedAt: now, UpdatedAt: now},
		{ID: ids.NewAt(now.Add(time.Millisecond)), Name: "TCS Ltd", Email: str("legal@tcs.com"), Phone: str("9876543211"),
			Address: str("Mumbai"), CreatedBy: createdBy, CreatedAt: now, UpdatedAt: now},
	}
}
