package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/access"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
)

// SearchLimit caps each result category.
const SearchLimit = 5

type SearchService struct {
	cases   store.Cases
	clients store.Clients
	docs    store.Documents
}

func NewSearchService(s store.Set) *SearchService {
	return &SearchService{cases: s.Cases, clients: s.Clients, docs: s.Documents}
}

// Search matches q as a case-insensitive substring. Case hits are limited to
// what p can see; client and document hits are not filtered by role.
// Results are ordered cases, clients, documents.
func (s *SearchService) Search(ctx context.Context, p domain.Principal, q string) ([]domain.SearchResult, error) {
	q = strings.TrimSpace(q)
	results := make([]domain.SearchResult, 0)
	if q == "" {
		return results, nil
	}

	var (
		cases   []domain.Case
		clients []domain.Client
		docs    []domain.Document
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cases, err = s.cases.List(gctx, access.CaseScope(p), domain.ListCasesParams{Search: &q}, SearchLimit)
		if err != nil {
			return fmt.Errorf("search cases: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		clients, err = s.clients.List(gctx, domain.ListClientsParams{Search: &q, Limit: SearchLimit})
		if err != nil {
			return fmt.Errorf("search clients: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		docs, err = s.docs.Search(gctx, q, SearchLimit)
		if err != nil {
			return fmt.Errorf("search documents: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, c := range cases {
		results = append(results, domain.SearchResult{Type: domain.SearchTypeCase, ID: c.ID, Label: c.Title})
	}
	for _, c := range clients {
		results = append(results, domain.SearchResult{Type: domain.SearchTypeClient, ID: c.ID, Label: c.Name})
	}
	for _, d := range docs {
		results = append(results, domain.SearchResult{Type: domain.SearchTypeDocument, ID: d.ID, Label: d.Filename})
	}
	return results, nil
}
