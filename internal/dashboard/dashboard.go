// Package dashboard loads the overview shown on the home screen.
package dashboard

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/ngodash/internal/model"
)

// Source is the API surface the overview reads.
type Source interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	ListNGOs(ctx context.Context) ([]model.NGO, error)
	ListDonors(ctx context.Context) ([]model.Donor, error)
	ListExpenses(ctx context.Context) ([]model.Expense, error)
}

// Summary is the home-screen overview.
type Summary struct {
	Projects int
	NGOs     int
	Donors   int
	Expenses int

	// TotalBudget sums project totals per currency.
	TotalBudget map[string]float64
	// ByStatus counts projects per status.
	ByStatus map[string]int
	// Recent holds up to RecentLimit projects, newest start date first.
	Recent []model.Project

	// The fetched collections, for views that list them.
	ProjectList []model.Project
	DonorList   []model.Donor
	NGOList     []model.NGO
}

// RecentLimit bounds Summary.Recent.
const RecentLimit = 5

// Load fetches the four collections concurrently. Any failure fails the
// whole load; a partial overview would misreport counts.
func Load(ctx context.Context, src Source) (*Summary, error) {
	var (
		projects []model.Project
		ngos     []model.NGO
		donors   []model.Donor
		expenses []model.Expense
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		projects, err = src.ListProjects(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		ngos, err = src.ListNGOs(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		donors, err = src.ListDonors(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = src.ListExpenses(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard data: %w", err)
	}

	s := &Summary{
		Projects:    len(projects),
		NGOs:        len(ngos),
		Donors:      len(donors),
		Expenses:    len(expenses),
		TotalBudget: make(map[string]float64),
		ByStatus:    make(map[string]int),
		ProjectList: projects,
		DonorList:   donors,
		NGOList:     ngos,
	}
	for _, p := range projects {
		s.TotalBudget[p.Currency()] += p.TotalBudget
		status := p.Status
		if status == "" {
			status = "unknown"
		}
		s.ByStatus[status]++
	}

	recent := make([]model.Project, len(projects))
	copy(recent, projects)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].StartDate > recent[j].StartDate
	})
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}
	s.Recent = recent

	return s, nil
}
