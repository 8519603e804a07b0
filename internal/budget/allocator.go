package budget

import (
	"context"
	"strings"

	"github.com/theirongolddev/ngodash/internal/model"
)

// Store is the budget-line API surface the Allocator needs.
type Store interface {
	LineSource
	CreateBudgetLine(ctx context.Context, projectID string, in model.BudgetLineInput) (*model.BudgetLine, error)
}

// Allocator creates budget lines after checking them.
type Allocator struct {
	store Store
	guard *Guard
}

// NewAllocator returns an Allocator backed by s.
func NewAllocator(s Store, guard *Guard) *Allocator {
	if guard == nil {
		guard = NewGuard(s, nil)
	}
	return &Allocator{store: s, guard: guard}
}

// Guard returns the allocator's guard.
func (a *Allocator) Guard() *Guard { return a.guard }

// Create validates in against project and posts it. A rejection from the
// server is returned unchanged so its message reaches the user.
func (a *Allocator) Create(ctx context.Context, project model.Project, in model.BudgetLineInput) (*model.BudgetLine, Allocation, error) {
	projectID := project.ID.String()
	if projectID == "" {
		return nil, Allocation{}, ErrProjectRequired
	}

	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if missing := in.Missing(); len(missing) > 0 {
		return nil, Allocation{}, &MissingFieldsError{Fields: missing}
	}

	alloc, err := a.guard.ValidateAllocation(ctx, projectID, in.Amount, project.Total())
	if err != nil {
		return nil, Allocation{}, err
	}

	line, err := a.store.CreateBudgetLine(ctx, projectID, in)
	if err != nil {
		return nil, alloc, err
	}
	if line == nil {
		line = &model.BudgetLine{
			Code:        in.Code,
			Name:        in.Name,
			Amount:      []byte(in.Amount.String()),
			Description: in.Description,
		}
	}
	return line, alloc, nil
}
