// Package budget checks budget-line allocations against a project's total
// before they are sent to the server.
package budget

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/ngodash/internal/model"
)

// LineSource lists a project's existing budget lines.
type LineSource interface {
	ListBudgetLines(ctx context.Context, projectID string) ([]model.BudgetLine, error)
}

// Allocation is the outcome of a successful check.
type Allocation struct {
	Existing  decimal.Decimal
	Candidate decimal.Decimal
	Total     decimal.Decimal
	// Remaining is what is left after the candidate is allocated.
	Remaining decimal.Decimal
}

// Guard validates new allocations. The server remains authoritative; the
// check exists to fail fast with a useful message.
type Guard struct {
	lines  LineSource
	logger *slog.Logger
}

// NewGuard returns a Guard reading lines from src. A nil logger discards.
func NewGuard(src LineSource, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Guard{lines: src, logger: logger}
}

// ValidateAllocation succeeds iff candidate is positive and the project's
// existing lines plus candidate do not exceed total. Amounts are summed
// and compared exactly.
func (g *Guard) ValidateAllocation(ctx context.Context, projectID string, candidate, total decimal.Decimal) (Allocation, error) {
	if !candidate.IsPositive() {
		return Allocation{}, &InvalidAmountError{Amount: candidate}
	}
	if strings.TrimSpace(projectID) == "" {
		return Allocation{}, ErrProjectRequired
	}
	if !total.IsPositive() {
		return Allocation{}, ErrInvalidTotal
	}

	lines, err := g.lines.ListBudgetLines(ctx, projectID)
	if err != nil {
		return Allocation{}, fmt.Errorf("budget: fetching lines for project %s: %w", projectID, err)
	}

	existing, err := SumAmounts(lines)
	if err != nil {
		return Allocation{}, err
	}

	g.logger.Debug("allocation check",
		"project", projectID,
		"lines", len(lines),
		"existing", existing.String(),
		"candidate", candidate.String(),
		"total", total.String(),
	)

	if existing.Add(candidate).GreaterThan(total) {
		return Allocation{}, &BudgetExceededError{
			Remaining: total.Sub(existing),
			Existing:  existing,
			Total:     total,
			Candidate: candidate,
		}
	}

	return Allocation{
		Existing:  existing,
		Candidate: candidate,
		Total:     total,
		Remaining: total.Sub(existing).Sub(candidate),
	}, nil
}

// SumAmounts totals the lines' amounts. A line whose amount is missing,
// not numeric, or not positive fails the whole sum.
func SumAmounts(lines []model.BudgetLine) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, l := range lines {
		v, err := l.AmountValue()
		if err != nil {
			return decimal.Zero, &InvalidLineError{LineID: l.ID.String(), Err: err}
		}
		if !v.IsPositive() {
			return decimal.Zero, &InvalidLineError{LineID: l.ID.String(), Err: fmt.Errorf("amount %s is not positive", v)}
		}
		sum = sum.Add(v)
	}
	return sum, nil
}
