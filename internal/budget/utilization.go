package budget

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/ngodash/internal/model"
)

// Utilization summarizes how much of a project's budget is allocated.
type Utilization struct {
	Total     decimal.Decimal
	Allocated decimal.Decimal
	Remaining decimal.Decimal
	// Percent is Allocated/Total*100, or 0 when Total is not positive.
	Percent float64
	Lines   int
}

// Utilize computes a project's utilization from its budget lines.
func Utilize(project model.Project, lines []model.BudgetLine) (Utilization, error) {
	allocated, err := SumAmounts(lines)
	if err != nil {
		return Utilization{}, err
	}
	total := project.Total()
	u := Utilization{
		Total:     total,
		Allocated: allocated,
		Remaining: total.Sub(allocated),
		Lines:     len(lines),
	}
	if total.IsPositive() {
		u.Percent = allocated.Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	return u, nil
}

// OverAllocated reports whether allocations exceed the total, which can
// happen when lines were created before the total was lowered.
func (u Utilization) OverAllocated() bool {
	return u.Allocated.GreaterThan(u.Total)
}
