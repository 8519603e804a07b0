package budget

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount matches every *InvalidAmountError.
	ErrInvalidAmount = errors.New("budget: amount must be a positive number")
	// ErrExceeded matches every *BudgetExceededError.
	ErrExceeded = errors.New("budget: total allocated amount cannot exceed project budget")
	// ErrProjectRequired is returned when no project is given.
	ErrProjectRequired = errors.New("budget: project is required")
	// ErrInvalidTotal is returned when the project's total budget is not positive.
	ErrInvalidTotal = errors.New("budget: project total budget must be positive")
)

// InvalidAmountError rejects a candidate amount that is zero or negative.
type InvalidAmountError struct {
	Amount decimal.Decimal
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("budget: invalid amount %s: must be a positive number", e.Amount)
}

// Is makes errors.Is(err, ErrInvalidAmount) true.
func (e *InvalidAmountError) Is(target error) bool { return target == ErrInvalidAmount }

// BudgetExceededError reports that a new line would push the project's
// allocations over its total. Remaining is Total - Existing.
type BudgetExceededError struct {
	Remaining decimal.Decimal
	Existing  decimal.Decimal
	Total     decimal.Decimal
	Candidate decimal.Decimal
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("budget: total allocated amount cannot exceed project budget (remaining %s, requested %s)",
		e.Remaining, e.Candidate)
}

// Is makes errors.Is(err, ErrExceeded) true.
func (e *BudgetExceededError) Is(target error) bool { return target == ErrExceeded }

// InvalidLineError reports an existing budget line whose amount is missing,
// not a number, or not positive. Such data cannot be summed safely.
type InvalidLineError struct {
	LineID string
	Err    error
}

func (e *InvalidLineError) Error() string {
	id := e.LineID
	if id == "" {
		id = "(no id)"
	}
	return fmt.Sprintf("budget: line %s has an invalid amount: %v", id, e.Err)
}

func (e *InvalidLineError) Unwrap() error { return e.Err }

// MissingFieldsError lists required input fields that were empty.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "budget: missing required fields: " + strings.Join(e.Fields, ", ")
}
