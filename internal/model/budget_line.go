package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// BudgetLine is a named allocation of part of a project's total budget.
// Amount is kept raw so that corrupt values surface as errors instead of
// silently decoding to zero.
type BudgetLine struct {
	ID          ID              `json:"_id,omitempty"`
	ProjectID   *Ref            `json:"project,omitempty"`
	Code        string          `json:"budget_line_code"`
	Name        string          `json:"budget_line_name"`
	Amount      json.RawMessage `json:"budget_line_amount"`
	Description string          `json:"budget_line_description,omitempty"`
}

// AmountValue parses the line's amount.
func (b BudgetLine) AmountValue() (decimal.Decimal, error) {
	return ParseAmount(b.Amount)
}

// BudgetLineInput is the payload for creating a budget line.
type BudgetLineInput struct {
	Code        string          `json:"budget_line_code"`
	Name        string          `json:"budget_line_name"`
	Amount      decimal.Decimal `json:"budget_line_amount"`
	Description string          `json:"budget_line_description"`
}

// MarshalJSON sends the amount as a JSON number rather than the quoted
// string decimal.Decimal produces by default.
func (in BudgetLineInput) MarshalJSON() ([]byte, error) {
	type wire BudgetLineInput
	return json.Marshal(struct {
		wire
		Amount json.Number `json:"budget_line_amount"`
	}{wire: wire(in), Amount: json.Number(in.Amount.String())})
}

// Missing returns the names of required text fields that are empty.
// The amount is checked separately by the allocation guard.
func (in BudgetLineInput) Missing() []string {
	var missing []string
	if in.Code == "" {
		missing = append(missing, "budget_line_code")
	}
	if in.Name == "" {
		missing = append(missing, "budget_line_name")
	}
	if in.Description == "" {
		missing = append(missing, "budget_line_description")
	}
	return missing
}
