package model

// Expense is spending recorded against a project activity and budget line.
type Expense struct {
	ID                      ID      `json:"_id,omitempty"`
	Project                 *Ref    `json:"project,omitempty"`
	Activity                *Ref    `json:"activity,omitempty"`
	Budget                  *Ref    `json:"budget,omitempty"`
	Amount                  float64 `json:"amount"`
	ExpenseDate             string  `json:"expense_date,omitempty"`
	Description             string  `json:"description,omitempty"`
	ActualFinancialYTD      float64 `json:"actual_financial_ytd,omitempty"`
	RecentFinancialYTD      float64 `json:"recent_financial_ytd,omitempty"`
	Reforecast              float64 `json:"re_forcast,omitempty"`
	OverUnderspend          float64 `json:"over_underspend,omitempty"`
	RemainingBalanceToSpend float64 `json:"remaining_balance_to_spend,omitempty"`
}

// ExpenseInput is the payload for recording or editing an expense. The
// API takes plain IDs for the project, activity and budget line.
type ExpenseInput struct {
	ProjectID               string  `json:"projectId"`
	ActivityID              string  `json:"activityId"`
	BudgetID                string  `json:"budgetId"`
	ExpenseDate             string  `json:"expense_date"`
	Amount                  float64 `json:"amount"`
	RemainingBalanceToSpend float64 `json:"remaining_balance_to_spend"`
	Reforecast              float64 `json:"re_forcast"`
	OverUnderspend          float64 `json:"over_underspend"`
	ActualFinancialYTD      float64 `json:"actual_financial_ytd"`
	RecentFinancialYTD      float64 `json:"recent_financial_ytd"`
	CreatedBy               string  `json:"created_by,omitempty"`
}

// Input returns the expense as an edit payload.
func (e Expense) Input() ExpenseInput {
	return ExpenseInput{
		ProjectID:               refID(e.Project),
		ActivityID:              refID(e.Activity),
		BudgetID:                refID(e.Budget),
		ExpenseDate:             e.ExpenseDate,
		Amount:                  e.Amount,
		RemainingBalanceToSpend: e.RemainingBalanceToSpend,
		Reforecast:              e.Reforecast,
		OverUnderspend:          e.OverUnderspend,
		ActualFinancialYTD:      e.ActualFinancialYTD,
		RecentFinancialYTD:      e.RecentFinancialYTD,
	}
}

// Missing returns the names of required fields that are empty.
func (in ExpenseInput) Missing() []string {
	var missing []string
	if in.ProjectID == "" {
		missing = append(missing, "project")
	}
	if in.ActivityID == "" {
		missing = append(missing, "activity")
	}
	if in.BudgetID == "" {
		missing = append(missing, "budget")
	}
	if in.ExpenseDate == "" {
		missing = append(missing, "expense_date")
	}
	if in.Amount == 0 {
		missing = append(missing, "amount")
	}
	return missing
}

func refID(r *Ref) string {
	if r == nil {
		return ""
	}
	return string(r.ID)
}
