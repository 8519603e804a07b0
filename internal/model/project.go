package model

import (
	"math"

	"github.com/shopspring/decimal"
)

// Project is a funded NGO project.
type Project struct {
	ID                  ID      `json:"_id,omitempty"`
	Name                string  `json:"name"`
	ProjectCode         string  `json:"project_code,omitempty"`
	ProjectNumber       string  `json:"project_number,omitempty"`
	Theme               string  `json:"theme,omitempty"`
	TypeOfFund          string  `json:"type_of_fund,omitempty"`
	FinancialYear       string  `json:"financial_year,omitempty"`
	Description         string  `json:"description,omitempty"`
	StartDate           string  `json:"start_date,omitempty"`
	EndDate             string  `json:"end_date,omitempty"`
	TotalBudget         float64 `json:"total_budget"`
	DonorCurrency       string  `json:"donor_currency,omitempty"`
	CurrentValueInDonor float64 `json:"current_value_in_donor_currency,omitempty"`
	Status              string  `json:"status,omitempty"`
	Donor               *Ref    `json:"donor,omitempty"`
	User                *Ref    `json:"user,omitempty"`
	NGO                 *Ref    `json:"ngo,omitempty"`
}

// Currency returns the project's donor currency, defaulting to USD.
func (p Project) Currency() string {
	if p.DonorCurrency == "" {
		return "USD"
	}
	return p.DonorCurrency
}

// Total returns TotalBudget as a decimal using its shortest exact
// representation, so 0.6 is 0.6 rather than its binary approximation.
// A non-finite total becomes zero.
func (p Project) Total() decimal.Decimal {
	if math.IsNaN(p.TotalBudget) || math.IsInf(p.TotalBudget, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(p.TotalBudget)
}

// Activity is a scheduled unit of work inside a project.
type Activity struct {
	ID              ID      `json:"_id,omitempty"`
	Project         *Ref    `json:"project,omitempty"`
	Name            string  `json:"name"`
	Description     string  `json:"description,omitempty"`
	StartDate       string  `json:"start_date,omitempty"`
	EndDate         string  `json:"end_date,omitempty"`
	BudgetAmount    float64 `json:"budget_amount"`
	ResponsibleUser *Ref    `json:"responsible_user,omitempty"`
	Status          string  `json:"status,omitempty"`
}

// Input returns the activity as an edit payload.
func (a Activity) Input() ActivityInput {
	in := ActivityInput{
		Name:         a.Name,
		Description:  a.Description,
		StartDate:    a.StartDate,
		EndDate:      a.EndDate,
		BudgetAmount: a.BudgetAmount,
	}
	if a.ResponsibleUser != nil {
		in.ResponsibleUser = string(a.ResponsibleUser.ID)
	}
	return in
}

// ActivityInput is the payload for creating or editing an activity.
type ActivityInput struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	BudgetAmount    float64 `json:"budget_amount"`
	ResponsibleUser string  `json:"responsible_user"`
}

// Missing returns the names of required fields that are empty.
func (in ActivityInput) Missing() []string {
	var missing []string
	if in.Name == "" {
		missing = append(missing, "name")
	}
	if in.Description == "" {
		missing = append(missing, "description")
	}
	if in.StartDate == "" {
		missing = append(missing, "start_date")
	}
	if in.EndDate == "" {
		missing = append(missing, "end_date")
	}
	if in.BudgetAmount == 0 {
		missing = append(missing, "budget_amount")
	}
	if in.ResponsibleUser == "" {
		missing = append(missing, "responsible_user")
	}
	return missing
}
