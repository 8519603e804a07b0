package model

// Donor funds one or more projects.
type Donor struct {
	ID                     ID      `json:"_id,omitempty"`
	Name                   string  `json:"name"`
	Email                  string  `json:"email,omitempty"`
	Address                string  `json:"address,omitempty"`
	Contact                string  `json:"contact,omitempty"`
	DonorType              string  `json:"donor_type,omitempty"`
	Level                  string  `json:"level,omitempty"`
	DonorReportingCategory string  `json:"donor_reporting_category,omitempty"`
	BudgetHeading          string  `json:"budget_heading,omitempty"`
	Amount                 float64 `json:"amount,omitempty"`
	User                   *Ref    `json:"user,omitempty"`
	CreatedAt              string  `json:"createdAt,omitempty"`
}

// NGO is an implementing organisation.
type NGO struct {
	ID        ID     `json:"_id,omitempty"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	Contact   string `json:"contact,omitempty"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}
