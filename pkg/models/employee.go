package models

import "time"

// Employee is the backend representation of an onboarded person.
type Employee struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phone_number"`
	Gender         string `json:"gender"`
	Birthday       string `json:"birthday"`
	RoleID         string `json:"role_id"`
	EmploymentType string `json:"employment_type"`
	EmploymentDate string `json:"employment_date"`
	MaritalStatus  string `json:"marital_status"`
	NationalID     string `json:"national_id"`
	TaxPayerNumber string `json:"tax_payer_number"`

	Address    string   `json:"address"`
	City       string   `json:"city"`
	State      string   `json:"state"`
	Country    string   `json:"country"`
	PostalCode string   `json:"postal_code"`
	Lat        *float64 `json:"lat,omitempty"`
	Long       *float64 `json:"long,omitempty"`

	PayType        string   `json:"pay_type"`
	Salary         float64  `json:"salary"`
	Currency       string   `json:"currency"`
	PaidTimeOffIDs []string `json:"paid_time_off_ids"`

	PayFrequency string `json:"pay_frequency"`
	FirstPayDate string `json:"first_pay_date"`

	HealthPlan             string  `json:"health_plan"`
	RetirementContribution float64 `json:"retirement_contribution"`
	Dependents             int     `json:"dependents"`

	FilingStatus          string  `json:"filing_status"`
	Allowances            int     `json:"allowances"`
	AdditionalWithholding float64 `json:"additional_withholding"`
	TaxExempt             bool    `json:"tax_exempt"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// PersonPayload is the create/update request body for an employee.
// Every field is optional so it doubles as a partial update: empty strings and
// nil pointers are left untouched by ApplyTo. PaidTimeOffIDs distinguishes a
// missing list (nil, encoded as null) from an explicitly empty selection.
type PersonPayload struct {
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	Email          string `json:"email,omitempty"            validate:"omitempty,email"`
	PhoneNumber    string `json:"phone_number,omitempty"`
	Gender         string `json:"gender,omitempty"           validate:"omitempty,oneof=male female"`
	Birthday       string `json:"birthday,omitempty"         validate:"omitempty,datetime=2006-01-02"`
	RoleID         string `json:"role_id,omitempty"`
	EmploymentType string `json:"employment_type,omitempty"`
	EmploymentDate string `json:"employment_date,omitempty"  validate:"omitempty,datetime=2006-01-02"`
	MaritalStatus  string `json:"marital_status,omitempty"`
	NationalID     string `json:"national_id,omitempty"`
	TaxPayerNumber string `json:"tax_payer_number,omitempty"`

	Address    string   `json:"address,omitempty"`
	City       string   `json:"city,omitempty"`
	State      string   `json:"state,omitempty"`
	Country    string   `json:"country,omitempty"`
	PostalCode string   `json:"postal_code,omitempty"`
	Lat        *float64 `json:"lat,omitempty"`
	Long       *float64 `json:"long,omitempty"`

	PayType        string   `json:"pay_type,omitempty"`
	Salary         *float64 `json:"salary,omitempty"           validate:"omitempty,gte=0"`
	Currency       string   `json:"currency,omitempty"`
	PaidTimeOffIDs []string `json:"paid_time_off_ids"`

	PayFrequency string `json:"pay_frequency,omitempty"`
	FirstPayDate string `json:"first_pay_date,omitempty"   validate:"omitempty,datetime=2006-01-02"`

	HealthPlan             string   `json:"health_plan,omitempty"`
	RetirementContribution *float64 `json:"retirement_contribution,omitempty"`
	Dependents             *int     `json:"dependents,omitempty"`

	FilingStatus          string   `json:"filing_status,omitempty"`
	Allowances            *int     `json:"allowances,omitempty"`
	AdditionalWithholding *float64 `json:"additional_withholding,omitempty"`
	TaxExempt             *bool    `json:"tax_exempt,omitempty"`
}

// ApplyTo merges the provided fields of the payload into e.
func (p PersonPayload) ApplyTo(e *Employee) {
	setString(&e.FirstName, p.FirstName)
	setString(&e.LastName, p.LastName)
	setString(&e.Email, p.Email)
	setString(&e.PhoneNumber, p.PhoneNumber)
	setString(&e.Gender, p.Gender)
	setString(&e.Birthday, p.Birthday)
	setString(&e.RoleID, p.RoleID)
	setString(&e.EmploymentType, p.EmploymentType)
	setString(&e.EmploymentDate, p.EmploymentDate)
	setString(&e.MaritalStatus, p.MaritalStatus)
	setString(&e.NationalID, p.NationalID)
	setString(&e.TaxPayerNumber, p.TaxPayerNumber)

	setString(&e.Address, p.Address)
	setString(&e.City, p.City)
	setString(&e.State, p.State)
	setString(&e.Country, p.Country)
	setString(&e.PostalCode, p.PostalCode)

	if p.Lat != nil {
		e.Lat = p.Lat
	}

	if p.Long != nil {
		e.Long = p.Long
	}

	setString(&e.PayType, p.PayType)
	setString(&e.Currency, p.Currency)

	if p.Salary != nil {
		e.Salary = *p.Salary
	}

	if p.PaidTimeOffIDs != nil {
		e.PaidTimeOffIDs = append([]string{}, p.PaidTimeOffIDs...)
	}

	setString(&e.PayFrequency, p.PayFrequency)
	setString(&e.FirstPayDate, p.FirstPayDate)

	setString(&e.HealthPlan, p.HealthPlan)

	if p.RetirementContribution != nil {
		e.RetirementContribution = *p.RetirementContribution
	}

	if p.Dependents != nil {
		e.Dependents = *p.Dependents
	}

	setString(&e.FilingStatus, p.FilingStatus)

	if p.Allowances != nil {
		e.Allowances = *p.Allowances
	}

	if p.AdditionalWithholding != nil {
		e.AdditionalWithholding = *p.AdditionalWithholding
	}

	if p.TaxExempt != nil {
		e.TaxExempt = *p.TaxExempt
	}
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

// BankAccount is a bank account sub-resource owned by an employee.
type BankAccount struct {
	ID            string    `json:"id"`
	PersonID      string    `json:"person_id"`
	BankName      string    `json:"bank_name"`
	AccountName   string    `json:"account_name"`
	AccountNumber string    `json:"account_number"`
	RoutingNumber string    `json:"routing_number,omitempty"`
	Currency      string    `json:"currency"`
	Country       string    `json:"country"`
	CreatedAt     time.Time `json:"created_at"`
}

// BankAccountRequest is the body of POST /employees/{id}/create-bank-account.
type BankAccountRequest struct {
	BankName      string `json:"bank_name"                validate:"required"`
	AccountName   string `json:"account_name"             validate:"required"`
	AccountNumber string `json:"account_number"           validate:"required"`
	RoutingNumber string `json:"routing_number,omitempty"`
	Currency      string `json:"currency"                 validate:"required"`
	Country       string `json:"country"                  validate:"required"`
}

// Role is an entry of the roles catalog.
type Role struct {
	ID          string `json:"id"                    yaml:"id"`
	Name        string `json:"name"                  yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// PaidTimeOff is a paid time off type an employee can be associated with.
type PaidTimeOff struct {
	ID          string `json:"id"            yaml:"id"`
	Name        string `json:"name"          yaml:"name"`
	DaysPerYear int    `json:"days_per_year" yaml:"days_per_year"`
}

// BankAccountFilter is the body of POST /bank-accounts/filter.
type BankAccountFilter struct {
	PersonID string `json:"person_id" validate:"required"`
}

// CatalogFilter is the body of the roles and paid time off filter endpoints.
// Empty fields match everything.
type CatalogFilter struct {
	Search string   `json:"search,omitempty"`
	IDs    []string `json:"ids,omitempty"`
}

// ListResponse wraps every list returned by the backend.
type ListResponse[T any] struct {
	Data []T `json:"data"`
}
