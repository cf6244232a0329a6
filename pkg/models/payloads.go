package models

// BaseInfo is the first wizard step: identity and employment data.
type BaseInfo struct {
	FirstName        string `json:"firstName"                  validate:"required"`
	LastName         string `json:"lastName"                   validate:"required"`
	Email            string `json:"email"                      validate:"required,email"`
	PhoneNumber      string `json:"phoneNumber"                validate:"required,phone"`
	PhoneCountryCode string `json:"phoneCountryCode,omitempty"`
	PhoneInput       string `json:"phoneInput,omitempty"`
	Gender           string `json:"gender"                     validate:"required,oneof=Male Female"`
	Birthday         string `json:"birthday"                   validate:"required,datetime=2006-01-02"`
	RoleID           string `json:"roleId"                     validate:"required"`
	EmploymentType   string `json:"employmentType"             validate:"required,oneof=Employee Contractor Intern"`
	EmploymentDate   string `json:"employmentDate"             validate:"required,datetime=2006-01-02"`
	MaritalStatus    string `json:"maritalStatus"              validate:"required,oneof=Single Married Divorced Widowed"`
	NationalID       string `json:"nationalId"                 validate:"required"`
	TaxPayerNumber   string `json:"taxPayerNumber"             validate:"required"`
}

func (*BaseInfo) Step() StepKey { return StepBaseInfo }

// SetPhone stores the phone parts and the combined number derived from them.
func (b *BaseInfo) SetPhone(countryCode, input string) {
	b.PhoneCountryCode = countryCode
	b.PhoneInput = input
	b.PhoneNumber = ComposePhone(countryCode, input)
}

// Address is the location step. Country, state and city form a cascade:
// choosing a country clears state and city, choosing a state clears city.
type Address struct {
	Address    string   `json:"address"        validate:"required"`
	City       string   `json:"city"           validate:"required"`
	State      string   `json:"state"          validate:"required"`
	Country    string   `json:"country"        validate:"required"`
	PostalCode string   `json:"postalCode"     validate:"required"`
	Lat        *float64 `json:"lat,omitempty"  validate:"omitempty,latitude"`
	Long       *float64 `json:"long,omitempty" validate:"omitempty,longitude"`
}

func (*Address) Step() StepKey { return StepAddress }

// SetCountry selects a country; a different country resets state and city.
func (a *Address) SetCountry(country string) {
	if a.Country != country {
		a.State = ""
		a.City = ""
	}

	a.Country = country
}

// SetState selects a state; a different state resets city.
func (a *Address) SetState(state string) {
	if a.State != state {
		a.City = ""
	}

	a.State = state
}

// SetCity selects a city.
func (a *Address) SetCity(city string) {
	a.City = city
}

// BankAccountForm is the bank account step. CountryCode only drives the
// country name lookup and never leaves the wizard.
type BankAccountForm struct {
	ID            string `json:"id,omitempty"            form:"readonly"`
	BankName      string `json:"bankName"                validate:"required"`
	AccountName   string `json:"accountName"             validate:"required"`
	AccountNumber string `json:"accountNumber"           validate:"required,numeric,min=4,max=34"`
	RoutingNumber string `json:"routingNumber,omitempty" validate:"omitempty,numeric"`
	Currency      string `json:"currency"                validate:"required,iso4217"`
	CountryCode   string `json:"countryCode"             validate:"required,iso3166_1_alpha2"`
	Country       string `json:"country"                 form:"readonly"`
}

func (*BankAccountForm) Step() StepKey { return StepBankAccount }

// SetCountryCode stores the code and resolves the human readable country name.
func (b *BankAccountForm) SetCountryCode(code string) {
	b.CountryCode = code
	b.Country = CountryName(code)
}

// Compensation holds pay and the paid time off types an employee is entitled to.
type Compensation struct {
	PayType        string   `json:"payType"        validate:"required,oneof=Salary Hourly"`
	Amount         float64  `json:"amount"         validate:"gt=0"`
	Currency       string   `json:"currency"       validate:"required,iso4217"`
	PaidTimeOffIDs []string `json:"paidTimeOffIds" validate:"dive,required"`
}

func (*Compensation) Step() StepKey { return StepCompensation }

// PaySchedule defines how often the employee is paid.
type PaySchedule struct {
	Frequency    string `json:"frequency"    validate:"required,oneof=weekly biweekly semimonthly monthly"`
	FirstPayDate string `json:"firstPayDate" validate:"required,datetime=2006-01-02"`
}

func (*PaySchedule) Step() StepKey { return StepPaySchedule }

// Benefits captures plan enrollment.
type Benefits struct {
	HealthPlan             string  `json:"healthPlan"             validate:"omitempty,oneof=none basic standard premium"`
	RetirementContribution float64 `json:"retirementContribution" validate:"gte=0,lte=100"`
	Dependents             int     `json:"dependents"             validate:"gte=0,lte=20"`
}

func (*Benefits) Step() StepKey { return StepBenefits }

// TaxInfo is the final step; submitting it completes onboarding.
type TaxInfo struct {
	FilingStatus          string  `json:"filingStatus"          validate:"required,oneof=single married_joint married_separate head_of_household"`
	Allowances            int     `json:"allowances"            validate:"gte=0,lte=99"`
	AdditionalWithholding float64 `json:"additionalWithholding" validate:"gte=0"`
	TaxExempt             bool    `json:"taxExempt"`
}

func (*TaxInfo) Step() StepKey { return StepTaxInfo }
