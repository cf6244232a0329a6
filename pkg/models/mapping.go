package models

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DateLayout is the wire and form representation of calendar dates.
const DateLayout = "2006-01-02"

// EncodeGender converts the form value ("Male") to the backend value ("male").
func EncodeGender(form string) string {
	return strings.ToLower(strings.TrimSpace(form))
}

// DecodeGender converts the backend value ("male") to the form value ("Male").
func DecodeGender(stored string) string {
	stored = strings.TrimSpace(stored)
	if stored == "" {
		return ""
	}

	// Casers keep state, so one is built per call.
	return cases.Title(language.English).String(strings.ToLower(stored))
}

// DateValue is the composite value produced by a date picker.
type DateValue struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// String formats the date as zero padded YYYY-MM-DD.
func (d DateValue) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsZero reports whether no date was picked.
func (d DateValue) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// ParseDateValue splits a YYYY-MM-DD string back into picker parts.
func ParseDateValue(raw string) (DateValue, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return DateValue{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}

	return DateValue{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

// ComposePhone builds the combined, displayable phone number from its parts.
func ComposePhone(countryCode, input string) string {
	countryCode = strings.TrimPrefix(strings.TrimSpace(countryCode), "+")
	input = strings.TrimSpace(input)

	if countryCode == "" {
		return input
	}

	if input == "" {
		return ""
	}

	return "+" + countryCode + strings.TrimLeft(input, "0")
}

var (
	countryCodesOnce sync.Once
	countryCodes     map[string]string
)

// CountryName returns the English name for an ISO 3166-1 alpha-2 code, or
// an empty string when the code is unknown.
func CountryName(code string) string {
	region, err := language.ParseRegion(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil || !region.IsCountry() {
		return ""
	}

	return display.Regions(language.English).Name(region)
}

// CountryCode is the reverse of CountryName.
func CountryCode(name string) string {
	countryCodesOnce.Do(func() {
		countryCodes = make(map[string]string)
		namer := display.Regions(language.English)

		for a := 'A'; a <= 'Z'; a++ {
			for b := 'A'; b <= 'Z'; b++ {
				code := string([]rune{a, b})

				region, err := language.ParseRegion(code)
				if err != nil || !region.IsCountry() {
					continue
				}

				if n := namer.Name(region); n != "" {
					countryCodes[strings.ToLower(n)] = region.String()
				}
			}
		}
	})

	return countryCodes[strings.ToLower(strings.TrimSpace(name))]
}

// ComposePerson assembles the create/update body from the first two steps.
func ComposePerson(base *BaseInfo, addr *Address) PersonPayload {
	var p PersonPayload

	if base != nil {
		p.FirstName = base.FirstName
		p.LastName = base.LastName
		p.Email = base.Email
		p.PhoneNumber = base.PhoneNumber
		p.Gender = EncodeGender(base.Gender)
		p.Birthday = base.Birthday
		p.RoleID = base.RoleID
		p.EmploymentType = base.EmploymentType
		p.EmploymentDate = base.EmploymentDate
		p.MaritalStatus = base.MaritalStatus
		p.NationalID = base.NationalID
		p.TaxPayerNumber = base.TaxPayerNumber
	}

	if addr != nil {
		p.Address = addr.Address
		p.City = addr.City
		p.State = addr.State
		p.Country = addr.Country
		p.PostalCode = addr.PostalCode
		p.Lat = addr.Lat
		p.Long = addr.Long
	}

	return p
}

// Request strips the form-only country code and returns the backend body.
// The country name follows the code whenever the code is known.
func (b *BankAccountForm) Request() BankAccountRequest {
	country := CountryName(b.CountryCode)
	if country == "" {
		country = b.Country
	}

	return BankAccountRequest{
		BankName:      b.BankName,
		AccountName:   b.AccountName,
		AccountNumber: b.AccountNumber,
		RoutingNumber: b.RoutingNumber,
		Currency:      b.Currency,
		Country:       country,
	}
}

// Request converts the compensation step into a partial update. PTO types
// are sent as identifiers only.
func (c *Compensation) Request() PersonPayload {
	amount := c.Amount

	return PersonPayload{
		PayType:        c.PayType,
		Salary:         &amount,
		Currency:       c.Currency,
		PaidTimeOffIDs: append([]string{}, c.PaidTimeOffIDs...),
	}
}

// Request converts the pay schedule step into a partial update.
func (s *PaySchedule) Request() PersonPayload {
	return PersonPayload{
		PayFrequency: s.Frequency,
		FirstPayDate: s.FirstPayDate,
	}
}

// Request converts the benefits step into a partial update.
func (b *Benefits) Request() PersonPayload {
	contribution := b.RetirementContribution
	dependents := b.Dependents

	return PersonPayload{
		HealthPlan:             b.HealthPlan,
		RetirementContribution: &contribution,
		Dependents:             &dependents,
	}
}

// Request converts the tax step into a partial update.
func (t *TaxInfo) Request() PersonPayload {
	allowances := t.Allowances
	withholding := t.AdditionalWithholding
	exempt := t.TaxExempt

	return PersonPayload{
		FilingStatus:          t.FilingStatus,
		Allowances:            &allowances,
		AdditionalWithholding: &withholding,
		TaxExempt:             &exempt,
	}
}

// ComposeFull assembles the final update body from every filled step.
func ComposeFull(p StepPayloads) PersonPayload {
	full := ComposePerson(p.BaseInfo, p.Address)

	if p.Compensation != nil {
		c := p.Compensation.Request()
		full.PayType, full.Salary, full.Currency, full.PaidTimeOffIDs = c.PayType, c.Salary, c.Currency, c.PaidTimeOffIDs
	}

	if p.PaySchedule != nil {
		full.PayFrequency = p.PaySchedule.Frequency
		full.FirstPayDate = p.PaySchedule.FirstPayDate
	}

	if p.Benefits != nil {
		b := p.Benefits.Request()
		full.HealthPlan, full.RetirementContribution, full.Dependents = b.HealthPlan, b.RetirementContribution, b.Dependents
	}

	if p.TaxInfo != nil {
		t := p.TaxInfo.Request()
		full.FilingStatus, full.Allowances = t.FilingStatus, t.Allowances
		full.AdditionalWithholding, full.TaxExempt = t.AdditionalWithholding, t.TaxExempt
	}

	return full
}

// DecomposeBaseInfo derives the base info form from a fetched employee.
// Only the combined phone number is stored by the backend, so the phone parts
// stay empty.
func DecomposeBaseInfo(e *Employee) *BaseInfo {
	return &BaseInfo{
		FirstName:      e.FirstName,
		LastName:       e.LastName,
		Email:          e.Email,
		PhoneNumber:    e.PhoneNumber,
		Gender:         DecodeGender(e.Gender),
		Birthday:       e.Birthday,
		RoleID:         e.RoleID,
		EmploymentType: e.EmploymentType,
		EmploymentDate: e.EmploymentDate,
		MaritalStatus:  e.MaritalStatus,
		NationalID:     e.NationalID,
		TaxPayerNumber: e.TaxPayerNumber,
	}
}

// DecomposeAddress derives the address form from a fetched employee.
func DecomposeAddress(e *Employee) *Address {
	return &Address{
		Address:    e.Address,
		City:       e.City,
		State:      e.State,
		Country:    e.Country,
		PostalCode: e.PostalCode,
		Lat:        e.Lat,
		Long:       e.Long,
	}
}

// DecomposeBankAccount derives the bank form from the employee's first
// account. The country code is recovered from the stored country name.
func DecomposeBankAccount(accounts []BankAccount) *BankAccountForm {
	if len(accounts) == 0 {
		return &BankAccountForm{}
	}

	a := accounts[0]

	return &BankAccountForm{
		ID:            a.ID,
		BankName:      a.BankName,
		AccountName:   a.AccountName,
		AccountNumber: a.AccountNumber,
		RoutingNumber: a.RoutingNumber,
		Currency:      a.Currency,
		CountryCode:   CountryCode(a.Country),
		Country:       a.Country,
	}
}

// DecomposeCompensation derives the compensation form from a fetched employee.
func DecomposeCompensation(e *Employee) *Compensation {
	return &Compensation{
		PayType:        e.PayType,
		Amount:         e.Salary,
		Currency:       e.Currency,
		PaidTimeOffIDs: append([]string{}, e.PaidTimeOffIDs...),
	}
}

// DecomposePaySchedule derives the pay schedule form from a fetched employee.
func DecomposePaySchedule(e *Employee) *PaySchedule {
	return &PaySchedule{
		Frequency:    e.PayFrequency,
		FirstPayDate: e.FirstPayDate,
	}
}

// DecomposeBenefits derives the benefits form from a fetched employee.
func DecomposeBenefits(e *Employee) *Benefits {
	return &Benefits{
		HealthPlan:             e.HealthPlan,
		RetirementContribution: e.RetirementContribution,
		Dependents:             e.Dependents,
	}
}

// DecomposeTaxInfo derives the tax form from a fetched employee.
func DecomposeTaxInfo(e *Employee) *TaxInfo {
	return &TaxInfo{
		FilingStatus:          e.FilingStatus,
		Allowances:            e.Allowances,
		AdditionalWithholding: e.AdditionalWithholding,
		TaxExempt:             e.TaxExempt,
	}
}

// Decompose derives the payload of one step from a fetched snapshot.
func Decompose(step StepKey, e *Employee, accounts []BankAccount) (StepPayload, error) {
	switch step {
	case StepBaseInfo:
		return DecomposeBaseInfo(e), nil
	case StepAddress:
		return DecomposeAddress(e), nil
	case StepBankAccount:
		return DecomposeBankAccount(accounts), nil
	case StepCompensation:
		return DecomposeCompensation(e), nil
	case StepPaySchedule:
		return DecomposePaySchedule(e), nil
	case StepBenefits:
		return DecomposeBenefits(e), nil
	case StepTaxInfo:
		return DecomposeTaxInfo(e), nil
	default:
		return nil, fmt.Errorf("unknown wizard step %q", step)
	}
}
