// Package models defines the onboarding domain: wizard step payloads, the
// employee representation served by the backend and the mapping between them.
package models

import "fmt"

// StepKey identifies one page of the onboarding wizard.
type StepKey string

const (
	StepBaseInfo     StepKey = "base_info"
	StepAddress      StepKey = "address"
	StepBankAccount  StepKey = "bank_account"
	StepCompensation StepKey = "compensation"
	StepPaySchedule  StepKey = "pay_schedule"
	StepBenefits     StepKey = "benefits"
	StepTaxInfo      StepKey = "tax_info"
)

// StepOrder is the canonical total order of the wizard.
var StepOrder = []StepKey{
	StepBaseInfo,
	StepAddress,
	StepBankAccount,
	StepCompensation,
	StepPaySchedule,
	StepBenefits,
	StepTaxInfo,
}

// Index returns the position of the step in StepOrder, or -1.
func (s StepKey) Index() int {
	for i, key := range StepOrder {
		if key == s {
			return i
		}
	}

	return -1
}

// Valid reports whether s is a known step.
func (s StepKey) Valid() bool {
	return s.Index() >= 0
}

// ParseStepKey converts a raw string (route parameter, stored key) into a
// StepKey. The result is always one of the StepOrder constants and never
// shares memory with raw.
func ParseStepKey(raw string) (StepKey, error) {
	i := StepKey(raw).Index()
	if i < 0 {
		return "", fmt.Errorf("unknown wizard step %q", raw)
	}

	return StepOrder[i], nil
}

// StepPayload is implemented by every per-step form record.
type StepPayload interface {
	Step() StepKey
}

// NewPayload returns an empty payload of the concrete type owned by step.
func NewPayload(step StepKey) (StepPayload, error) {
	switch step {
	case StepBaseInfo:
		return &BaseInfo{}, nil
	case StepAddress:
		return &Address{}, nil
	case StepBankAccount:
		return &BankAccountForm{}, nil
	case StepCompensation:
		return &Compensation{PaidTimeOffIDs: []string{}}, nil
	case StepPaySchedule:
		return &PaySchedule{}, nil
	case StepBenefits:
		return &Benefits{}, nil
	case StepTaxInfo:
		return &TaxInfo{}, nil
	default:
		return nil, fmt.Errorf("unknown wizard step %q", step)
	}
}

// ClonePayload returns a copy of p so callers can edit it without
// touching a payload that is still referenced elsewhere.
func ClonePayload(p StepPayload) StepPayload {
	switch v := p.(type) {
	case *BaseInfo:
		c := *v

		return &c
	case *Address:
		c := *v
		if v.Lat != nil {
			lat := *v.Lat
			c.Lat = &lat
		}

		if v.Long != nil {
			long := *v.Long
			c.Long = &long
		}

		return &c
	case *BankAccountForm:
		c := *v

		return &c
	case *Compensation:
		c := *v
		c.PaidTimeOffIDs = append([]string{}, v.PaidTimeOffIDs...)

		return &c
	case *PaySchedule:
		c := *v

		return &c
	case *Benefits:
		c := *v

		return &c
	case *TaxInfo:
		c := *v

		return &c
	default:
		return p
	}
}
