package models

// WizardDraft is the persisted, not yet finalized state of one onboarding session.
// Payloads are never checked against each other for cross-step consistency.
type WizardDraft struct {
	ActiveStep StepKey      `json:"active_step"`
	EntityID   *string      `json:"entity_id,omitempty"`
	Payloads   StepPayloads `json:"step_payloads"`
}

// NewWizardDraft returns an empty draft positioned on the first step.
func NewWizardDraft() WizardDraft {
	return WizardDraft{ActiveStep: StepOrder[0]}
}

// HasEntity reports whether the backend entity was created already.
func (d WizardDraft) HasEntity() bool {
	return d.EntityID != nil && *d.EntityID != ""
}

// StepPayloads holds one optional typed payload per step.
type StepPayloads struct {
	BaseInfo     *BaseInfo        `json:"base_info,omitempty"`
	Address      *Address         `json:"address,omitempty"`
	BankAccount  *BankAccountForm `json:"bank_account,omitempty"`
	Compensation *Compensation    `json:"compensation,omitempty"`
	PaySchedule  *PaySchedule     `json:"pay_schedule,omitempty"`
	Benefits     *Benefits        `json:"benefits,omitempty"`
	TaxInfo      *TaxInfo         `json:"tax_info,omitempty"`
}

// Get returns the payload stored for step or nil when the step was never filled.
func (p *StepPayloads) Get(step StepKey) StepPayload {
	switch step {
	case StepBaseInfo:
		if p.BaseInfo != nil {
			return p.BaseInfo
		}
	case StepAddress:
		if p.Address != nil {
			return p.Address
		}
	case StepBankAccount:
		if p.BankAccount != nil {
			return p.BankAccount
		}
	case StepCompensation:
		if p.Compensation != nil {
			return p.Compensation
		}
	case StepPaySchedule:
		if p.PaySchedule != nil {
			return p.PaySchedule
		}
	case StepBenefits:
		if p.Benefits != nil {
			return p.Benefits
		}
	case StepTaxInfo:
		if p.TaxInfo != nil {
			return p.TaxInfo
		}
	}

	return nil
}

// Set stores payload under its own step.
func (p *StepPayloads) Set(payload StepPayload) {
	switch v := payload.(type) {
	case *BaseInfo:
		p.BaseInfo = v
	case *Address:
		p.Address = v
	case *BankAccountForm:
		p.BankAccount = v
	case *Compensation:
		p.Compensation = v
	case *PaySchedule:
		p.PaySchedule = v
	case *Benefits:
		p.Benefits = v
	case *TaxInfo:
		p.TaxInfo = v
	}
}
