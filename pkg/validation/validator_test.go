package validation_test

import (
	"testing"

	"github.com/dukex/roster/pkg/models"
	"github.com/dukex/roster/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBaseInfo() *models.BaseInfo {
	return &models.BaseInfo{
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          "ada@x.com",
		PhoneNumber:    "+44123",
		Gender:         "Female",
		Birthday:       "1990-01-01",
		RoleID:         "r1",
		EmploymentType: "Employee",
		EmploymentDate: "2024-01-01",
		MaritalStatus:  "Single",
		NationalID:     "N1",
		TaxPayerNumber: "T1",
	}
}

func TestRegistry_Validate(t *testing.T) {
	t.Parallel()

	registry := validation.NewRegistry()

	tests := []struct {
		name       string
		step       models.StepKey
		payload    models.StepPayload
		wantFields []string
	}{
		{
			name:    "valid base info",
			step:    models.StepBaseInfo,
			payload: validBaseInfo(),
		},
		{
			name:    "nil base info reports every required field",
			step:    models.StepBaseInfo,
			payload: nil,
			wantFields: []string{
				"firstName", "lastName", "email", "phoneNumber", "gender", "birthday",
				"roleId", "employmentType", "employmentDate", "maritalStatus", "nationalId", "taxPayerNumber",
			},
		},
		{
			name: "malformed email and phone",
			step: models.StepBaseInfo,
			payload: func() models.StepPayload {
				p := validBaseInfo()
				p.Email = "not-an-email"
				p.PhoneNumber = "call me"

				return p
			}(),
			wantFields: []string{"email", "phoneNumber"},
		},
		{
			name: "employment before birth",
			step: models.StepBaseInfo,
			payload: func() models.StepPayload {
				p := validBaseInfo()
				p.EmploymentDate = "1980-01-01"

				return p
			}(),
			wantFields: []string{"employmentDate"},
		},
		{
			name:       "address missing postal code",
			step:       models.StepAddress,
			payload:    &models.Address{Address: "1 Main St", City: "London", State: "Greater London", Country: "United Kingdom"},
			wantFields: []string{"postalCode"},
		},
		{
			name: "bank account with bad currency and short number",
			step: models.StepBankAccount,
			payload: &models.BankAccountForm{
				BankName: "GTB", AccountName: "Ada", AccountNumber: "12", Currency: "XXY", CountryCode: "NG",
			},
			wantFields: []string{"accountNumber", "currency"},
		},
		{
			name:       "compensation needs a positive amount",
			step:       models.StepCompensation,
			payload:    &models.Compensation{PayType: "Salary", Currency: "USD"},
			wantFields: []string{"amount"},
		},
		{
			name:    "benefits are optional",
			step:    models.StepBenefits,
			payload: &models.Benefits{},
		},
		{
			name:       "payload of another step",
			step:       models.StepAddress,
			payload:    validBaseInfo(),
			wantFields: []string{"step"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := registry.Validate(tt.step, tt.payload)

			if len(tt.wantFields) == 0 {
				assert.True(t, result.IsValid(), "unexpected errors: %v", result.FieldErrors)

				return
			}

			require.False(t, result.IsValid())
			assert.Len(t, result.FieldErrors, len(tt.wantFields))

			for _, field := range tt.wantFields {
				assert.Contains(t, result.FieldErrors, field)
			}
		})
	}
}

func TestRegistry_Messages(t *testing.T) {
	t.Parallel()

	result := validation.NewRegistry().Validate(models.StepBaseInfo, &models.BaseInfo{Gender: "Other"})

	assert.Equal(t, "is required", result.FieldErrors["firstName"])
	assert.Equal(t, "must be one of: Male, Female", result.FieldErrors["gender"])
}

func TestRegistry_AddRule(t *testing.T) {
	t.Parallel()

	registry := validation.NewRegistry()
	registry.AddRule(models.StepPaySchedule, func(payload models.StepPayload, result *validation.Result) {
		if payload.(*models.PaySchedule).Frequency == "weekly" {
			result.Add("frequency", "weekly payroll is not offered")
		}
	})

	result := registry.Validate(models.StepPaySchedule, &models.PaySchedule{Frequency: "weekly", FirstPayDate: "2024-02-01"})
	assert.Equal(t, map[string]string{"frequency": "weekly payroll is not offered"}, result.FieldErrors)

	result = registry.Validate(models.StepPaySchedule, &models.PaySchedule{Frequency: "monthly", FirstPayDate: "2024-02-01"})
	assert.True(t, result.IsValid())
}

func TestResult_AddKeepsFirstMessage(t *testing.T) {
	t.Parallel()

	var result validation.Result
	result.Add("email", "is required")
	result.Add("email", "must be a valid email address")

	assert.Equal(t, "is required", result.FieldErrors["email"])
}
