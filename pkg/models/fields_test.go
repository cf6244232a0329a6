package models_test

import (
	"testing"
	"unsafe"

	"github.com/dukex/roster/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEdits_AddressCascade(t *testing.T) {
	t.Parallel()

	filled := &models.Address{Address: "1 Main St", Country: "Nigeria", State: "Lagos", City: "Ikeja", PostalCode: "100001"}

	tests := []struct {
		name  string
		edits []models.FieldEdit
		want  models.Address
	}{
		{
			name:  "country change clears state and city",
			edits: []models.FieldEdit{{Field: "country", Value: "Ghana"}},
			want:  models.Address{Address: "1 Main St", Country: "Ghana", PostalCode: "100001"},
		},
		{
			name:  "state change clears city",
			edits: []models.FieldEdit{{Field: "state", Value: "Ogun"}},
			want:  models.Address{Address: "1 Main St", Country: "Nigeria", State: "Ogun", PostalCode: "100001"},
		},
		{
			name:  "same country keeps state and city",
			edits: []models.FieldEdit{{Field: "country", Value: "Nigeria"}},
			want:  *filled,
		},
		{
			name: "country, state and city in one batch apply in cascade order",
			edits: []models.FieldEdit{
				{Field: "city", Value: "Accra"},
				{Field: "state", Value: "Greater Accra"},
				{Field: "country", Value: "Ghana"},
			},
			want: models.Address{Address: "1 Main St", Country: "Ghana", State: "Greater Accra", City: "Accra", PostalCode: "100001"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := models.ApplyEdits(filled, tt.edits)
			require.NoError(t, err)
			assert.Equal(t, &tt.want, out)
		})
	}

	assert.Equal(t, "Lagos", filled.State, "input payload must not be mutated")
}

func TestApplyEdits_Types(t *testing.T) {
	t.Parallel()

	out, err := models.ApplyEdits(&models.Address{}, []models.FieldEdit{{Field: "lat", Value: "6.45"}, {Field: "postalCode", Value: "100001"}})
	require.NoError(t, err)

	addr := out.(*models.Address)
	require.NotNil(t, addr.Lat)
	assert.InDelta(t, 6.45, *addr.Lat, 0.0001)
	assert.Equal(t, "100001", addr.PostalCode)

	out, err = models.ApplyEdits(&models.Compensation{}, []models.FieldEdit{{Field: "paidTimeOffIds", Value: "pto-1, pto-2,"}, {Field: "amount", Value: "1200.5"}})
	require.NoError(t, err)

	comp := out.(*models.Compensation)
	assert.Equal(t, []string{"pto-1", "pto-2"}, comp.PaidTimeOffIDs)
	assert.InDelta(t, 1200.5, comp.Amount, 0.0001)

	out, err = models.ApplyEdits(&models.TaxInfo{}, []models.FieldEdit{{Field: "taxExempt", Value: "true"}, {Field: "allowances", Value: "2"}})
	require.NoError(t, err)
	assert.Equal(t, &models.TaxInfo{TaxExempt: true, Allowances: 2}, out)

	out, err = models.ApplyEdits(&models.BaseInfo{}, []models.FieldEdit{{Field: "phoneCountryCode", Value: "44"}, {Field: "phoneInput", Value: "123"}})
	require.NoError(t, err)
	assert.Equal(t, "+44123", out.(*models.BaseInfo).PhoneNumber)

	out, err = models.ApplyEdits(&models.BankAccountForm{}, []models.FieldEdit{{Field: "countryCode", Value: "DE"}})
	require.NoError(t, err)
	assert.Equal(t, "Germany", out.(*models.BankAccountForm).Country)
}

func TestApplyEdits_Errors(t *testing.T) {
	t.Parallel()

	_, err := models.ApplyEdits(&models.BaseInfo{}, []models.FieldEdit{{Field: "salary", Value: "1"}})
	require.ErrorIs(t, err, models.ErrUnknownField)

	_, err = models.ApplyEdits(&models.Benefits{}, []models.FieldEdit{{Field: "dependents", Value: "two"}})
	require.Error(t, err)

	_, err = models.ApplyEdits(&models.BankAccountForm{}, []models.FieldEdit{{Field: "id", Value: "forged"}})
	require.Error(t, err)
}

func TestFields(t *testing.T) {
	t.Parallel()

	lat := 1.5
	fields := models.Fields(&models.Address{City: "Lagos", Lat: &lat})

	require.Len(t, fields, 7)
	assert.Equal(t, models.Field{Name: "address", Label: "Address"}, fields[0])
	assert.Equal(t, models.Field{Name: "city", Label: "City", Value: "Lagos"}, fields[1])
	assert.Equal(t, models.Field{Name: "postalCode", Label: "Postal Code"}, fields[4])
	assert.Equal(t, "1.5", fields[5].Value)
	assert.Empty(t, fields[6].Value)

	bank := models.Fields(&models.BankAccountForm{})
	assert.True(t, bank[0].ReadOnly)
	assert.False(t, bank[1].ReadOnly)

	assert.Nil(t, models.Fields(nil))
}

func TestStepKey(t *testing.T) {
	t.Parallel()

	step, err := models.ParseStepKey("bank_account")
	require.NoError(t, err)
	assert.Equal(t, models.StepBankAccount, step)
	assert.Equal(t, 2, step.Index())

	_, err = models.ParseStepKey("payroll")
	require.Error(t, err)

	buf := []byte("address")
	step, err = models.ParseStepKey(unsafe.String(&buf[0], len(buf)))
	require.NoError(t, err)
	copy(buf, "xxxxxxx")
	assert.Equal(t, models.StepAddress, step)

	for _, key := range models.StepOrder {
		payload, err := models.NewPayload(key)
		require.NoError(t, err)
		assert.Equal(t, key, payload.Step())
	}
}
