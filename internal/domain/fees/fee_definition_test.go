package fees

import (
	"testing"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeeType_IsValid(t *testing.T) {
	valid := []FeeType{FeeTypeRegistration, FeeTypeAdmission, FeeTypeTuition, FeeTypeExam, FeeTypeOther}
	for _, ft := range valid {
		assert.True(t, ft.IsValid(), "%s should be valid", ft)
	}
	assert.False(t, FeeType("donation").IsValid())
	assert.False(t, FeeType("").IsValid())
}

func TestNewFeeDefinition_Validation(t *testing.T) {
	classID := uuid.New()

	tests := []struct {
		name    string
		scope   Scope
		amount  float64
		wantErr bool
	}{
		{
			"valid class-specific fee",
			Scope{CategoryID: uuid.New(), ClassID: &classID, FeeType: FeeTypeTuition, AcademicYear: "2026/2027"},
			1500, false,
		},
		{
			"valid wildcard fee",
			Scope{CategoryID: uuid.New(), FeeType: FeeTypeRegistration, AcademicYear: "2026/2027"},
			100, false,
		},
		{
			"missing category",
			Scope{FeeType: FeeTypeTuition, AcademicYear: "2026/2027"},
			1500, true,
		},
		{
			"invalid fee type",
			Scope{CategoryID: uuid.New(), FeeType: "donation"},
			1500, true,
		},
		{
			"zero amount",
			Scope{CategoryID: uuid.New(), FeeType: FeeTypeTuition},
			0, true,
		},
		{
			"negative amount",
			Scope{CategoryID: uuid.New(), FeeType: FeeTypeTuition},
			-50, true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, err := NewFeeDefinition(uuid.New(), tt.scope, valueobject.NewMoneyFromFloat(tt.amount), "desc")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.scope.CategoryID, fee.CategoryID)
			assert.Equal(t, tt.scope.IsWildcard(), fee.Scope().IsWildcard())
		})
	}
}

func TestScope_IsWildcard(t *testing.T) {
	classID := uuid.New()
	assert.True(t, Scope{CategoryID: uuid.New(), FeeType: FeeTypeTuition}.IsWildcard())
	assert.False(t, Scope{CategoryID: uuid.New(), ClassID: &classID, FeeType: FeeTypeTuition}.IsWildcard())
}

func TestFeeDefinition_ChangeAmount(t *testing.T) {
	fee, err := NewFeeDefinition(uuid.New(),
		Scope{CategoryID: uuid.New(), FeeType: FeeTypeExam, AcademicYear: "2026/2027"},
		valueobject.NewMoneyFromFloat(75), "Exam fee")
	require.NoError(t, err)

	require.NoError(t, fee.ChangeAmount(valueobject.NewMoneyFromFloat(90)))
	assert.True(t, fee.Amount.Equal(decimal.NewFromFloat(90)))

	assert.Error(t, fee.ChangeAmount(valueobject.NewMoneyFromFloat(-1)))
}
