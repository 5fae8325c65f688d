package fees

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/domain/ledger"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type MockFeeRepository struct {
	mock.Mock
}

func (m *MockFeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*fees.FeeDefinition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fees.FeeDefinition), args.Error(1)
}

func (m *MockFeeRepository) FindByIDForSchool(ctx context.Context, schoolID, id uuid.UUID) (*fees.FeeDefinition, error) {
	args := m.Called(ctx, schoolID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fees.FeeDefinition), args.Error(1)
}

func (m *MockFeeRepository) FindByIDForUpdate(ctx context.Context, schoolID, id uuid.UUID) (*fees.FeeDefinition, error) {
	args := m.Called(ctx, schoolID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fees.FeeDefinition), args.Error(1)
}

func (m *MockFeeRepository) FindForScope(ctx context.Context, schoolID uuid.UUID, categoryID, classID uuid.UUID, feeType fees.FeeType, academicYear string) (*fees.FeeDefinition, error) {
	args := m.Called(ctx, schoolID, categoryID, classID, feeType, academicYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fees.FeeDefinition), args.Error(1)
}

func (m *MockFeeRepository) ExistsForScope(ctx context.Context, schoolID uuid.UUID, scope fees.Scope) (bool, error) {
	args := m.Called(ctx, schoolID, scope)
	return args.Get(0).(bool), args.Error(1)
}

func (m *MockFeeRepository) FindAllForSchool(ctx context.Context, schoolID uuid.UUID, filter fees.Filter) ([]fees.FeeDefinition, error) {
	args := m.Called(ctx, schoolID, filter)
	return args.Get(0).([]fees.FeeDefinition), args.Error(1)
}

func (m *MockFeeRepository) CountForSchool(ctx context.Context, schoolID uuid.UUID, filter fees.Filter) (int64, error) {
	args := m.Called(ctx, schoolID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFeeRepository) Save(ctx context.Context, fee *fees.FeeDefinition) error {
	args := m.Called(ctx, fee)
	return args.Error(0)
}

func (m *MockFeeRepository) Delete(ctx context.Context, schoolID, id uuid.UUID) error {
	args := m.Called(ctx, schoolID, id)
	return args.Error(0)
}

// MockPaymentRepository implements only the subset the fee service touches;
// the rest panic if reached.
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Payment, error) {
	panic("not used by fee service")
}

func (m *MockPaymentRepository) FindByIDForSchool(ctx context.Context, schoolID, id uuid.UUID) (*ledger.Payment, error) {
	panic("not used by fee service")
}

func (m *MockPaymentRepository) FindAllForSchool(ctx context.Context, schoolID uuid.UUID, filter ledger.PaymentFilter) ([]ledger.Payment, error) {
	panic("not used by fee service")
}

func (m *MockPaymentRepository) CountForSchool(ctx context.Context, schoolID uuid.UUID, filter ledger.PaymentFilter) (int64, error) {
	panic("not used by fee service")
}

func (m *MockPaymentRepository) SumForStudentAndFee(ctx context.Context, schoolID, studentID, feeID uuid.UUID) (decimal.Decimal, error) {
	panic("not used by fee service")
}

func (m *MockPaymentRepository) SumByFee(ctx context.Context, schoolID, studentID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	panic("not used by fee service")
}

func (m *MockPaymentRepository) CountByFee(ctx context.Context, schoolID, feeID uuid.UUID) (int64, error) {
	args := m.Called(ctx, schoolID, feeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *ledger.Payment) error {
	panic("not used by fee service")
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *ledger.Payment) error {
	panic("not used by fee service")
}

func (m *MockPaymentRepository) Delete(ctx context.Context, schoolID, id uuid.UUID) error {
	panic("not used by fee service")
}

// =============================================================================
// Tests
// =============================================================================

func newFeeService() (*FeeService, *MockFeeRepository, *MockPaymentRepository, uuid.UUID) {
	feeRepo := new(MockFeeRepository)
	paymentRepo := new(MockPaymentRepository)
	return NewFeeService(feeRepo, paymentRepo), feeRepo, paymentRepo, uuid.New()
}

func TestCreateFee_Success(t *testing.T) {
	svc, feeRepo, _, schoolID := newFeeService()

	feeRepo.On("ExistsForScope", mock.Anything, schoolID, mock.AnythingOfType("fees.Scope")).Return(false, nil)
	feeRepo.On("Save", mock.Anything, mock.AnythingOfType("*fees.FeeDefinition")).Return(nil)

	resp, err := svc.CreateFee(context.Background(), schoolID, CreateFeeRequest{
		CategoryID:   uuid.New(),
		FeeType:      "tuition",
		Amount:       valueobject.NewMoneyFromFloat(1500),
		AcademicYear: "2026/2027",
	})

	require.NoError(t, err)
	assert.Equal(t, "tuition", resp.FeeType)
	assert.Equal(t, "1500.00", resp.Amount.StringFixed())
	feeRepo.AssertExpectations(t)
}

func TestCreateFee_DuplicateScopeRejected(t *testing.T) {
	svc, feeRepo, _, schoolID := newFeeService()

	feeRepo.On("ExistsForScope", mock.Anything, schoolID, mock.AnythingOfType("fees.Scope")).Return(true, nil)

	_, err := svc.CreateFee(context.Background(), schoolID, CreateFeeRequest{
		CategoryID:   uuid.New(),
		FeeType:      "tuition",
		Amount:       valueobject.NewMoneyFromFloat(1500),
		AcademicYear: "2026/2027",
	})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	feeRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateFee_InvalidTypeRejected(t *testing.T) {
	svc, feeRepo, _, schoolID := newFeeService()

	feeRepo.On("ExistsForScope", mock.Anything, schoolID, mock.AnythingOfType("fees.Scope")).Return(false, nil)

	_, err := svc.CreateFee(context.Background(), schoolID, CreateFeeRequest{
		CategoryID: uuid.New(),
		FeeType:    "donation",
		Amount:     valueobject.NewMoneyFromFloat(1500),
	})

	assert.Error(t, err)
}

func TestGetFeeForScope_NotFound(t *testing.T) {
	svc, feeRepo, _, schoolID := newFeeService()
	categoryID, classID := uuid.New(), uuid.New()

	feeRepo.On("FindForScope", mock.Anything, schoolID, categoryID, classID, fees.FeeTypeExam, "2026/2027").
		Return(nil, nil)

	_, err := svc.GetFeeForScope(context.Background(), schoolID, categoryID, classID, "exam", "2026/2027")

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestGetFeeForScope_ResolvesThroughRepository(t *testing.T) {
	svc, feeRepo, _, schoolID := newFeeService()
	categoryID, classID := uuid.New(), uuid.New()

	fee, err := fees.NewFeeDefinition(schoolID,
		fees.Scope{CategoryID: categoryID, ClassID: &classID, FeeType: fees.FeeTypeTuition, AcademicYear: "2026/2027"},
		valueobject.NewMoneyFromFloat(1200), "")
	require.NoError(t, err)

	feeRepo.On("FindForScope", mock.Anything, schoolID, categoryID, classID, fees.FeeTypeTuition, "2026/2027").
		Return(fee, nil)

	resp, err := svc.GetFeeForScope(context.Background(), schoolID, categoryID, classID, "tuition", "2026/2027")
	require.NoError(t, err)
	assert.Equal(t, fee.ID, resp.ID)
}

func TestUpdateFee_AmountLockedOncePaid(t *testing.T) {
	svc, feeRepo, paymentRepo, schoolID := newFeeService()

	fee, err := fees.NewFeeDefinition(schoolID,
		fees.Scope{CategoryID: uuid.New(), FeeType: fees.FeeTypeTuition, AcademicYear: "2026/2027"},
		valueobject.NewMoneyFromFloat(1000), "")
	require.NoError(t, err)

	feeRepo.On("FindByIDForSchool", mock.Anything, schoolID, fee.ID).Return(fee, nil)
	paymentRepo.On("CountByFee", mock.Anything, schoolID, fee.ID).Return(int64(3), nil)

	amount := valueobject.NewMoneyFromFloat(1200)
	_, err = svc.UpdateFee(context.Background(), schoolID, fee.ID, UpdateFeeRequest{Amount: &amount})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONFLICT", domainErr.Code)
}

func TestUpdateFee_DescriptionAlwaysChangeable(t *testing.T) {
	svc, feeRepo, _, schoolID := newFeeService()

	fee, err := fees.NewFeeDefinition(schoolID,
		fees.Scope{CategoryID: uuid.New(), FeeType: fees.FeeTypeTuition, AcademicYear: "2026/2027"},
		valueobject.NewMoneyFromFloat(1000), "old")
	require.NoError(t, err)

	feeRepo.On("FindByIDForSchool", mock.Anything, schoolID, fee.ID).Return(fee, nil)
	feeRepo.On("Save", mock.Anything, fee).Return(nil)

	desc := "Term 1 tuition"
	resp, err := svc.UpdateFee(context.Background(), schoolID, fee.ID, UpdateFeeRequest{Description: &desc})

	require.NoError(t, err)
	assert.Equal(t, "Term 1 tuition", resp.Description)
}

func TestDeleteFee_InUseRejected(t *testing.T) {
	svc, feeRepo, paymentRepo, schoolID := newFeeService()

	fee, err := fees.NewFeeDefinition(schoolID,
		fees.Scope{CategoryID: uuid.New(), FeeType: fees.FeeTypeTuition, AcademicYear: "2026/2027"},
		valueobject.NewMoneyFromFloat(1000), "")
	require.NoError(t, err)

	feeRepo.On("FindByIDForSchool", mock.Anything, schoolID, fee.ID).Return(fee, nil)
	paymentRepo.On("CountByFee", mock.Anything, schoolID, fee.ID).Return(int64(1), nil)

	err = svc.DeleteFee(context.Background(), schoolID, fee.ID)

	require.Error(t, err)
	feeRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteFee_UnusedFeeDeleted(t *testing.T) {
	svc, feeRepo, paymentRepo, schoolID := newFeeService()

	fee, err := fees.NewFeeDefinition(schoolID,
		fees.Scope{CategoryID: uuid.New(), FeeType: fees.FeeTypeOther, AcademicYear: "2026/2027"},
		valueobject.NewMoneyFromFloat(20), "")
	require.NoError(t, err)

	feeRepo.On("FindByIDForSchool", mock.Anything, schoolID, fee.ID).Return(fee, nil)
	paymentRepo.On("CountByFee", mock.Anything, schoolID, fee.ID).Return(int64(0), nil)
	feeRepo.On("Delete", mock.Anything, schoolID, fee.ID).Return(nil)

	require.NoError(t, svc.DeleteFee(context.Background(), schoolID, fee.ID))
	feeRepo.AssertExpectations(t)
}
