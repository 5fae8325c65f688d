package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/billing"
	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/domain/ledger"
	"github.com/schoolerp/backend/internal/domain/students"
	"github.com/schoolerp/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newAuthedEngine builds a test engine with JWT context values injected,
// mimicking what the auth middleware sets on real requests.
func newAuthedEngine(schoolID, userID uuid.UUID, register func(rg *gin.RouterGroup)) *gin.Engine {
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set(middleware.JWTSchoolIDKey, schoolID.String())
		c.Set(middleware.JWTUserIDKey, userID.String())
		c.Set(middleware.JWTUsernameKey, "bursar")
		c.Next()
	})
	register(engine.Group("/api/v1"))
	return engine
}

// MockFeeRepository implements fees.Repository for testing
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

// MockPaymentRepository implements ledger.PaymentRepository for testing
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByIDForSchool(ctx context.Context, schoolID, id uuid.UUID) (*ledger.Payment, error) {
	args := m.Called(ctx, schoolID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAllForSchool(ctx context.Context, schoolID uuid.UUID, filter ledger.PaymentFilter) ([]ledger.Payment, error) {
	args := m.Called(ctx, schoolID, filter)
	return args.Get(0).([]ledger.Payment), args.Error(1)
}

func (m *MockPaymentRepository) CountForSchool(ctx context.Context, schoolID uuid.UUID, filter ledger.PaymentFilter) (int64, error) {
	args := m.Called(ctx, schoolID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) SumForStudentAndFee(ctx context.Context, schoolID, studentID, feeID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, schoolID, studentID, feeID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPaymentRepository) SumByFee(ctx context.Context, schoolID, studentID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	args := m.Called(ctx, schoolID, studentID)
	return args.Get(0).(map[uuid.UUID]decimal.Decimal), args.Error(1)
}

func (m *MockPaymentRepository) CountByFee(ctx context.Context, schoolID, feeID uuid.UUID) (int64, error) {
	args := m.Called(ctx, schoolID, feeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *ledger.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *ledger.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) Delete(ctx context.Context, schoolID, id uuid.UUID) error {
	args := m.Called(ctx, schoolID, id)
	return args.Error(0)
}

// MockReceiptRepository implements ledger.ReceiptRepository for testing
type MockReceiptRepository struct {
	mock.Mock
}

func (m *MockReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Receipt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) FindByIDForSchool(ctx context.Context, schoolID, id uuid.UUID) (*ledger.Receipt, error) {
	args := m.Called(ctx, schoolID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) FindByPaymentID(ctx context.Context, schoolID, paymentID uuid.UUID) (*ledger.Receipt, error) {
	args := m.Called(ctx, schoolID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) ExistsByPaymentID(ctx context.Context, schoolID, paymentID uuid.UUID) (bool, error) {
	args := m.Called(ctx, schoolID, paymentID)
	return args.Get(0).(bool), args.Error(1)
}

func (m *MockReceiptRepository) FindAllForSchool(ctx context.Context, schoolID uuid.UUID, filter ledger.ReceiptFilter) ([]ledger.Receipt, error) {
	args := m.Called(ctx, schoolID, filter)
	return args.Get(0).([]ledger.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) CountForSchool(ctx context.Context, schoolID uuid.UUID, filter ledger.ReceiptFilter) (int64, error) {
	args := m.Called(ctx, schoolID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReceiptRepository) NextSequence(ctx context.Context, schoolID uuid.UUID) (int64, error) {
	args := m.Called(ctx, schoolID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReceiptRepository) Create(ctx context.Context, receipt *ledger.Receipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

// MockStudentRepository implements students.Repository for testing
type MockStudentRepository struct {
	mock.Mock
}

func (m *MockStudentRepository) FindByIDForSchool(ctx context.Context, schoolID, id uuid.UUID) (*students.Student, error) {
	args := m.Called(ctx, schoolID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*students.Student), args.Error(1)
}

func (m *MockStudentRepository) ExistsForSchool(ctx context.Context, schoolID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, schoolID, id)
	return args.Get(0).(bool), args.Error(1)
}

// MockInvoiceRepository implements billing.Repository for testing
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDForSchool(ctx context.Context, schoolID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, schoolID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDForUpdate(ctx context.Context, schoolID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, schoolID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, schoolID uuid.UUID, invoiceNumber string) (*billing.Invoice, error) {
	args := m.Called(ctx, schoolID, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAllForSchool(ctx context.Context, schoolID uuid.UUID, filter billing.Filter) ([]billing.Invoice, error) {
	args := m.Called(ctx, schoolID, filter)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) CountForSchool(ctx context.Context, schoolID uuid.UUID, filter billing.Filter) (int64, error) {
	args := m.Called(ctx, schoolID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) NextInvoiceNumber(ctx context.Context, schoolID uuid.UUID, year int) (string, error) {
	args := m.Called(ctx, schoolID, year)
	return args.Get(0).(string), args.Error(1)
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice, replaceItems bool) error {
	args := m.Called(ctx, invoice, replaceItems)
	return args.Error(0)
}

func (m *MockInvoiceRepository) AppendPayment(ctx context.Context, invoice *billing.Invoice, payment *billing.InvoicePayment) error {
	args := m.Called(ctx, invoice, payment)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, schoolID, id uuid.UUID) error {
	args := m.Called(ctx, schoolID, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Summarize(ctx context.Context, schoolID uuid.UUID) (*billing.Summary, error) {
	args := m.Called(ctx, schoolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Summary), args.Error(1)
}

// MockTxManager runs the callback inline without a real transaction
type MockTxManager struct{}

func (m *MockTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
