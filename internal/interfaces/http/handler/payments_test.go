package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ledgerapp "github.com/schoolerp/backend/internal/application/ledger"
	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
	"github.com/schoolerp/backend/internal/domain/students"
	"github.com/schoolerp/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type paymentHandlerFixture struct {
	engine      *gin.Engine
	paymentRepo *MockPaymentRepository
	receiptRepo *MockReceiptRepository
	feeRepo     *MockFeeRepository
	studentRepo *MockStudentRepository
	schoolID    uuid.UUID
	userID      uuid.UUID
}

func newPaymentHandlerFixture() *paymentHandlerFixture {
	f := &paymentHandlerFixture{
		paymentRepo: new(MockPaymentRepository),
		receiptRepo: new(MockReceiptRepository),
		feeRepo:     new(MockFeeRepository),
		studentRepo: new(MockStudentRepository),
		schoolID:    uuid.New(),
		userID:      uuid.New(),
	}
	service := ledgerapp.NewLedgerService(f.paymentRepo, f.receiptRepo, f.feeRepo, f.studentRepo, &MockTxManager{})
	h := NewPaymentHandler(service)
	f.engine = newAuthedEngine(f.schoolID, f.userID, func(rg *gin.RouterGroup) {
		rg.POST("/fees/payments", h.Record)
		rg.GET("/fees/payments/:id", h.GetByID)
		rg.GET("/fees/outstanding/:studentId", h.Outstanding)
	})
	return f
}

func (f *paymentHandlerFixture) fee(t *testing.T, amount float64) *fees.FeeDefinition {
	t.Helper()
	fee, err := fees.NewFeeDefinition(
		f.schoolID,
		fees.Scope{CategoryID: uuid.New(), FeeType: fees.FeeTypeTuition, AcademicYear: "2026/2027"},
		valueobject.NewMoneyFromFloat(amount),
		"Tuition",
	)
	require.NoError(t, err)
	return fee
}

func (f *paymentHandlerFixture) student() *students.Student {
	return &students.Student{
		BaseEntity: shared.NewBaseEntity(),
		SchoolID:   f.schoolID,
		FirstName:  "Ama",
		LastName:   "Mensah",
		Active:     true,
	}
}

func (f *paymentHandlerFixture) recordPayment(t *testing.T, body gin.H) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/fees/payments", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	f.engine.ServeHTTP(w, req)
	return w
}

func TestPaymentHandler_Record_Partial(t *testing.T) {
	f := newPaymentHandlerFixture()

	fee := f.fee(t, 600000)
	student := f.student()

	f.feeRepo.On("FindByIDForUpdate", mock.Anything, f.schoolID, fee.ID).Return(fee, nil)
	f.studentRepo.On("FindByIDForSchool", mock.Anything, f.schoolID, student.ID).Return(student, nil)
	f.paymentRepo.On("SumForStudentAndFee", mock.Anything, f.schoolID, student.ID, fee.ID).
		Return(decimal.Zero, nil)
	f.paymentRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Payment")).Return(nil)

	w := f.recordPayment(t, gin.H{
		"student_id":   student.ID.String(),
		"fee_id":       fee.ID.String(),
		"amount":       250000,
		"payment_date": time.Now().Format(time.RFC3339),
		"method":       "CASH",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, false, data["is_paid_in_full"])
	assert.Nil(t, data["receipt"])
	f.receiptRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPaymentHandler_Record_FullSettlementIssuesReceipt(t *testing.T) {
	f := newPaymentHandlerFixture()

	fee := f.fee(t, 600000)
	student := f.student()

	f.feeRepo.On("FindByIDForUpdate", mock.Anything, f.schoolID, fee.ID).Return(fee, nil)
	f.studentRepo.On("FindByIDForSchool", mock.Anything, f.schoolID, student.ID).Return(student, nil)
	f.paymentRepo.On("SumForStudentAndFee", mock.Anything, f.schoolID, student.ID, fee.ID).
		Return(decimal.NewFromInt(400000), nil)
	f.paymentRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Payment")).Return(nil)
	f.receiptRepo.On("NextSequence", mock.Anything, f.schoolID).Return(int64(7), nil)
	f.receiptRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Receipt")).Return(nil)

	w := f.recordPayment(t, gin.H{
		"student_id":   student.ID.String(),
		"fee_id":       fee.ID.String(),
		"amount":       200000,
		"payment_date": time.Now().Format(time.RFC3339),
		"method":       "MOBILE_MONEY",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["is_paid_in_full"])

	receipt := data["receipt"].(map[string]interface{})
	assert.Equal(t, "R-000007", receipt["receipt_number"])
	f.receiptRepo.AssertExpectations(t)
}

func TestPaymentHandler_Record_Overpayment(t *testing.T) {
	f := newPaymentHandlerFixture()

	fee := f.fee(t, 600000)
	student := f.student()

	f.feeRepo.On("FindByIDForUpdate", mock.Anything, f.schoolID, fee.ID).Return(fee, nil)
	f.studentRepo.On("FindByIDForSchool", mock.Anything, f.schoolID, student.ID).Return(student, nil)
	f.paymentRepo.On("SumForStudentAndFee", mock.Anything, f.schoolID, student.ID, fee.ID).
		Return(decimal.NewFromInt(500000), nil)

	w := f.recordPayment(t, gin.H{
		"student_id":   student.ID.String(),
		"fee_id":       fee.ID.String(),
		"amount":       200000,
		"payment_date": time.Now().Format(time.RFC3339),
		"method":       "CASH",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeOverpayment, resp.Error.Code)
	f.paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPaymentHandler_Record_UnknownFee(t *testing.T) {
	f := newPaymentHandlerFixture()

	feeID := uuid.New()
	f.feeRepo.On("FindByIDForUpdate", mock.Anything, f.schoolID, feeID).Return(nil, nil)

	w := f.recordPayment(t, gin.H{
		"student_id":   uuid.New().String(),
		"fee_id":       feeID.String(),
		"amount":       1000,
		"payment_date": time.Now().Format(time.RFC3339),
		"method":       "CASH",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaymentHandler_Outstanding(t *testing.T) {
	f := newPaymentHandlerFixture()

	fee := f.fee(t, 600000)
	student := f.student()

	f.studentRepo.On("FindByIDForSchool", mock.Anything, f.schoolID, student.ID).Return(student, nil)
	f.feeRepo.On("FindAllForSchool", mock.Anything, f.schoolID, mock.Anything).
		Return([]fees.FeeDefinition{*fee}, nil)
	f.paymentRepo.On("SumByFee", mock.Anything, f.schoolID, student.ID).
		Return(map[uuid.UUID]decimal.Decimal{fee.ID: decimal.NewFromInt(150000)}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/fees/outstanding/"+student.ID.String()+"?academic_year=2026/2027", nil)
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	list := resp.Data.([]interface{})
	require.Len(t, list, 1)
	entry := list[0].(map[string]interface{})
	assert.Equal(t, float64(150000), entry["total_paid"])
	assert.Equal(t, float64(450000), entry["outstanding"])
}

func TestPaymentHandler_GetByID_NotFound(t *testing.T) {
	f := newPaymentHandlerFixture()

	id := uuid.New()
	f.paymentRepo.On("FindByIDForSchool", mock.Anything, f.schoolID, id).Return(nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/fees/payments/"+id.String(), nil)
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
