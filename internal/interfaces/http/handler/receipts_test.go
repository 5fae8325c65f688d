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
	printingapp "github.com/schoolerp/backend/internal/application/printing"
	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/domain/ledger"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
	"github.com/schoolerp/backend/internal/domain/students"
	"github.com/schoolerp/backend/internal/infrastructure/config"
	"github.com/schoolerp/backend/internal/infrastructure/printing"
	"github.com/schoolerp/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type receiptHandlerFixture struct {
	engine      *gin.Engine
	paymentRepo *MockPaymentRepository
	receiptRepo *MockReceiptRepository
	feeRepo     *MockFeeRepository
	studentRepo *MockStudentRepository
	schoolID    uuid.UUID
	userID      uuid.UUID
}

func newReceiptHandlerFixture(t *testing.T, withPrinting bool) *receiptHandlerFixture {
	t.Helper()
	f := &receiptHandlerFixture{
		paymentRepo: new(MockPaymentRepository),
		receiptRepo: new(MockReceiptRepository),
		feeRepo:     new(MockFeeRepository),
		studentRepo: new(MockStudentRepository),
		schoolID:    uuid.New(),
		userID:      uuid.New(),
	}
	service := ledgerapp.NewLedgerService(f.paymentRepo, f.receiptRepo, f.feeRepo, f.studentRepo, &MockTxManager{})

	var printService *printingapp.ReceiptPrintService
	if withPrinting {
		printer, err := printing.NewReceiptPrinter(nil)
		require.NoError(t, err)
		printService = printingapp.NewReceiptPrintService(
			f.receiptRepo, f.paymentRepo, f.studentRepo, printer,
			config.PrintingConfig{SchoolName: "Greenhill Academy"},
		)
	}

	h := NewReceiptHandler(service, printService)
	f.engine = newAuthedEngine(f.schoolID, f.userID, func(rg *gin.RouterGroup) {
		rg.POST("/fees/receipts", h.Issue)
		rg.GET("/fees/receipts/:id", h.GetByID)
		rg.GET("/fees/receipts/:id/print", h.Print)
		rg.GET("/fees/payments/:id/receipt", h.GetByPayment)
	})
	return f
}

func (f *receiptHandlerFixture) receipt(t *testing.T, sequence int64) *ledger.Receipt {
	t.Helper()
	studentID := uuid.New()
	receipt, err := ledger.NewReceipt(f.schoolID, sequence, ledger.ReceiptInput{
		StudentID:   &studentID,
		ReceiptType: fees.FeeTypeTuition,
		Amount:      valueobject.NewMoneyFromFloat(600000),
		IssuedBy:    "bursar",
		DateIssued:  time.Now(),
	})
	require.NoError(t, err)
	return receipt
}

func TestReceiptHandler_Issue(t *testing.T) {
	f := newReceiptHandlerFixture(t, false)

	f.receiptRepo.On("NextSequence", mock.Anything, f.schoolID).Return(int64(12), nil)
	f.receiptRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Receipt")).Return(nil)

	body, _ := json.Marshal(gin.H{
		"student_id":   uuid.New().String(),
		"receipt_type": "tuition",
		"amount":       600000,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/fees/receipts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	payload := resp.Data.(map[string]interface{})
	assert.Equal(t, "R-000012", payload["receipt_number"])
}

func TestReceiptHandler_Issue_BothSubjectsRejected(t *testing.T) {
	f := newReceiptHandlerFixture(t, false)

	f.receiptRepo.On("NextSequence", mock.Anything, f.schoolID).Return(int64(13), nil)

	body, _ := json.Marshal(gin.H{
		"student_id":      uuid.New().String(),
		"registration_id": uuid.New().String(),
		"receipt_type":    "tuition",
		"amount":          1000,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/fees/receipts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.receiptRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReceiptHandler_Issue_DuplicateForPayment(t *testing.T) {
	f := newReceiptHandlerFixture(t, false)

	paymentID := uuid.New()
	studentID := uuid.New()
	payment, err := ledger.NewPayment(
		f.schoolID, studentID, uuid.New(),
		valueobject.NewMoneyFromFloat(1000), time.Now(), ledger.PaymentMethodCash,
	)
	require.NoError(t, err)

	f.paymentRepo.On("FindByIDForSchool", mock.Anything, f.schoolID, paymentID).Return(payment, nil)
	f.receiptRepo.On("ExistsByPaymentID", mock.Anything, f.schoolID, paymentID).Return(true, nil)

	body, _ := json.Marshal(gin.H{
		"student_id":   studentID.String(),
		"payment_id":   paymentID.String(),
		"receipt_type": "tuition",
		"amount":       1000,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/fees/receipts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeConflict, resp.Error.Code)
}

func TestReceiptHandler_GetByPayment_NotFound(t *testing.T) {
	f := newReceiptHandlerFixture(t, false)

	paymentID := uuid.New()
	f.receiptRepo.On("FindByPaymentID", mock.Anything, f.schoolID, paymentID).Return(nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/fees/payments/"+paymentID.String()+"/receipt", nil)
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReceiptHandler_Print_HTML(t *testing.T) {
	f := newReceiptHandlerFixture(t, true)

	receipt := f.receipt(t, 42)
	student := &students.Student{
		BaseEntity: shared.NewBaseEntity(),
		SchoolID:   f.schoolID,
		FirstName:  "Ama",
		LastName:   "Mensah",
		Active:     true,
	}

	f.receiptRepo.On("FindByIDForSchool", mock.Anything, f.schoolID, receipt.ID).Return(receipt, nil)
	f.studentRepo.On("FindByIDForSchool", mock.Anything, f.schoolID, *receipt.StudentID).Return(student, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/fees/receipts/"+receipt.ID.String()+"/print", nil)
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	html := w.Body.String()
	assert.Contains(t, html, "R-000042")
	assert.Contains(t, html, "Greenhill Academy")
	assert.Contains(t, html, "Ama Mensah")
}

func TestReceiptHandler_Print_PDFWithoutRenderer(t *testing.T) {
	f := newReceiptHandlerFixture(t, true)

	receipt := f.receipt(t, 7)
	student := &students.Student{
		BaseEntity: shared.NewBaseEntity(),
		SchoolID:   f.schoolID,
		FirstName:  "Ama",
		LastName:   "Mensah",
		Active:     true,
	}

	f.receiptRepo.On("FindByIDForSchool", mock.Anything, f.schoolID, receipt.ID).Return(receipt, nil)
	f.studentRepo.On("FindByIDForSchool", mock.Anything, f.schoolID, *receipt.StudentID).Return(student, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/fees/receipts/"+receipt.ID.String()+"/print?format=pdf", nil)
	f.engine.ServeHTTP(w, req)

	// HTML rendering needs no Chrome; PDF without a renderer fails cleanly
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestReceiptHandler_Print_Disabled(t *testing.T) {
	f := newReceiptHandlerFixture(t, false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/fees/receipts/"+uuid.New().String()+"/print", nil)
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
