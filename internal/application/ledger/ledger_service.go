package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/domain/ledger"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
	"github.com/schoolerp/backend/internal/domain/students"
	"github.com/shopspring/decimal"
)

// LedgerService provides application-level payment and receipt operations
type LedgerService struct {
	paymentRepo ledger.PaymentRepository
	receiptRepo ledger.ReceiptRepository
	feeRepo     fees.Repository
	studentRepo students.Repository
	txManager   shared.TransactionManager
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	paymentRepo ledger.PaymentRepository,
	receiptRepo ledger.ReceiptRepository,
	feeRepo fees.Repository,
	studentRepo students.Repository,
	txManager shared.TransactionManager,
) *LedgerService {
	return &LedgerService{
		paymentRepo: paymentRepo,
		receiptRepo: receiptRepo,
		feeRepo:     feeRepo,
		studentRepo: studentRepo,
		txManager:   txManager,
	}
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID                   uuid.UUID         `json:"id"`
	SchoolID             uuid.UUID         `json:"school_id"`
	StudentID            uuid.UUID         `json:"student_id"`
	FeeID                uuid.UUID         `json:"fee_id"`
	AmountPaid           valueobject.Money `json:"amount_paid"`
	PaymentDate          time.Time         `json:"payment_date"`
	Method               string            `json:"method"`
	TransactionReference string            `json:"transaction_reference,omitempty"`
	InstallmentNumber    int               `json:"installment_number"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
	Version              int               `json:"version"`
}

// ReceiptResponse represents a receipt in API responses
type ReceiptResponse struct {
	ID             uuid.UUID         `json:"id"`
	SchoolID       uuid.UUID         `json:"school_id"`
	ReceiptNumber  string            `json:"receipt_number"`
	StudentID      *uuid.UUID        `json:"student_id,omitempty"`
	RegistrationID *uuid.UUID        `json:"registration_id,omitempty"`
	PaymentID      *uuid.UUID        `json:"payment_id,omitempty"`
	ReceiptType    string            `json:"receipt_type"`
	Amount         valueobject.Money `json:"amount"`
	IssuedBy       string            `json:"issued_by,omitempty"`
	DateIssued     time.Time         `json:"date_issued"`
	Venue          string            `json:"venue,omitempty"`
	ExamDate       *time.Time        `json:"exam_date,omitempty"`
	LogoURL        string            `json:"logo_url,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// RecordPaymentRequest represents a request to record a payment toward a fee
type RecordPaymentRequest struct {
	StudentID            uuid.UUID         `json:"student_id"`
	FeeID                uuid.UUID         `json:"fee_id"`
	Amount               valueobject.Money `json:"amount"`
	PaymentDate          time.Time         `json:"payment_date"`
	Method               string            `json:"method"`
	TransactionReference string            `json:"transaction_reference"`
	InstallmentNumber    int               `json:"installment_number"`
	IssuedBy             string            `json:"issued_by"`
	RecordedBy           *uuid.UUID        `json:"-"` // Set from JWT context, not from request body
}

// RecordPaymentResult carries the recorded payment plus settlement info.
// Receipt is set only when this payment settled the fee in full.
type RecordPaymentResult struct {
	Payment      *PaymentResponse `json:"payment"`
	IsPaidInFull bool             `json:"is_paid_in_full"`
	Receipt      *ReceiptResponse `json:"receipt,omitempty"`
}

// UpdatePaymentRequest represents a request to amend an unreceipted payment
type UpdatePaymentRequest struct {
	Amount               *valueobject.Money `json:"amount"`
	PaymentDate          *time.Time         `json:"payment_date"`
	Method               *string            `json:"method"`
	TransactionReference *string            `json:"transaction_reference"`
}

// IssueReceiptRequest represents a request to issue a receipt explicitly,
// outside the automatic full-settlement path
type IssueReceiptRequest struct {
	StudentID      *uuid.UUID        `json:"student_id"`
	RegistrationID *uuid.UUID        `json:"registration_id"`
	PaymentID      *uuid.UUID        `json:"payment_id"`
	ReceiptType    string            `json:"receipt_type"`
	Amount         valueobject.Money `json:"amount"`
	IssuedBy       string            `json:"issued_by"`
	DateIssued     time.Time         `json:"date_issued"`
	Venue          string            `json:"venue"`
	ExamDate       *time.Time        `json:"exam_date"`
	LogoURL        string            `json:"logo_url"`
}

// PaymentListFilter defines filtering options for payment list queries
type PaymentListFilter struct {
	Search    string     `form:"search"`
	StudentID *uuid.UUID `form:"student_id"`
	FeeID     *uuid.UUID `form:"fee_id"`
	Method    string     `form:"method"`
	FromDate  *time.Time `form:"from_date"`
	ToDate    *time.Time `form:"to_date"`
	Page      int        `form:"page"`
	PageSize  int        `form:"page_size"`
}

// ReceiptListFilter defines filtering options for receipt list queries
type ReceiptListFilter struct {
	Search      string     `form:"search"`
	StudentID   *uuid.UUID `form:"student_id"`
	ReceiptType string     `form:"receipt_type"`
	FromDate    *time.Time `form:"from_date"`
	ToDate      *time.Time `form:"to_date"`
	Page        int        `form:"page"`
	PageSize    int        `form:"page_size"`
}

// OutstandingFeeResponse reports one fee's position for a student
type OutstandingFeeResponse struct {
	Fee         FeeSummary        `json:"fee"`
	TotalPaid   valueobject.Money `json:"total_paid"`
	Outstanding valueobject.Money `json:"outstanding"`
}

// FeeSummary is the slim fee projection embedded in outstanding-fee rows
type FeeSummary struct {
	ID           uuid.UUID         `json:"id"`
	CategoryID   uuid.UUID         `json:"category_id"`
	ClassID      *uuid.UUID        `json:"class_id,omitempty"`
	FeeType      string            `json:"fee_type"`
	Amount       valueobject.Money `json:"amount"`
	Description  string            `json:"description,omitempty"`
	AcademicYear string            `json:"academic_year,omitempty"`
}

// RecordPayment records a payment toward a fee. The whole operation runs in
// one transaction holding a FOR UPDATE lock on the fee row, so two concurrent
// payments against the same fee serialize and the overpayment check sees a
// stable cumulative sum. When the payment settles the fee in full a receipt
// is issued in the same transaction.
func (s *LedgerService) RecordPayment(ctx context.Context, schoolID uuid.UUID, req RecordPaymentRequest) (*RecordPaymentResult, error) {
	var result *RecordPaymentResult

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		fee, err := s.feeRepo.FindByIDForUpdate(txCtx, schoolID, req.FeeID)
		if err != nil {
			return err
		}
		if fee == nil {
			return shared.NewDomainError("NOT_FOUND", "Fee definition not found")
		}

		student, err := s.studentRepo.FindByIDForSchool(txCtx, schoolID, req.StudentID)
		if err != nil {
			return err
		}
		if student == nil {
			return shared.NewDomainError("NOT_FOUND", "Student not found")
		}

		totalPaid, err := s.paymentRepo.SumForStudentAndFee(txCtx, schoolID, req.StudentID, req.FeeID)
		if err != nil {
			return err
		}

		charge := ledger.FeeCharge{Fee: fee, TotalPaid: totalPaid}
		if err := ledger.ValidatePayment(charge, req.Amount.Amount()); err != nil {
			return err
		}

		payment, err := ledger.NewPayment(
			schoolID, req.StudentID, req.FeeID,
			req.Amount, req.PaymentDate, ledger.PaymentMethod(req.Method),
		)
		if err != nil {
			return err
		}
		payment.WithTransactionReference(req.TransactionReference).
			WithInstallmentNumber(req.InstallmentNumber)
		if req.RecordedBy != nil {
			payment.WithRecordedBy(*req.RecordedBy)
		}

		if err := s.paymentRepo.Create(txCtx, payment); err != nil {
			return err
		}

		result = &RecordPaymentResult{
			Payment:      toPaymentResponse(payment),
			IsPaidInFull: ledger.SettlesInFull(charge, req.Amount.Amount()),
		}

		if result.IsPaidInFull {
			receipt, err := s.issueReceiptInTx(txCtx, schoolID, ledger.ReceiptInput{
				StudentID:   &req.StudentID,
				PaymentID:   &payment.ID,
				ReceiptType: fee.FeeType,
				Amount:      valueobject.NewMoney(fee.Amount),
				IssuedBy:    req.IssuedBy,
				DateIssued:  payment.PaymentDate,
			})
			if err != nil {
				return err
			}
			result.Receipt = toReceiptResponse(receipt)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// issueReceiptInTx reserves the next sequence and persists the receipt.
// The caller's transaction guarantees the sequence is never reused.
func (s *LedgerService) issueReceiptInTx(ctx context.Context, schoolID uuid.UUID, in ledger.ReceiptInput) (*ledger.Receipt, error) {
	sequence, err := s.receiptRepo.NextSequence(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	receipt, err := ledger.NewReceipt(schoolID, sequence, in)
	if err != nil {
		return nil, err
	}
	if err := s.receiptRepo.Create(ctx, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// GetPaymentByID gets a payment by ID
func (s *LedgerService) GetPaymentByID(ctx context.Context, schoolID, id uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByIDForSchool(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Payment not found")
	}
	return toPaymentResponse(payment), nil
}

// ListPayments lists payments with filtering
func (s *LedgerService) ListPayments(ctx context.Context, schoolID uuid.UUID, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	domainFilter := ledger.PaymentFilter{
		StudentID: filter.StudentID,
		FeeID:     filter.FeeID,
		FromDate:  filter.FromDate,
		ToDate:    filter.ToDate,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.Search = filter.Search

	if filter.Method != "" {
		method := ledger.PaymentMethod(filter.Method)
		domainFilter.Method = &method
	}

	payments, err := s.paymentRepo.FindAllForSchool(ctx, schoolID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.paymentRepo.CountForSchool(ctx, schoolID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = *toPaymentResponse(&payments[i])
	}
	return responses, total, nil
}

// UpdatePayment amends a payment. A payment that already has a receipt is
// immutable. An amount change re-runs the overpayment check against the sum
// of the other payments for the same student and fee, under the fee row lock.
func (s *LedgerService) UpdatePayment(ctx context.Context, schoolID, id uuid.UUID, req UpdatePaymentRequest) (*PaymentResponse, error) {
	var response *PaymentResponse

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		payment, err := s.paymentRepo.FindByIDForSchool(txCtx, schoolID, id)
		if err != nil {
			return err
		}
		if payment == nil {
			return shared.NewDomainError("NOT_FOUND", "Payment not found")
		}

		receipted, err := s.receiptRepo.ExistsByPaymentID(txCtx, schoolID, id)
		if err != nil {
			return err
		}
		if receipted {
			return shared.NewConflictError("Cannot modify a payment that has a receipt issued against it")
		}

		if req.Amount != nil && !req.Amount.Amount().Equal(payment.AmountPaid) {
			fee, err := s.feeRepo.FindByIDForUpdate(txCtx, schoolID, payment.FeeID)
			if err != nil {
				return err
			}
			if fee == nil {
				return shared.NewDomainError("NOT_FOUND", "Fee definition not found")
			}

			totalPaid, err := s.paymentRepo.SumForStudentAndFee(txCtx, schoolID, payment.StudentID, payment.FeeID)
			if err != nil {
				return err
			}
			othersPaid := totalPaid.Sub(payment.AmountPaid)

			charge := ledger.FeeCharge{Fee: fee, TotalPaid: othersPaid}
			if err := ledger.ValidatePayment(charge, req.Amount.Amount()); err != nil {
				return err
			}
			if err := payment.ChangeAmount(*req.Amount); err != nil {
				return err
			}
		}

		if req.PaymentDate != nil && !req.PaymentDate.IsZero() {
			payment.PaymentDate = *req.PaymentDate
		}
		if req.Method != nil {
			method := ledger.PaymentMethod(*req.Method)
			if !method.IsValid() {
				return shared.NewValidationError("Payment method is not valid")
			}
			payment.Method = method
		}
		if req.TransactionReference != nil {
			payment.WithTransactionReference(*req.TransactionReference)
		}

		if err := s.paymentRepo.Save(txCtx, payment); err != nil {
			return err
		}
		response = toPaymentResponse(payment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// DeletePayment deletes a payment. A payment that already has a receipt
// cannot be deleted.
func (s *LedgerService) DeletePayment(ctx context.Context, schoolID, id uuid.UUID) error {
	payment, err := s.paymentRepo.FindByIDForSchool(ctx, schoolID, id)
	if err != nil {
		return err
	}
	if payment == nil {
		return shared.NewDomainError("NOT_FOUND", "Payment not found")
	}

	receipted, err := s.receiptRepo.ExistsByPaymentID(ctx, schoolID, id)
	if err != nil {
		return err
	}
	if receipted {
		return shared.NewConflictError("Cannot delete a payment that has a receipt issued against it")
	}

	return s.paymentRepo.Delete(ctx, schoolID, id)
}

// IssueReceipt issues a receipt explicitly, either linked to an existing
// payment or standalone for a registration. At most one receipt may exist
// per payment.
func (s *LedgerService) IssueReceipt(ctx context.Context, schoolID uuid.UUID, req IssueReceiptRequest) (*ReceiptResponse, error) {
	var response *ReceiptResponse

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if req.PaymentID != nil {
			payment, err := s.paymentRepo.FindByIDForSchool(txCtx, schoolID, *req.PaymentID)
			if err != nil {
				return err
			}
			if payment == nil {
				return shared.NewDomainError("NOT_FOUND", "Payment not found")
			}
			if req.StudentID != nil && payment.StudentID != *req.StudentID {
				return shared.NewValidationError("Payment belongs to a different student")
			}

			exists, err := s.receiptRepo.ExistsByPaymentID(txCtx, schoolID, *req.PaymentID)
			if err != nil {
				return err
			}
			if exists {
				return shared.NewConflictError("A receipt has already been issued for this payment")
			}
		}

		receipt, err := s.issueReceiptInTx(txCtx, schoolID, ledger.ReceiptInput{
			StudentID:      req.StudentID,
			RegistrationID: req.RegistrationID,
			PaymentID:      req.PaymentID,
			ReceiptType:    fees.FeeType(req.ReceiptType),
			Amount:         req.Amount,
			IssuedBy:       req.IssuedBy,
			DateIssued:     req.DateIssued,
			Venue:          req.Venue,
			ExamDate:       req.ExamDate,
			LogoURL:        req.LogoURL,
		})
		if err != nil {
			return err
		}
		response = toReceiptResponse(receipt)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// GetReceiptByID gets a receipt by ID
func (s *LedgerService) GetReceiptByID(ctx context.Context, schoolID, id uuid.UUID) (*ReceiptResponse, error) {
	receipt, err := s.receiptRepo.FindByIDForSchool(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Receipt not found")
	}
	return toReceiptResponse(receipt), nil
}

// GetReceiptByPaymentID gets the receipt issued for a payment, if any
func (s *LedgerService) GetReceiptByPaymentID(ctx context.Context, schoolID, paymentID uuid.UUID) (*ReceiptResponse, error) {
	receipt, err := s.receiptRepo.FindByPaymentID(ctx, schoolID, paymentID)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "No receipt has been issued for this payment")
	}
	return toReceiptResponse(receipt), nil
}

// ListReceipts lists receipts with filtering
func (s *LedgerService) ListReceipts(ctx context.Context, schoolID uuid.UUID, filter ReceiptListFilter) ([]ReceiptResponse, int64, error) {
	domainFilter := ledger.ReceiptFilter{
		StudentID: filter.StudentID,
		FromDate:  filter.FromDate,
		ToDate:    filter.ToDate,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.Search = filter.Search

	if filter.ReceiptType != "" {
		domainFilter.ReceiptType = &filter.ReceiptType
	}

	receipts, err := s.receiptRepo.FindAllForSchool(ctx, schoolID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.receiptRepo.CountForSchool(ctx, schoolID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ReceiptResponse, len(receipts))
	for i := range receipts {
		responses[i] = *toReceiptResponse(&receipts[i])
	}
	return responses, total, nil
}

// GetOutstandingFees reports every fee applicable to the student together
// with the cumulative amount paid and the outstanding remainder. A fee
// applies if its class matches the student's class or is a wildcard.
func (s *LedgerService) GetOutstandingFees(ctx context.Context, schoolID, studentID uuid.UUID, academicYear string) ([]OutstandingFeeResponse, error) {
	student, err := s.studentRepo.FindByIDForSchool(ctx, schoolID, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Student not found")
	}

	filter := fees.Filter{AcademicYear: academicYear}
	filter.PageSize = -1 // unpaginated
	applicable, err := s.feeRepo.FindAllForSchool(ctx, schoolID, filter)
	if err != nil {
		return nil, err
	}

	paidByFee, err := s.paymentRepo.SumByFee(ctx, schoolID, studentID)
	if err != nil {
		return nil, err
	}

	var responses []OutstandingFeeResponse
	for i := range applicable {
		fee := &applicable[i]
		if fee.ClassID != nil && (student.ClassID == nil || *fee.ClassID != *student.ClassID) {
			continue
		}
		paid := paidByFee[fee.ID]
		outstanding := fee.Amount.Sub(paid)
		if outstanding.LessThanOrEqual(decimal.Zero) {
			continue
		}
		responses = append(responses, OutstandingFeeResponse{
			Fee: FeeSummary{
				ID:           fee.ID,
				CategoryID:   fee.CategoryID,
				ClassID:      fee.ClassID,
				FeeType:      string(fee.FeeType),
				Amount:       valueobject.NewMoney(fee.Amount),
				Description:  fee.Description,
				AcademicYear: fee.AcademicYear,
			},
			TotalPaid:   valueobject.NewMoney(paid),
			Outstanding: valueobject.NewMoney(outstanding),
		})
	}
	return responses, nil
}

func toPaymentResponse(p *ledger.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:                   p.ID,
		SchoolID:             p.SchoolID,
		StudentID:            p.StudentID,
		FeeID:                p.FeeID,
		AmountPaid:           valueobject.NewMoney(p.AmountPaid),
		PaymentDate:          p.PaymentDate,
		Method:               string(p.Method),
		TransactionReference: p.TransactionReference,
		InstallmentNumber:    p.InstallmentNumber,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
		Version:              p.Version,
	}
}

func toReceiptResponse(r *ledger.Receipt) *ReceiptResponse {
	return &ReceiptResponse{
		ID:             r.ID,
		SchoolID:       r.SchoolID,
		ReceiptNumber:  r.Number(),
		StudentID:      r.StudentID,
		RegistrationID: r.RegistrationID,
		PaymentID:      r.PaymentID,
		ReceiptType:    string(r.ReceiptType),
		Amount:         valueobject.NewMoney(r.Amount),
		IssuedBy:       r.IssuedBy,
		DateIssued:     r.DateIssued,
		Venue:          r.Venue,
		ExamDate:       r.ExamDate,
		LogoURL:        r.LogoURL,
		CreatedAt:      r.CreatedAt,
	}
}
