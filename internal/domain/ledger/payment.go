package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodMobileMoney,
		PaymentMethodCheque, PaymentMethodOther:
		return true
	}
	return false
}

// Payment is a single money transfer applied toward a fee definition on
// behalf of a student. Payments are generally immutable once recorded;
// a payment referenced by a receipt can no longer be amended or deleted.
type Payment struct {
	shared.SchoolAggregateRoot
	StudentID            uuid.UUID       `json:"student_id"`
	FeeID                uuid.UUID       `json:"fee_id"`
	AmountPaid           decimal.Decimal `json:"amount_paid"`
	PaymentDate          time.Time       `json:"payment_date"`
	Method               PaymentMethod   `json:"method"`
	TransactionReference string          `json:"transaction_reference"`
	InstallmentNumber    int             `json:"installment_number"`
	RecordedBy           *uuid.UUID      `json:"recorded_by"`
}

// NewPayment creates a new payment toward a fee definition
func NewPayment(
	schoolID, studentID, feeID uuid.UUID,
	amount valueobject.Money,
	paymentDate time.Time,
	method PaymentMethod,
) (*Payment, error) {
	if studentID == uuid.Nil {
		return nil, shared.NewValidationError("Student ID cannot be empty")
	}
	if feeID == uuid.Nil {
		return nil, shared.NewValidationError("Fee ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("Payment amount must be greater than zero")
	}
	if method != "" && !method.IsValid() {
		return nil, shared.NewValidationError("Payment method is not valid")
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}
	if method == "" {
		method = PaymentMethodCash
	}

	return &Payment{
		SchoolAggregateRoot: shared.NewSchoolAggregateRoot(schoolID),
		StudentID:           studentID,
		FeeID:               feeID,
		AmountPaid:          amount.Amount(),
		PaymentDate:         paymentDate,
		Method:              method,
		InstallmentNumber:   1,
	}, nil
}

// WithTransactionReference sets the external gateway or bank reference string
func (p *Payment) WithTransactionReference(ref string) *Payment {
	p.TransactionReference = ref
	return p
}

// WithInstallmentNumber sets which installment this payment covers
func (p *Payment) WithInstallmentNumber(n int) *Payment {
	if n > 0 {
		p.InstallmentNumber = n
	}
	return p
}

// WithRecordedBy sets the staff user who recorded the payment
func (p *Payment) WithRecordedBy(userID uuid.UUID) *Payment {
	p.RecordedBy = &userID
	return p
}

// ChangeAmount updates the paid amount on an unreceipted payment.
// The caller re-validates the overpayment invariant against the sum of the
// other payments for the same (student, fee) pair before saving.
func (p *Payment) ChangeAmount(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("Payment amount must be greater than zero")
	}
	p.AmountPaid = amount.Amount()
	p.Touch()
	p.IncrementVersion()
	return nil
}

// FeeCharge adapts one student's position against a fee definition to the
// ChargeSource interface: the fee amount is the total, the student's
// cumulative payments are the paid amount.
type FeeCharge struct {
	Fee       *fees.FeeDefinition
	TotalPaid decimal.Decimal
}

// ChargeKind implements ChargeSource
func (c FeeCharge) ChargeKind() ChargeKind {
	return ChargeKindFee
}

// ChargeTotal implements ChargeSource
func (c FeeCharge) ChargeTotal() decimal.Decimal {
	return c.Fee.Amount
}

// ChargePaid implements ChargeSource
func (c FeeCharge) ChargePaid() decimal.Decimal {
	return c.TotalPaid
}

// Ensure FeeCharge implements ChargeSource
var _ ChargeSource = FeeCharge{}
