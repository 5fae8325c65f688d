package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Receipt is an immutable proof-of-payment document. At most one receipt may
// reference a given payment. Once created, its amount and payment linkage are
// never mutated; deletion is not supported.
type Receipt struct {
	shared.SchoolAggregateRoot
	// Sequence is the per-school numeric identity the receipt number is
	// derived from. The formatted number is never stored.
	Sequence       int64           `json:"sequence"`
	StudentID      *uuid.UUID      `json:"student_id"`
	RegistrationID *uuid.UUID      `json:"registration_id"`
	PaymentID      *uuid.UUID      `json:"payment_id"`
	ReceiptType    fees.FeeType    `json:"receipt_type"`
	Amount         decimal.Decimal `json:"amount"`
	IssuedBy       string          `json:"issued_by"`
	DateIssued     time.Time       `json:"date_issued"`
	Venue          string          `json:"venue"`
	ExamDate       *time.Time      `json:"exam_date"`
	LogoURL        string          `json:"logo_url"`
}

// ReceiptInput carries the caller-supplied fields for issuing a receipt
type ReceiptInput struct {
	StudentID      *uuid.UUID
	RegistrationID *uuid.UUID
	PaymentID      *uuid.UUID
	ReceiptType    fees.FeeType
	Amount         valueobject.Money
	IssuedBy       string
	DateIssued     time.Time
	Venue          string
	ExamDate       *time.Time
	LogoURL        string
}

// NewReceipt issues a new receipt. Exactly one of StudentID/RegistrationID
// must be set; the amount is required and the receipt type must be valid.
func NewReceipt(schoolID uuid.UUID, sequence int64, in ReceiptInput) (*Receipt, error) {
	if !in.ReceiptType.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("Receipt type %q is not valid", in.ReceiptType))
	}
	if !in.Amount.IsPositive() {
		return nil, shared.NewValidationError("Receipt amount must be greater than zero")
	}
	if (in.StudentID == nil) == (in.RegistrationID == nil) {
		return nil, shared.NewValidationError("Exactly one of student ID or registration ID must be provided")
	}
	if sequence <= 0 {
		return nil, shared.NewValidationError("Receipt sequence must be positive")
	}
	if in.DateIssued.IsZero() {
		in.DateIssued = time.Now()
	}

	return &Receipt{
		SchoolAggregateRoot: shared.NewSchoolAggregateRoot(schoolID),
		Sequence:            sequence,
		StudentID:           in.StudentID,
		RegistrationID:      in.RegistrationID,
		PaymentID:           in.PaymentID,
		ReceiptType:         in.ReceiptType,
		Amount:              in.Amount.Amount(),
		IssuedBy:            in.IssuedBy,
		DateIssued:          in.DateIssued,
		Venue:               in.Venue,
		ExamDate:            in.ExamDate,
		LogoURL:             in.LogoURL,
	}, nil
}

// Number returns the human-readable receipt number, derived from the numeric
// sequence at read time so it is always consistent with the stored identity.
func (r *Receipt) Number() string {
	return fmt.Sprintf("R-%06d", r.Sequence)
}
