package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentFilter defines filtering options for payment list queries
type PaymentFilter struct {
	shared.Filter
	StudentID *uuid.UUID
	FeeID     *uuid.UUID
	Method    *PaymentMethod
	FromDate  *time.Time
	ToDate    *time.Time
}

// ReceiptFilter defines filtering options for receipt list queries
type ReceiptFilter struct {
	shared.Filter
	StudentID   *uuid.UUID
	ReceiptType *string
	FromDate    *time.Time
	ToDate      *time.Time
}

// PaymentRepository defines persistence operations for fee payments
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByIDForSchool(ctx context.Context, schoolID, id uuid.UUID) (*Payment, error)
	FindAllForSchool(ctx context.Context, schoolID uuid.UUID, filter PaymentFilter) ([]Payment, error)
	CountForSchool(ctx context.Context, schoolID uuid.UUID, filter PaymentFilter) (int64, error)

	// SumForStudentAndFee returns the cumulative amount the student has paid
	// against the fee. Inside a transaction holding the fee row lock this sum
	// is stable for the duration of the overpayment check.
	SumForStudentAndFee(ctx context.Context, schoolID, studentID, feeID uuid.UUID) (decimal.Decimal, error)

	// SumByFee returns the cumulative amount paid per fee by the student,
	// keyed by fee ID. Used for the outstanding-fees query.
	SumByFee(ctx context.Context, schoolID, studentID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)

	CountByFee(ctx context.Context, schoolID, feeID uuid.UUID) (int64, error)

	Create(ctx context.Context, payment *Payment) error
	Save(ctx context.Context, payment *Payment) error
	Delete(ctx context.Context, schoolID, id uuid.UUID) error
}

// ReceiptRepository defines persistence operations for receipts
type ReceiptRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Receipt, error)
	FindByIDForSchool(ctx context.Context, schoolID, id uuid.UUID) (*Receipt, error)
	FindByPaymentID(ctx context.Context, schoolID, paymentID uuid.UUID) (*Receipt, error)
	ExistsByPaymentID(ctx context.Context, schoolID, paymentID uuid.UUID) (bool, error)
	FindAllForSchool(ctx context.Context, schoolID uuid.UUID, filter ReceiptFilter) ([]Receipt, error)
	CountForSchool(ctx context.Context, schoolID uuid.UUID, filter ReceiptFilter) (int64, error)

	// NextSequence reserves the next per-school receipt sequence. Must be
	// called inside the transaction that creates the receipt.
	NextSequence(ctx context.Context, schoolID uuid.UUID) (int64, error)

	Create(ctx context.Context, receipt *Receipt) error
}
