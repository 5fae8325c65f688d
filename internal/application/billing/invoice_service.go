package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/billing"
	"github.com/schoolerp/backend/internal/domain/fees"
	"github.com/schoolerp/backend/internal/domain/ledger"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/shared/valueobject"
	"github.com/schoolerp/backend/internal/domain/students"
	"github.com/shopspring/decimal"
)

// InvoiceService provides application-level invoice operations
type InvoiceService struct {
	invoiceRepo billing.Repository
	receiptRepo ledger.ReceiptRepository
	studentRepo students.Repository
	txManager   shared.TransactionManager
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo billing.Repository,
	receiptRepo ledger.ReceiptRepository,
	studentRepo students.Repository,
	txManager shared.TransactionManager,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		receiptRepo: receiptRepo,
		studentRepo: studentRepo,
		txManager:   txManager,
	}
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID            uuid.UUID                `json:"id"`
	SchoolID      uuid.UUID                `json:"school_id"`
	InvoiceNumber string                   `json:"invoice_number"`
	StudentID     uuid.UUID                `json:"student_id"`
	ClassID       *uuid.UUID               `json:"class_id,omitempty"`
	IssueDate     time.Time                `json:"issue_date"`
	DueDate       time.Time                `json:"due_date"`
	TotalAmount   valueobject.Money        `json:"total_amount"`
	AmountPaid    valueobject.Money        `json:"amount_paid"`
	Balance       valueobject.Money        `json:"balance"`
	Status        string                   `json:"status"`
	Notes         string                   `json:"notes,omitempty"`
	Items         []InvoiceItemResponse    `json:"items,omitempty"`
	Payments      []InvoicePaymentResponse `json:"payments,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
	Version       int                      `json:"version"`
}

// InvoiceItemResponse represents an invoice line item in API responses
type InvoiceItemResponse struct {
	ID          uuid.UUID         `json:"id"`
	FeeID       *uuid.UUID        `json:"fee_id,omitempty"`
	Description string            `json:"description"`
	Amount      valueobject.Money `json:"amount"`
	Quantity    int               `json:"quantity"`
	Total       valueobject.Money `json:"total"`
}

// InvoicePaymentResponse represents an invoice payment history entry
type InvoicePaymentResponse struct {
	ID        uuid.UUID         `json:"id"`
	Amount    valueobject.Money `json:"amount"`
	Date      time.Time         `json:"date"`
	Method    string            `json:"method"`
	ReceiptID *uuid.UUID        `json:"receipt_id,omitempty"`
	Notes     string            `json:"notes,omitempty"`
}

// InvoiceItemRequest represents one line item in create/update requests
type InvoiceItemRequest struct {
	FeeID       *uuid.UUID        `json:"fee_id"`
	Description string            `json:"description"`
	Amount      valueobject.Money `json:"amount"`
	Quantity    int               `json:"quantity"`
}

// CreateInvoiceRequest represents a request to create an invoice
type CreateInvoiceRequest struct {
	StudentID uuid.UUID            `json:"student_id"`
	ClassID   *uuid.UUID           `json:"class_id"`
	IssueDate time.Time            `json:"issue_date"`
	DueDate   time.Time            `json:"due_date"`
	Notes     string               `json:"notes"`
	Items     []InvoiceItemRequest `json:"items"`
	CreatedBy *uuid.UUID           `json:"-"` // Set from JWT context, not from request body
}

// UpdateInvoiceRequest represents a request to update an invoice.
// Nil fields are left unchanged; a non-nil Items slice replaces the item set.
type UpdateInvoiceRequest struct {
	IssueDate *time.Time           `json:"issue_date"`
	DueDate   *time.Time           `json:"due_date"`
	Notes     *string              `json:"notes"`
	Items     []InvoiceItemRequest `json:"items"`
}

// RecordInvoicePaymentRequest represents a payment applied to an invoice
type RecordInvoicePaymentRequest struct {
	Amount   valueobject.Money `json:"amount"`
	Date     time.Time         `json:"date"`
	Method   string            `json:"method"`
	Notes    string            `json:"notes"`
	IssuedBy string            `json:"issued_by"`
}

// InvoiceListFilter defines filtering options for invoice list queries
type InvoiceListFilter struct {
	Search    string     `form:"search"`
	StudentID *uuid.UUID `form:"student_id"`
	ClassID   *uuid.UUID `form:"class_id"`
	Status    string     `form:"status"`
	FromDate  *time.Time `form:"from_date"`
	ToDate    *time.Time `form:"to_date"`
	DueFrom   *time.Time `form:"due_from"`
	DueTo     *time.Time `form:"due_to"`
	Overdue   *bool      `form:"overdue"`
	Page      int        `form:"page"`
	PageSize  int        `form:"page_size"`
}

// CreateInvoice creates an invoice together with its line items in one
// transaction. The invoice number is generated per school and year.
func (s *InvoiceService) CreateInvoice(ctx context.Context, schoolID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	var response *InvoiceResponse

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		student, err := s.studentRepo.FindByIDForSchool(txCtx, schoolID, req.StudentID)
		if err != nil {
			return err
		}
		if student == nil {
			return shared.NewDomainError("NOT_FOUND", "Student not found")
		}

		items, err := buildItems(req.Items)
		if err != nil {
			return err
		}

		issueDate := req.IssueDate
		if issueDate.IsZero() {
			issueDate = time.Now()
		}

		number, err := s.invoiceRepo.NextInvoiceNumber(txCtx, schoolID, issueDate.Year())
		if err != nil {
			return err
		}

		invoice, err := billing.NewInvoice(schoolID, number, req.StudentID, issueDate, req.DueDate, items)
		if err != nil {
			return err
		}
		if req.ClassID != nil {
			invoice.ClassID = req.ClassID
		} else {
			invoice.ClassID = student.ClassID
		}
		if req.Notes != "" {
			invoice.SetNotes(req.Notes)
		}
		if req.CreatedBy != nil {
			invoice.SetCreatedBy(*req.CreatedBy)
		}

		if err := s.invoiceRepo.Create(txCtx, invoice); err != nil {
			return err
		}
		response = toInvoiceResponse(invoice)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// GetInvoiceByID gets an invoice by ID, with items and payment history
func (s *InvoiceService) GetInvoiceByID(ctx context.Context, schoolID, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForSchool(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}
	return toInvoiceResponse(invoice), nil
}

// ListInvoices lists invoices with filtering
func (s *InvoiceService) ListInvoices(ctx context.Context, schoolID uuid.UUID, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	domainFilter := billing.Filter{
		StudentID: filter.StudentID,
		ClassID:   filter.ClassID,
		FromDate:  filter.FromDate,
		ToDate:    filter.ToDate,
		DueFrom:   filter.DueFrom,
		DueTo:     filter.DueTo,
		Overdue:   filter.Overdue,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.Search = filter.Search

	if filter.Status != "" {
		status := billing.InvoiceStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewValidationError("Invoice status is not valid")
		}
		domainFilter.Status = &status
	}

	invoices, err := s.invoiceRepo.FindAllForSchool(ctx, schoolID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.invoiceRepo.CountForSchool(ctx, schoolID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = *toInvoiceResponse(&invoices[i])
	}
	return responses, total, nil
}

// UpdateInvoice updates invoice header fields and, when items are given,
// replaces the full item set and recomputes the total in one transaction.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, schoolID, id uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	var response *InvoiceResponse

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		invoice, err := s.invoiceRepo.FindByIDForUpdate(txCtx, schoolID, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return shared.NewDomainError("NOT_FOUND", "Invoice not found")
		}

		if req.IssueDate != nil && !req.IssueDate.IsZero() {
			invoice.IssueDate = *req.IssueDate
		}
		if req.DueDate != nil && !req.DueDate.IsZero() {
			invoice.DueDate = *req.DueDate
		}
		if req.Notes != nil {
			invoice.SetNotes(*req.Notes)
		}

		replaceItems := req.Items != nil
		if replaceItems {
			items, err := buildItems(req.Items)
			if err != nil {
				return err
			}
			if err := invoice.ReplaceItems(items); err != nil {
				return err
			}
		} else {
			invoice.RefreshStatus(time.Now())
		}

		if err := s.invoiceRepo.Save(txCtx, invoice, replaceItems); err != nil {
			return err
		}
		response = toInvoiceResponse(invoice)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// MarkInvoiceSent flips a draft invoice to sent
func (s *InvoiceService) MarkInvoiceSent(ctx context.Context, schoolID, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForSchool(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}

	if err := invoice.MarkSent(); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, invoice, false); err != nil {
		return nil, err
	}
	return toInvoiceResponse(invoice), nil
}

// RecordInvoicePayment applies a payment to an invoice. The invoice row is
// locked for the duration of the transaction so concurrent payments
// serialize; a payment that settles the invoice in full also issues a
// receipt referenced from the payment history entry.
func (s *InvoiceService) RecordInvoicePayment(ctx context.Context, schoolID, id uuid.UUID, req RecordInvoicePaymentRequest) (*InvoiceResponse, error) {
	var response *InvoiceResponse

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		invoice, err := s.invoiceRepo.FindByIDForUpdate(txCtx, schoolID, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return shared.NewDomainError("NOT_FOUND", "Invoice not found")
		}

		res, err := s.recordPaymentLocked(txCtx, schoolID, invoice, req)
		if err != nil {
			return err
		}
		response = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// MarkInvoicePaid records the supplied amount against the invoice. An
// omitted (zero) amount settles the full outstanding balance; anything
// beyond the balance is rejected.
func (s *InvoiceService) MarkInvoicePaid(ctx context.Context, schoolID, id uuid.UUID, req RecordInvoicePaymentRequest) (*InvoiceResponse, error) {
	var response *InvoiceResponse

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		invoice, err := s.invoiceRepo.FindByIDForUpdate(txCtx, schoolID, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return shared.NewDomainError("NOT_FOUND", "Invoice not found")
		}

		remaining := ledger.Outstanding(invoice)
		if remaining.LessThanOrEqual(decimal.Zero) {
			return shared.NewConflictError("Invoice is already fully paid")
		}

		inner := req
		if inner.Amount.Amount().IsZero() {
			inner.Amount = valueobject.NewMoney(remaining)
		}
		res, err := s.recordPaymentLocked(txCtx, schoolID, invoice, inner)
		if err != nil {
			return err
		}
		response = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// recordPaymentLocked applies a payment to an already-locked invoice
func (s *InvoiceService) recordPaymentLocked(ctx context.Context, schoolID uuid.UUID, invoice *billing.Invoice, req RecordInvoicePaymentRequest) (*InvoiceResponse, error) {
	settlesInFull := ledger.SettlesInFull(invoice, req.Amount.Amount())

	entry, err := invoice.RecordPayment(req.Amount, req.Date, ledger.PaymentMethod(req.Method), req.Notes)
	if err != nil {
		return nil, err
	}

	if settlesInFull {
		sequence, err := s.receiptRepo.NextSequence(ctx, schoolID)
		if err != nil {
			return nil, err
		}
		receipt, err := ledger.NewReceipt(schoolID, sequence, ledger.ReceiptInput{
			StudentID:   &invoice.StudentID,
			ReceiptType: fees.FeeTypeOther,
			Amount:      valueobject.NewMoney(invoice.TotalAmount),
			IssuedBy:    req.IssuedBy,
			DateIssued:  entry.Date,
		})
		if err != nil {
			return nil, err
		}
		if err := s.receiptRepo.Create(ctx, receipt); err != nil {
			return nil, err
		}
		entry.ReceiptID = &receipt.ID
	}

	if err := s.invoiceRepo.AppendPayment(ctx, invoice, entry); err != nil {
		return nil, err
	}
	return toInvoiceResponse(invoice), nil
}

// CancelInvoice cancels an invoice. Cancelled is terminal; a fully paid
// invoice cannot be cancelled.
func (s *InvoiceService) CancelInvoice(ctx context.Context, schoolID, id uuid.UUID, reason string) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForSchool(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}

	if err := invoice.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, invoice, false); err != nil {
		return nil, err
	}
	return toInvoiceResponse(invoice), nil
}

// DeleteInvoice deletes an invoice and its items. A paid invoice cannot be
// deleted.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, schoolID, id uuid.UUID) error {
	invoice, err := s.invoiceRepo.FindByIDForSchool(ctx, schoolID, id)
	if err != nil {
		return err
	}
	if invoice == nil {
		return shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}
	if !invoice.CanDelete() {
		return shared.NewConflictError("Cannot delete a paid invoice")
	}
	return s.invoiceRepo.Delete(ctx, schoolID, id)
}

// GetInvoiceSummary aggregates invoice counts and money totals per school
func (s *InvoiceService) GetInvoiceSummary(ctx context.Context, schoolID uuid.UUID) (*billing.Summary, error) {
	return s.invoiceRepo.Summarize(ctx, schoolID)
}

func buildItems(reqs []InvoiceItemRequest) ([]billing.InvoiceItem, error) {
	items := make([]billing.InvoiceItem, 0, len(reqs))
	for _, r := range reqs {
		item, err := billing.NewInvoiceItem(r.Description, r.Amount, r.Quantity, r.FeeID)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func toInvoiceResponse(inv *billing.Invoice) *InvoiceResponse {
	items := make([]InvoiceItemResponse, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = InvoiceItemResponse{
			ID:          item.ID,
			FeeID:       item.FeeID,
			Description: item.Description,
			Amount:      valueobject.NewMoney(item.Amount),
			Quantity:    item.Quantity,
			Total:       valueobject.NewMoney(item.Total),
		}
	}
	payments := make([]InvoicePaymentResponse, len(inv.Payments))
	for i, p := range inv.Payments {
		payments[i] = InvoicePaymentResponse{
			ID:        p.ID,
			Amount:    valueobject.NewMoney(p.Amount),
			Date:      p.Date,
			Method:    string(p.Method),
			ReceiptID: p.ReceiptID,
			Notes:     p.Notes,
		}
	}

	return &InvoiceResponse{
		ID:            inv.ID,
		SchoolID:      inv.SchoolID,
		InvoiceNumber: inv.InvoiceNumber,
		StudentID:     inv.StudentID,
		ClassID:       inv.ClassID,
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		TotalAmount:   valueobject.NewMoney(inv.TotalAmount),
		AmountPaid:    valueobject.NewMoney(inv.AmountPaid),
		Balance:       valueobject.NewMoney(inv.Balance),
		Status:        string(inv.Status),
		Notes:         inv.Notes,
		Items:         items,
		Payments:      payments,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
		Version:       inv.Version,
	}
}
