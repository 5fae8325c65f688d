package printing

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/ledger"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/students"
	"github.com/schoolerp/backend/internal/infrastructure/config"
	"github.com/schoolerp/backend/internal/infrastructure/printing"
)

// ReceiptPrintService renders stored receipts as printable HTML or PDF.
// The rendered artifacts are presentation-only and never persisted.
type ReceiptPrintService struct {
	receiptRepo ledger.ReceiptRepository
	paymentRepo ledger.PaymentRepository
	studentRepo students.Repository
	printer     *printing.ReceiptPrinter
	schoolName  string
	logoURL     string
}

// NewReceiptPrintService creates a new ReceiptPrintService
func NewReceiptPrintService(
	receiptRepo ledger.ReceiptRepository,
	paymentRepo ledger.PaymentRepository,
	studentRepo students.Repository,
	printer *printing.ReceiptPrinter,
	cfg config.PrintingConfig,
) *ReceiptPrintService {
	return &ReceiptPrintService{
		receiptRepo: receiptRepo,
		paymentRepo: paymentRepo,
		studentRepo: studentRepo,
		printer:     printer,
		schoolName:  cfg.SchoolName,
		logoURL:     cfg.LogoURL,
	}
}

// RenderReceiptHTML renders the receipt as a printable HTML page
func (s *ReceiptPrintService) RenderReceiptHTML(ctx context.Context, schoolID, receiptID uuid.UUID) (string, error) {
	doc, err := s.buildDocument(ctx, schoolID, receiptID)
	if err != nil {
		return "", err
	}

	html, err := s.printer.RenderHTML(ctx, doc)
	if err != nil {
		return "", shared.NewTransientError("Failed to render receipt: " + err.Error())
	}
	return html, nil
}

// RenderReceiptPDF renders the receipt as a PDF document
func (s *ReceiptPrintService) RenderReceiptPDF(ctx context.Context, schoolID, receiptID uuid.UUID) ([]byte, error) {
	doc, err := s.buildDocument(ctx, schoolID, receiptID)
	if err != nil {
		return nil, err
	}

	result, err := s.printer.RenderPDF(ctx, doc)
	if err != nil {
		return nil, shared.NewTransientError("Failed to render receipt PDF: " + err.Error())
	}
	return result.PDFData, nil
}

// buildDocument loads the receipt and maps it onto the print document.
// A receipt-level logo overrides the school default.
func (s *ReceiptPrintService) buildDocument(ctx context.Context, schoolID, receiptID uuid.UUID) (*printing.ReceiptDocument, error) {
	receipt, err := s.receiptRepo.FindByIDForSchool(ctx, schoolID, receiptID)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Receipt not found")
	}

	doc := &printing.ReceiptDocument{
		SchoolName:  s.schoolName,
		LogoURL:     s.logoURL,
		Number:      receipt.Number(),
		DateIssued:  receipt.DateIssued,
		ReceiptType: string(receipt.ReceiptType),
		Venue:       receipt.Venue,
		ExamDate:    receipt.ExamDate,
		Amount:      receipt.Amount,
		IssuedBy:    receipt.IssuedBy,
	}
	if receipt.LogoURL != "" {
		doc.LogoURL = receipt.LogoURL
	}

	if receipt.StudentID != nil {
		student, err := s.studentRepo.FindByIDForSchool(ctx, schoolID, *receipt.StudentID)
		if err != nil {
			return nil, err
		}
		if student != nil {
			doc.StudentName = student.FullName()
		}
	}

	if receipt.PaymentID != nil {
		payment, err := s.paymentRepo.FindByIDForSchool(ctx, schoolID, *receipt.PaymentID)
		if err != nil {
			return nil, err
		}
		if payment != nil {
			doc.PaymentMethod = string(payment.Method)
			doc.Reference = payment.TransactionReference
		}
	}

	return doc, nil
}
