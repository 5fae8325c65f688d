package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/billing"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements billing.Repository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice with its items and payment history by ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := dbFromContext(ctx, r.db).
		Preload("Items").
		Preload("Payments").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForSchool finds an invoice by ID within a school
func (r *GormInvoiceRepository) FindByIDForSchool(ctx context.Context, schoolID, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := dbFromContext(ctx, r.db).
		Preload("Items").
		Preload("Payments").
		Where("school_id = ? AND id = ?", schoolID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads the invoice header under a FOR UPDATE lock, then
// its items and payments. Concurrent payments against the same invoice
// serialize on the header lock.
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, schoolID, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := dbFromContext(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("school_id = ? AND id = ?", schoolID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	db := dbFromContext(ctx, r.db)
	if err := db.Where("invoice_id = ?", model.ID).Find(&model.Items).Error; err != nil {
		return nil, err
	}
	if err := db.Where("invoice_id = ?", model.ID).Order("date ASC").Find(&model.Payments).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds an invoice by its number within a school
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, schoolID uuid.UUID, invoiceNumber string) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := dbFromContext(ctx, r.db).
		Preload("Items").
		Preload("Payments").
		Where("school_id = ? AND invoice_number = ?", schoolID, invoiceNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForSchool finds all invoices for a school matching the filter
func (r *GormInvoiceRepository) FindAllForSchool(ctx context.Context, schoolID uuid.UUID, filter billing.Filter) ([]billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	query := r.applyFilter(
		dbFromContext(ctx, r.db).Model(&models.InvoiceModel{}).Where("school_id = ?", schoolID),
		filter, true,
	).Preload("Items").Preload("Payments")

	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]billing.Invoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// CountForSchool counts invoices for a school matching the filter
func (r *GormInvoiceRepository) CountForSchool(ctx context.Context, schoolID uuid.UUID, filter billing.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(
		dbFromContext(ctx, r.db).Model(&models.InvoiceModel{}).Where("school_id = ?", schoolID),
		filter, false,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// NextInvoiceNumber generates the next number in INV-{year}-{seq} form. The
// sequence restarts each year and is read under the caller's transaction so
// concurrent creates in the same school serialize on the max-row lock.
func (r *GormInvoiceRepository) NextInvoiceNumber(ctx context.Context, schoolID uuid.UUID, year int) (string, error) {
	prefix := fmt.Sprintf("INV-%d-", year)

	var lastNumber string
	err := dbFromContext(ctx, r.db).Model(&models.InvoiceModel{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("school_id = ? AND invoice_number LIKE ?", schoolID, prefix+"%").
		Order("invoice_number DESC").
		Limit(1).
		Pluck("invoice_number", &lastNumber).Error
	if err != nil {
		return "", err
	}

	next := 1
	if lastNumber != "" {
		var seq int
		if _, err := fmt.Sscanf(lastNumber[len(prefix):], "%d", &seq); err == nil {
			next = seq + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, next), nil
}

// Create persists the invoice header together with its line items
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *billing.Invoice) error {
	db := dbFromContext(ctx, r.db)

	model := models.InvoiceModelFromDomain(invoice)
	if err := db.Create(model).Error; err != nil {
		return err
	}

	for i := range invoice.Items {
		var itemModel models.InvoiceItemModel
		itemModel.FromDomain(&invoice.Items[i])
		if err := db.Create(&itemModel).Error; err != nil {
			return err
		}
	}
	return nil
}

// Save persists header changes. When items were replaced the old item set is
// deleted and the new one inserted in the same transaction.
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice, replaceItems bool) error {
	db := dbFromContext(ctx, r.db)

	model := models.InvoiceModelFromDomain(invoice)
	if err := db.Save(model).Error; err != nil {
		return err
	}

	if replaceItems {
		if err := db.Where("invoice_id = ?", invoice.ID).
			Delete(&models.InvoiceItemModel{}).Error; err != nil {
			return err
		}
		for i := range invoice.Items {
			var itemModel models.InvoiceItemModel
			itemModel.FromDomain(&invoice.Items[i])
			if err := db.Create(&itemModel).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// AppendPayment persists one payment history entry and the updated header
// amounts/status together
func (r *GormInvoiceRepository) AppendPayment(ctx context.Context, invoice *billing.Invoice, payment *billing.InvoicePayment) error {
	db := dbFromContext(ctx, r.db)

	var paymentModel models.InvoicePaymentModel
	paymentModel.FromDomain(payment)
	if err := db.Create(&paymentModel).Error; err != nil {
		return err
	}

	return db.Model(&models.InvoiceModel{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]interface{}{
			"amount_paid": invoice.AmountPaid,
			"balance":     invoice.Balance,
			"status":      invoice.Status,
			"version":     invoice.Version,
			"updated_at":  invoice.UpdatedAt,
		}).Error
}

// Delete removes an invoice with its items and payment history
func (r *GormInvoiceRepository) Delete(ctx context.Context, schoolID, id uuid.UUID) error {
	db := dbFromContext(ctx, r.db)

	if err := db.Where("invoice_id = ?", id).Delete(&models.InvoicePaymentModel{}).Error; err != nil {
		return err
	}
	if err := db.Where("invoice_id = ?", id).Delete(&models.InvoiceItemModel{}).Error; err != nil {
		return err
	}
	return db.Where("school_id = ? AND id = ?", schoolID, id).
		Delete(&models.InvoiceModel{}).Error
}

// Summarize aggregates invoice counts per status and money totals for a school
func (r *GormInvoiceRepository) Summarize(ctx context.Context, schoolID uuid.UUID) (*billing.Summary, error) {
	var row struct {
		TotalInvoices      int64
		DraftCount         int64
		SentCount          int64
		PartiallyPaidCount int64
		PaidCount          int64
		OverdueCount       int64
		CancelledCount     int64
		TotalAmount        decimal.Decimal
		TotalPaid          decimal.Decimal
		TotalBalance       decimal.Decimal
	}

	err := dbFromContext(ctx, r.db).Model(&models.InvoiceModel{}).
		Where("school_id = ?", schoolID).
		Select(`COUNT(*) AS total_invoices,
			COUNT(*) FILTER (WHERE status = 'draft') AS draft_count,
			COUNT(*) FILTER (WHERE status = 'sent') AS sent_count,
			COUNT(*) FILTER (WHERE status = 'partially_paid') AS partially_paid_count,
			COUNT(*) FILTER (WHERE status = 'paid') AS paid_count,
			COUNT(*) FILTER (WHERE status = 'overdue') AS overdue_count,
			COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled_count,
			COALESCE(SUM(total_amount), 0) AS total_amount,
			COALESCE(SUM(amount_paid), 0) AS total_paid,
			COALESCE(SUM(balance), 0) AS total_balance`).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &billing.Summary{
		TotalInvoices:      row.TotalInvoices,
		DraftCount:         row.DraftCount,
		SentCount:          row.SentCount,
		PartiallyPaidCount: row.PartiallyPaidCount,
		PaidCount:          row.PaidCount,
		OverdueCount:       row.OverdueCount,
		CancelledCount:     row.CancelledCount,
		TotalAmount:        row.TotalAmount,
		TotalPaid:          row.TotalPaid,
		TotalBalance:       row.TotalBalance,
	}, nil
}

// applyFilter applies scope filters, ordering and optionally pagination
func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter billing.Filter, paginate bool) *gorm.DB {
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.ClassID != nil {
		query = query.Where("class_id = ?", *filter.ClassID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("issue_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("issue_date <= ?", *filter.ToDate)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	if filter.Overdue != nil && *filter.Overdue {
		query = query.Where("due_date < ? AND balance > 0 AND status NOT IN ('paid', 'cancelled')", time.Now())
	}
	if filter.Search != "" {
		query = query.Where("invoice_number ILIKE ?", "%"+filter.Search+"%")
	}

	if paginate {
		orderBy := ValidateSortField(filter.OrderBy, InvoiceSortFields, "issue_date")
		orderDir := ValidateSortOrder(filter.OrderDir)
		query = query.Order(orderBy + " " + orderDir)

		if filter.PageSize > 0 {
			offset := (filter.Page - 1) * filter.PageSize
			if offset < 0 {
				offset = 0
			}
			query = query.Offset(offset).Limit(filter.PageSize)
		}
	}

	return query
}
