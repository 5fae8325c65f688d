package router

import (
	"github.com/gin-gonic/gin"
	"github.com/schoolerp/backend/internal/interfaces/http/handler"
)

// SystemRoutes registers system info and ping endpoints.
type SystemRoutes struct {
	handler *handler.SystemHandler
}

// NewSystemRoutes creates the system route registrar
func NewSystemRoutes(h *handler.SystemHandler) *SystemRoutes {
	return &SystemRoutes{handler: h}
}

// RegisterRoutes implements RouteRegistrar
func (r *SystemRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	system := rg.Group("/system")
	system.GET("/ping", r.handler.Ping)
	system.GET("/info", r.handler.GetSystemInfo)
}

// FeeRoutes registers the fee catalog, payment ledger and receipt endpoints.
// Payments and receipts live under /fees because they always reference a fee.
type FeeRoutes struct {
	fees     *handler.FeeHandler
	payments *handler.PaymentHandler
	receipts *handler.ReceiptHandler
}

// NewFeeRoutes creates the fee route registrar
func NewFeeRoutes(fees *handler.FeeHandler, payments *handler.PaymentHandler, receipts *handler.ReceiptHandler) *FeeRoutes {
	return &FeeRoutes{fees: fees, payments: payments, receipts: receipts}
}

// RegisterRoutes implements RouteRegistrar
func (r *FeeRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	fees := rg.Group("/fees")

	// Payment ledger
	fees.POST("/payments", r.payments.Record)
	fees.GET("/payments", r.payments.List)
	fees.GET("/payments/:id", r.payments.GetByID)
	fees.PUT("/payments/:id", r.payments.Update)
	fees.DELETE("/payments/:id", r.payments.Delete)
	fees.GET("/payments/:id/receipt", r.receipts.GetByPayment)

	// Outstanding balances per student
	fees.GET("/outstanding/:studentId", r.payments.Outstanding)

	// Receipts
	fees.POST("/receipts", r.receipts.Issue)
	fees.GET("/receipts", r.receipts.List)
	fees.GET("/receipts/:id", r.receipts.GetByID)
	fees.GET("/receipts/:id/print", r.receipts.Print)

	// Fee catalog. Static segments are registered above the :id param so
	// gin resolves /fees/resolve before /fees/:id.
	fees.POST("", r.fees.Create)
	fees.GET("", r.fees.List)
	fees.GET("/resolve", r.fees.GetForScope)
	fees.GET("/:id", r.fees.GetByID)
	fees.PUT("/:id", r.fees.Update)
	fees.DELETE("/:id", r.fees.Delete)
}

// InvoiceRoutes registers the invoice manager endpoints.
type InvoiceRoutes struct {
	handler *handler.InvoiceHandler
}

// NewInvoiceRoutes creates the invoice route registrar
func NewInvoiceRoutes(h *handler.InvoiceHandler) *InvoiceRoutes {
	return &InvoiceRoutes{handler: h}
}

// RegisterRoutes implements RouteRegistrar
func (r *InvoiceRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	invoices.POST("", r.handler.Create)
	invoices.GET("", r.handler.List)
	invoices.GET("/summary", r.handler.Summary)
	invoices.GET("/:id", r.handler.GetByID)
	invoices.PUT("/:id", r.handler.Update)
	invoices.POST("/:id/payments", r.handler.RecordPayment)
	invoices.PUT("/:id/mark-sent", r.handler.MarkSent)
	invoices.PUT("/:id/mark-paid", r.handler.MarkPaid)
	invoices.PUT("/:id/cancel", r.handler.Cancel)
	invoices.DELETE("/:id", r.handler.Delete)
}
