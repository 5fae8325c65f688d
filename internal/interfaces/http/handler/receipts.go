package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ledgerapp "github.com/schoolerp/backend/internal/application/ledger"
	printingapp "github.com/schoolerp/backend/internal/application/printing"
	"github.com/schoolerp/backend/internal/interfaces/http/middleware"
)

// ReceiptHandler handles receipt API endpoints
type ReceiptHandler struct {
	BaseHandler
	ledgerService *ledgerapp.LedgerService
	printService  *printingapp.ReceiptPrintService
}

// NewReceiptHandler creates a new ReceiptHandler. printService may be nil
// when rendering is disabled; the print endpoint then returns 404.
func NewReceiptHandler(ledgerService *ledgerapp.LedgerService, printService *printingapp.ReceiptPrintService) *ReceiptHandler {
	return &ReceiptHandler{
		ledgerService: ledgerService,
		printService:  printService,
	}
}

// Issue issues a receipt explicitly, linked to a payment or standalone.
// POST /fees/receipts
func (h *ReceiptHandler) Issue(c *gin.Context) {
	schoolID, err := getSchoolID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid school scope")
		return
	}

	var req ledgerapp.IssueReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	if req.IssuedBy == "" {
		req.IssuedBy = middleware.GetJWTUsername(c)
	}

	receipt, err := h.ledgerService.IssueReceipt(c.Request.Context(), schoolID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, gin.H{
		"data":           receipt,
		"receipt_number": receipt.ReceiptNumber,
	})
}

// GetByID returns a receipt by ID.
// GET /fees/receipts/:id
func (h *ReceiptHandler) GetByID(c *gin.Context) {
	schoolID, err := getSchoolID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid school scope")
		return
	}

	receiptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid receipt ID format")
		return
	}

	receipt, err := h.ledgerService.GetReceiptByID(c.Request.Context(), schoolID, receiptID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, receipt)
}

// GetByPayment returns the receipt issued for a payment, if any.
// GET /fees/payments/:id/receipt
func (h *ReceiptHandler) GetByPayment(c *gin.Context) {
	schoolID, err := getSchoolID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid school scope")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	receipt, err := h.ledgerService.GetReceiptByPaymentID(c.Request.Context(), schoolID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, receipt)
}

// List lists receipts with filtering and pagination.
// GET /fees/receipts
func (h *ReceiptHandler) List(c *gin.Context) {
	schoolID, err := getSchoolID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid school scope")
		return
	}

	var filter ledgerapp.ReceiptListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	list, total, err := h.ledgerService.ListReceipts(c.Request.Context(), schoolID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}

// Print renders a printable receipt. The default output is a standalone
// HTML page; ?format=pdf returns the PDF rendering instead.
// GET /fees/receipts/:id/print
func (h *ReceiptHandler) Print(c *gin.Context) {
	if h.printService == nil {
		h.NotFound(c, "Receipt printing is not enabled")
		return
	}

	schoolID, err := getSchoolID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid school scope")
		return
	}

	receiptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid receipt ID format")
		return
	}

	ctx := c.Request.Context()

	if c.Query("format") == "pdf" {
		pdf, err := h.printService.RenderReceiptPDF(ctx, schoolID, receiptID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		c.Header("Content-Disposition", `inline; filename="receipt.pdf"`)
		c.Data(http.StatusOK, "application/pdf", pdf)
		return
	}

	html, err := h.printService.RenderReceiptHTML(ctx, schoolID, receiptID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
