package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ledgerapp "github.com/schoolerp/backend/internal/application/ledger"
	"github.com/schoolerp/backend/internal/interfaces/http/middleware"
)

// PaymentHandler handles payment ledger API endpoints
type PaymentHandler struct {
	BaseHandler
	ledgerService *ledgerapp.LedgerService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(ledgerService *ledgerapp.LedgerService) *PaymentHandler {
	return &PaymentHandler{ledgerService: ledgerService}
}

// Record records a payment toward a fee. When the payment settles the fee
// in full a receipt is issued atomically and returned alongside.
// POST /fees/payments
func (h *PaymentHandler) Record(c *gin.Context) {
	schoolID, err := getSchoolID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid school scope")
		return
	}

	var req ledgerapp.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	if userID, err := getUserID(c); err == nil && userID != uuid.Nil {
		req.RecordedBy = &userID
	}
	if req.IssuedBy == "" {
		req.IssuedBy = middleware.GetJWTUsername(c)
	}

	result, err := h.ledgerService.RecordPayment(c.Request.Context(), schoolID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByID returns a payment by ID.
// GET /fees/payments/:id
func (h *PaymentHandler) GetByID(c *gin.Context) {
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

	payment, err := h.ledgerService.GetPaymentByID(c.Request.Context(), schoolID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payment)
}

// List lists payments with filtering and pagination.
// GET /fees/payments
func (h *PaymentHandler) List(c *gin.Context) {
	schoolID, err := getSchoolID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid school scope")
		return
	}

	var filter ledgerapp.PaymentListFilter
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

	list, total, err := h.ledgerService.ListPayments(c.Request.Context(), schoolID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}

// Update amends an unreceipted payment.
// PUT /fees/payments/:id
func (h *PaymentHandler) Update(c *gin.Context) {
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

	var req ledgerapp.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	payment, err := h.ledgerService.UpdatePayment(c.Request.Context(), schoolID, paymentID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payment)
}

// Delete deletes an unreceipted payment.
// DELETE /fees/payments/:id
func (h *PaymentHandler) Delete(c *gin.Context) {
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

	if err := h.ledgerService.DeletePayment(c.Request.Context(), schoolID, paymentID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Outstanding reports every fee applicable to a student together with the
// cumulative amount paid and the outstanding remainder.
// GET /fees/outstanding/:studentId
func (h *PaymentHandler) Outstanding(c *gin.Context) {
	schoolID, err := getSchoolID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid school scope")
		return
	}

	studentID, err := uuid.Parse(c.Param("studentId"))
	if err != nil {
		h.BadRequest(c, "Invalid student ID format")
		return
	}

	academicYear := c.Query("academic_year")

	outstanding, err := h.ledgerService.GetOutstandingFees(c.Request.Context(), schoolID, studentID, academicYear)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	// Clients iterate the array directly; an empty result is not an error
	if outstanding == nil {
		outstanding = []ledgerapp.OutstandingFeeResponse{}
	}
	h.Success(c, outstanding)
}
