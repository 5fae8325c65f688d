package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	feesapp "github.com/schoolerp/backend/internal/application/fees"
)

// FeeHandler handles fee catalog API endpoints
type FeeHandler struct {
	BaseHandler
	feeService *feesapp.FeeService
}

// NewFeeHandler creates a new FeeHandler
func NewFeeHandler(feeService *feesapp.FeeService) *FeeHandler {
	return &FeeHandler{feeService: feeService}
}

// Create creates a fee definition.
// POST /fees
func (h *FeeHandler) Create(c *gin.Context) {
	schoolID, err := getSchoolID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid school scope")
		return
	}

	var req feesapp.CreateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	if userID, err := getUserID(c); err == nil && userID != uuid.Nil {
		req.CreatedBy = &userID
	}

	fee, err := h.feeService.CreateFee(c.Request.Context(), schoolID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, fee)
}

// GetByID returns a fee definition by ID.
// GET /fees/:id
func (h *FeeHandler) GetByID(c *gin.Context) {
	schoolID, err := getSchoolID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid school scope")
		return
	}

	feeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid fee ID format")
		return
	}

	fee, err := h.feeService.GetFeeByID(c.Request.Context(), schoolID, feeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, fee)
}

// feeScopeQuery binds the scope resolution query parameters
type feeScopeQuery struct {
	CategoryID   string `form:"category_id" binding:"required,uuid"`
	ClassID      string `form:"class_id" binding:"required,uuid"`
	FeeType      string `form:"fee_type" binding:"required"`
	AcademicYear string `form:"academic_year"`
}

// GetForScope resolves the fee a student owes for a category, class, fee
// type and academic year. A class-specific definition wins over a wildcard.
// GET /fees/resolve
func (h *FeeHandler) GetForScope(c *gin.Context) {
	schoolID, err := getSchoolID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid school scope")
		return
	}

	var q feeScopeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}

	categoryID, _ := uuid.Parse(q.CategoryID)
	classID, _ := uuid.Parse(q.ClassID)

	fee, err := h.feeService.GetFeeForScope(c.Request.Context(), schoolID, categoryID, classID, q.FeeType, q.AcademicYear)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, fee)
}

// List lists fee definitions with filtering and pagination.
// GET /fees
func (h *FeeHandler) List(c *gin.Context) {
	schoolID, err := getSchoolID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid school scope")
		return
	}

	var filter feesapp.FeeListFilter
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

	list, total, err := h.feeService.ListFees(c.Request.Context(), schoolID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}

// Update updates a fee definition's amount or description.
// PUT /fees/:id
func (h *FeeHandler) Update(c *gin.Context) {
	schoolID, err := getSchoolID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid school scope")
		return
	}

	feeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid fee ID format")
		return
	}

	var req feesapp.UpdateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	fee, err := h.feeService.UpdateFee(c.Request.Context(), schoolID, feeID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, fee)
}

// Delete deletes a fee definition without recorded payments.
// DELETE /fees/:id
func (h *FeeHandler) Delete(c *gin.Context) {
	schoolID, err := getSchoolID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid school scope")
		return
	}

	feeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid fee ID format")
		return
	}

	if err := h.feeService.DeleteFee(c.Request.Context(), schoolID, feeID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
