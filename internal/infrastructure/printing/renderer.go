package printing

import (
	"context"
	"time"
)

// PaperSize identifies a supported output paper size.
type PaperSize string

const (
	PaperSizeA4      PaperSize = "A4"
	PaperSizeA5      PaperSize = "A5"
	PaperSizeLetter  PaperSize = "Letter"
	PaperSizeReceipt PaperSize = "Receipt" // 80mm thermal roll
)

// Dimensions returns the paper width and height in millimeters.
func (p PaperSize) Dimensions() (width, height float64, ok bool) {
	switch p {
	case PaperSizeA4:
		return 210, 297, true
	case PaperSizeA5:
		return 148, 210, true
	case PaperSizeLetter:
		return 215.9, 279.4, true
	case PaperSizeReceipt:
		return 80, 297, true
	default:
		return 0, 0, false
	}
}

// Orientation defines the page orientation.
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// Margins are page margins in millimeters.
type Margins struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// DefaultMargins returns the standard margins used for receipts and invoices.
func DefaultMargins() Margins {
	return Margins{Top: 10, Bottom: 10, Left: 10, Right: 10}
}

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	// HTML content to render
	HTML string
	// PaperSize defines the output paper dimensions
	PaperSize PaperSize
	// Orientation defines portrait or landscape
	Orientation Orientation
	// Margins in millimeters
	Margins Margins
	// Title for the PDF document metadata
	Title string
	// Timeout overrides the default rendering timeout
	Timeout time.Duration
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	// PDFData is the raw PDF file content
	PDFData []byte
	// PageCount is the number of pages in the PDF
	PageCount int
	// RenderDuration is how long the rendering took
	RenderDuration time.Duration
}

// PDFRenderer defines the interface for rendering HTML to PDF
type PDFRenderer interface {
	// Render converts HTML content to a PDF document
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	// Close releases any resources held by the renderer
	Close() error
}

// RenderError represents an error during PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeTemplateFailed   = "TEMPLATE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}
