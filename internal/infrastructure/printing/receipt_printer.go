package printing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptDocument carries the presentation fields for a printed receipt.
// Callers map their domain objects onto it; the printer never reaches
// back into domain packages.
type ReceiptDocument struct {
	SchoolName    string
	LogoURL       string
	Number        string
	DateIssued    time.Time
	StudentName   string
	ReceiptType   string
	PaymentMethod string
	Reference     string
	Venue         string
	ExamDate      *time.Time
	Amount        decimal.Decimal
	IssuedBy      string
}

// ReceiptPrinter renders receipt documents to HTML and PDF.
type ReceiptPrinter struct {
	engine   *TemplateEngine
	renderer PDFRenderer
	template string
}

// NewReceiptPrinter creates a printer backed by the embedded receipt
// template. The renderer may be nil when only HTML output is needed.
func NewReceiptPrinter(renderer PDFRenderer) (*ReceiptPrinter, error) {
	content, err := LoadTemplateContent(receiptTemplatePath)
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to load receipt template", err)
	}
	return &ReceiptPrinter{
		engine:   NewTemplateEngine(),
		renderer: renderer,
		template: content,
	}, nil
}

// RenderHTML renders the receipt document to a standalone HTML page.
func (p *ReceiptPrinter) RenderHTML(ctx context.Context, doc *ReceiptDocument) (string, error) {
	if doc == nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "receipt document is nil", nil)
	}
	return p.engine.RenderString(ctx, "receipt", p.template, doc)
}

// RenderPDF renders the receipt document to a PDF on A5 portrait paper.
func (p *ReceiptPrinter) RenderPDF(ctx context.Context, doc *ReceiptDocument) (*RenderResult, error) {
	if p.renderer == nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "PDF rendering is not enabled", nil)
	}

	html, err := p.RenderHTML(ctx, doc)
	if err != nil {
		return nil, err
	}

	return p.renderer.Render(ctx, &RenderRequest{
		HTML:        html,
		PaperSize:   PaperSizeA5,
		Orientation: OrientationPortrait,
		Margins:     DefaultMargins(),
		Title:       "Receipt " + doc.Number,
	})
}
