package invoice

import (
	"context"
	"time"

	apporder "github.com/shopline/backend/internal/application/order"
	"github.com/shopline/backend/internal/domain/order"
	"go.uber.org/zap"
)

// PDFPrinter turns an HTML document into PDF bytes
type PDFPrinter interface {
	PrintPDF(ctx context.Context, html string) ([]byte, error)
}

// Renderer produces invoice PDFs for orders
type Renderer struct {
	template *Template
	printer  PDFPrinter
	logger   *zap.Logger
}

// NewRenderer combines the invoice template with a PDF printer
func NewRenderer(template *Template, printer PDFPrinter, logger *zap.Logger) *Renderer {
	return &Renderer{template: template, printer: printer, logger: logger}
}

// Render builds the invoice HTML and prints it
func (r *Renderer) Render(ctx context.Context, o *order.Order) ([]byte, error) {
	start := time.Now()
	html, err := r.template.Render(o)
	if err != nil {
		return nil, err
	}
	pdf, err := r.printer.PrintPDF(ctx, html)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Invoice rendered",
		zap.String("order_id", o.ID.String()),
		zap.Int("bytes", len(pdf)),
		zap.Duration("took", time.Since(start)),
	)
	return pdf, nil
}

var _ apporder.InvoiceRenderer = (*Renderer)(nil)
