package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/order"
	"github.com/shopline/backend/internal/domain/shared"
)

// ErrInvoiceUnavailable is returned when no renderer is configured
var ErrInvoiceUnavailable = shared.NewDomainError("INVOICE_UNAVAILABLE", "invoice rendering is not available")

// InvoiceRenderer produces a PDF document for an order
type InvoiceRenderer interface {
	Render(ctx context.Context, o *order.Order) ([]byte, error)
}

// InvoiceService renders invoices for orders the caller may see
type InvoiceService struct {
	orderRepo order.Repository
	renderer  InvoiceRenderer
}

// NewInvoiceService creates a new InvoiceService; renderer may be nil
func NewInvoiceService(orderRepo order.Repository, renderer InvoiceRenderer) *InvoiceService {
	return &InvoiceService{orderRepo: orderRepo, renderer: renderer}
}

// Invoice returns the PDF bytes and a download file name
func (s *InvoiceService) Invoice(ctx context.Context, actor Actor, orderID uuid.UUID) ([]byte, string, error) {
	if s.renderer == nil {
		return nil, "", ErrInvoiceUnavailable
	}

	var (
		o   *order.Order
		err error
	)
	if actor.IsAdmin {
		o, err = s.orderRepo.FindByID(ctx, orderID)
	} else {
		o, err = s.orderRepo.FindByIDForUser(ctx, actor.UserID, orderID)
	}
	if err != nil {
		return nil, "", err
	}

	pdf, err := s.renderer.Render(ctx, o)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render invoice: %w", err)
	}
	return pdf, fmt.Sprintf("invoice-%s.pdf", o.ID.String()[:8]), nil
}
