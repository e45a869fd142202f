package invoice

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturePrinter struct {
	html string
	err  error
}

func (p *capturePrinter) PrintPDF(_ context.Context, html string) ([]byte, error) {
	p.html = html
	if p.err != nil {
		return nil, p.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

func sampleOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(uuid.New(), decimal.RequireFromString("12499.50"),
		order.ShippingDetails{"full_name": "Asha Rao", "city": "Pune", "postal_code": "411001"}, "razorpay")
	require.NoError(t, err)
	_, err = o.AddItem(uuid.New(), "Standing Desk <Pro>", 1, decimal.RequireFromString("12000.00"))
	require.NoError(t, err)
	_, err = o.AddItem(uuid.New(), "Cable Tray", 2, decimal.RequireFromString("249.75"))
	require.NoError(t, err)
	return o
}

func TestTemplate_Render(t *testing.T) {
	tmpl, err := NewTemplate("Shopline", "inr", "en-IN")
	require.NoError(t, err)
	o := sampleOrder(t)

	html, err := tmpl.Render(o)
	require.NoError(t, err)

	assert.Contains(t, html, `<html lang="en">`)
	assert.Contains(t, html, "Invoice "+strings.ToUpper(o.ID.String()[:8]))
	assert.Contains(t, html, "INR 12,499.50")
	assert.Contains(t, html, "INR 499.50", "line subtotal")
	assert.Contains(t, html, "Pending Payment")
	assert.Contains(t, html, "RAZORPAY")
	assert.Contains(t, html, "Standing Desk &lt;Pro&gt;", "product names are escaped")
	assert.Less(t, strings.Index(html, "City"), strings.Index(html, "Full Name"), "shipping keys are sorted")
}

func TestTemplate_UnknownLocaleFallsBack(t *testing.T) {
	tmpl, err := NewTemplate("Shopline", "usd", "not a locale!!")
	require.NoError(t, err)
	html, err := tmpl.Render(sampleOrder(t))
	require.NoError(t, err)
	assert.Contains(t, html, "USD 12,499.50")
}

func TestRenderer_Render(t *testing.T) {
	tmpl, err := NewTemplate("Shopline", "INR", "en")
	require.NoError(t, err)

	printer := &capturePrinter{}
	pdf, err := NewRenderer(tmpl, printer, zap.NewNop()).Render(context.Background(), sampleOrder(t))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
	assert.Contains(t, printer.html, "Cable Tray")

	printer.err = errors.New("browser crashed")
	_, err = NewRenderer(tmpl, printer, zap.NewNop()).Render(context.Background(), sampleOrder(t))
	assert.Error(t, err)
}

func TestChromedpPrinter_RejectsEmptyDocument(t *testing.T) {
	p := NewChromedpPrinter("", time.Second, zap.NewNop())
	defer p.Close()
	_, err := p.PrintPDF(context.Background(), "  ")
	assert.Error(t, err)
}

// TestChromedpPrinter_PrintPDF needs a local Chrome; set SHOP_TEST_CHROME=1
func TestChromedpPrinter_PrintPDF(t *testing.T) {
	if os.Getenv("SHOP_TEST_CHROME") == "" {
		t.Skip("set SHOP_TEST_CHROME=1 to print through a real browser")
	}
	tmpl, err := NewTemplate("Shopline", "INR", "en-IN")
	require.NoError(t, err)
	html, err := tmpl.Render(sampleOrder(t))
	require.NoError(t, err)

	p := NewChromedpPrinter(os.Getenv("SHOP_TEST_CHROME_URL"), 30*time.Second, zap.NewNop())
	defer p.Close()
	pdf, err := p.PrintPDF(context.Background(), html)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
}
