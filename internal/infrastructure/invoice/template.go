// Package invoice renders order invoices as HTML and prints them to PDF.
package invoice

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/order"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const invoiceHTML = `<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>Invoice {{shortUUID .Order.ID}}</title>
<style>
body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 12px; color: #222; margin: 0; }
h1 { font-size: 20px; margin: 0 0 4px; }
.muted { color: #777; }
.header { display: flex; justify-content: space-between; margin-bottom: 24px; }
table { width: 100%; border-collapse: collapse; }
th, td { padding: 6px 8px; border-bottom: 1px solid #ddd; text-align: left; }
td.num, th.num { text-align: right; }
tfoot td { font-weight: bold; border-bottom: none; }
</style>
</head>
<body>
<div class="header">
  <div>
    <h1>{{.StoreName}}</h1>
    <div class="muted">Invoice {{shortUUID .Order.ID}}</div>
    <div class="muted">{{formatDate .Order.CreatedAt}}</div>
  </div>
  <div>
    <div>Status: {{title (statusText .Order.Status)}}</div>
    <div>Payment: {{upper .Order.PaymentMethod}}</div>
    {{- if .Order.GatewayPaymentID}}
    <div class="muted">Ref: {{.Order.GatewayPaymentID}}</div>
    {{- end}}
  </div>
</div>
<h3>Ship to</h3>
<div>
{{- range .Shipping}}
  <div><span class="muted">{{title .Key}}:</span> {{.Value}}</div>
{{- end}}
</div>
<h3>Items</h3>
<table>
  <thead><tr><th>Product</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Subtotal</th></tr></thead>
  <tbody>
  {{- range .Order.Items}}
    <tr><td>{{.ProductName}}</td><td class="num">{{.Quantity}}</td><td class="num">{{money .Price}}</td><td class="num">{{money .Subtotal}}</td></tr>
  {{- end}}
  </tbody>
  <tfoot><tr><td colspan="3">Total</td><td class="num">{{money .Order.TotalAmount}}</td></tr></tfoot>
</table>
</body>
</html>`

// ShippingLine is one key/value of the shipping blob, in stable order
type ShippingLine struct {
	Key   string
	Value string
}

type templateData struct {
	Lang      string
	StoreName string
	Order     *order.Order
	Shipping  []ShippingLine
}

// Template renders the invoice HTML for an order
type Template struct {
	tmpl      *template.Template
	storeName string
	currency  string
	tag       language.Tag
}

// NewTemplate parses the invoice template. locale is a BCP 47 tag such as
// "en-IN"; unknown tags fall back to English.
func NewTemplate(storeName, currency, locale string) (*Template, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	t := &Template{
		storeName: storeName,
		currency:  strings.ToUpper(currency),
		tag:       tag,
	}

	caser := cases.Title(tag)
	printer := message.NewPrinter(tag)
	funcs := template.FuncMap{
		"money": func(d decimal.Decimal) string {
			f, _ := d.Round(2).Float64()
			return t.currency + " " + printer.Sprint(number.Decimal(f, number.Scale(2)))
		},
		"formatDate": func(at time.Time) string {
			if at.IsZero() {
				return ""
			}
			return at.Format("02 Jan 2006")
		},
		"shortUUID": func(id uuid.UUID) string {
			return strings.ToUpper(id.String()[:8])
		},
		"statusText": func(s order.Status) string {
			return strings.ReplaceAll(string(s), "_", " ")
		},
		"title": func(s string) string {
			return caser.String(strings.ReplaceAll(s, "_", " "))
		},
		"upper": strings.ToUpper,
	}

	tmpl, err := template.New("invoice").Funcs(funcs).Parse(invoiceHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse invoice template: %w", err)
	}
	t.tmpl = tmpl
	return t, nil
}

// Render executes the template for the order
func (t *Template) Render(o *order.Order) (string, error) {
	base, _ := t.tag.Base()
	data := templateData{
		Lang:      base.String(),
		StoreName: t.storeName,
		Order:     o,
		Shipping:  shippingLines(o.ShippingDetails),
	}
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render invoice: %w", err)
	}
	return buf.String(), nil
}

func shippingLines(details order.ShippingDetails) []ShippingLine {
	lines := make([]ShippingLine, 0, len(details))
	for k, v := range details {
		lines = append(lines, ShippingLine{Key: k, Value: fmt.Sprint(v)})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Key < lines[j].Key })
	return lines
}
