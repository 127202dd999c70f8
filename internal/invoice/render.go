// Package invoice projects a persisted order into a customer-facing HTML
// document. Read-only: it never mutates the order.
package invoice

import (
	"bytes"
	"encoding/json"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mvaldes-dev/tienda-checkout/internal/checkout"
)

// Line is the normalized shape every historical line-item layout is folded
// into before rendering.
type Line struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Older orders stored their line items under different fields and key names.
// Matchers run in priority order; the first that yields lines wins.
var lineShapes = []func(doc *checkout.OrderDocument, summary map[string]any) ([]Line, bool){
	fromSummaryProducts,
	fromItemsCanonical,
	fromItemsLegacy,
}

type totalsView struct {
	Subtotal    string
	Tax         string
	Shipping    string
	Discount    string
	HasDiscount bool
	Total       string
	Currency    string
}

type lineView struct {
	Name      string
	Quantity  int
	UnitPrice string
	LineTotal string
}

type docView struct {
	OrderID       string
	InvoiceNumber string
	Date          string
	ClientName    string
	ClientEmail   string
	Lines         []lineView
	Totals        totalsView
	Address       string
	City          string
	PostalCode    string
	Country       string
	Notes         string
	PayMethod     string
	PayReference  string
}

// Render produces the invoice document for a persisted order. Output is
// stable: rendering the same order twice gives identical bytes, except for
// orders so old they carry no date of their own.
func Render(doc *checkout.OrderDocument) ([]byte, error) {
	summary := map[string]any{}
	if len(doc.Summary) > 0 {
		if err := json.Unmarshal(doc.Summary, &summary); err != nil {
			return nil, checkout.StorageError("decode order summary", err)
		}
	}

	var lines []Line
	for _, match := range lineShapes {
		if got, ok := match(doc, summary); ok {
			lines = got
			break
		}
	}

	view := docView{
		OrderID:       doc.ID,
		InvoiceNumber: str(summary["invoiceNumber"]),
		Date:          orderDate(doc).Format("02/01/2006"),
	}
	if cliente, ok := summary["cliente"].(map[string]any); ok {
		view.ClientName = str(cliente["nombre"])
		view.ClientEmail = str(cliente["email"])
	}
	if entrega, ok := summary["entrega"].(map[string]any); ok {
		view.Address = str(entrega["direccion"])
		view.City = str(entrega["ciudad"])
		view.PostalCode = str(entrega["cp"])
		view.Country = str(entrega["pais"])
		view.Notes = str(entrega["notas"])
	}
	if pago, ok := summary["pago"].(map[string]any); ok {
		view.PayMethod = str(pago["metodo"])
		view.PayReference = str(pago["referencia"])
	}

	totals := extractTotals(summary, lines)
	view.Totals = totalsView{
		Subtotal:    totals.Subtotal.StringFixed(2),
		Tax:         totals.Tax.StringFixed(2),
		Shipping:    totals.Shipping.StringFixed(2),
		Discount:    totals.Discount.StringFixed(2),
		HasDiscount: totals.Discount.IsPositive(),
		Total:       totals.Total.StringFixed(2),
		Currency:    totals.Currency,
	}
	for _, l := range lines {
		view.Lines = append(view.Lines, lineView{
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.StringFixed(2),
			LineTotal: l.LineTotal.StringFixed(2),
		})
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return nil, checkout.StorageError("render invoice", err)
	}
	return buf.Bytes(), nil
}

func orderDate(doc *checkout.OrderDocument) time.Time {
	if doc.CreatedAt.IsZero() {
		return time.Now().UTC()
	}
	return doc.CreatedAt
}

// fromSummaryProducts reads the snapshot list the checkout workflow writes.
func fromSummaryProducts(_ *checkout.OrderDocument, summary map[string]any) ([]Line, bool) {
	raw, ok := summary["productos"].([]any)
	if !ok || len(raw) == 0 {
		return nil, false
	}
	lines := make([]Line, 0, len(raw))
	for _, e := range raw {
		m, ok := e.(map[string]any)
		if !ok {
			return nil, false
		}
		lines = append(lines, Line{
			Name:      str(m["nombre"]),
			Quantity:  intOf(m["cantidad"]),
			UnitPrice: num(m["precioUnitario"]),
			LineTotal: num(m["importe"]),
		})
	}
	return lines, true
}

// fromItemsCanonical reads the items field with current key names.
func fromItemsCanonical(doc *checkout.OrderDocument, _ map[string]any) ([]Line, bool) {
	items, ok := decodeItems(doc)
	if !ok {
		return nil, false
	}
	lines := make([]Line, 0, len(items))
	for _, m := range items {
		if m["productId"] == nil || m["quantity"] == nil {
			return nil, false
		}
		qty := intOf(m["quantity"])
		unit := num(m["unitPrice"])
		total := num(m["lineTotal"])
		if total.IsZero() {
			total = checkout.LineTotal(unit, qty)
		}
		name := str(m["name"])
		if name == "" {
			name = str(m["productId"])
		}
		lines = append(lines, Line{Name: name, Quantity: qty, UnitPrice: unit, LineTotal: total})
	}
	return lines, true
}

// fromItemsLegacy reads the oldest layout: nombre/cantidad/precio keys.
func fromItemsLegacy(doc *checkout.OrderDocument, _ map[string]any) ([]Line, bool) {
	items, ok := decodeItems(doc)
	if !ok {
		return nil, false
	}
	lines := make([]Line, 0, len(items))
	for _, m := range items {
		name := str(m["nombre"])
		if name == "" {
			name = str(m["name"])
		}
		if name == "" {
			return nil, false
		}
		qty := intOf(m["cantidad"])
		if qty == 0 {
			qty = intOf(m["qty"])
		}
		unit := num(m["precio"])
		if unit.IsZero() {
			unit = num(m["price"])
		}
		lines = append(lines, Line{
			Name:      name,
			Quantity:  qty,
			UnitPrice: unit,
			LineTotal: checkout.LineTotal(unit, qty),
		})
	}
	return lines, true
}

func decodeItems(doc *checkout.OrderDocument) ([]map[string]any, bool) {
	if len(doc.Items) == 0 {
		return nil, false
	}
	var items []map[string]any
	if err := json.Unmarshal(doc.Items, &items); err != nil || len(items) == 0 {
		return nil, false
	}
	return items, true
}

type totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
	Currency string
}

// extractTotals prefers the stored summary; orders persisted before the
// snapshot existed get their totals derived from the line items.
func extractTotals(summary map[string]any, lines []Line) totals {
	if t, ok := summary["totales"].(map[string]any); ok {
		return totals{
			Subtotal: num(t["subtotal"]),
			Tax:      num(t["impuestos"]),
			Shipping: num(t["envio"]),
			Discount: num(t["descuento"]),
			Total:    num(t["total"]),
			Currency: str(t["moneda"]),
		}
	}
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal)
	}
	subtotal = checkout.Round2(subtotal)
	return totals{Subtotal: subtotal, Total: subtotal}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func intOf(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return 0
		}
		return int(d.IntPart())
	}
	return 0
}

// num accepts both JSON numbers and the string form decimals are stored as.
func num(v any) decimal.Decimal {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n)
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	return decimal.Zero
}

var tmpl = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html lang="es">
<head><meta charset="utf-8"><title>Factura {{.InvoiceNumber}}</title></head>
<body>
<h1>Factura {{.InvoiceNumber}}</h1>
<p>Pedido {{.OrderID}} &mdash; {{.Date}}</p>

<h2>Cliente</h2>
<p>{{.ClientName}}<br>{{.ClientEmail}}</p>

<h2>Detalle</h2>
<table border="1" cellspacing="0" cellpadding="4">
<tr><th>Producto</th><th>Cantidad</th><th>Precio unitario</th><th>Importe</th></tr>
{{range .Lines}}<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{.UnitPrice}}</td><td>{{.LineTotal}}</td></tr>
{{end}}</table>

<h2>Totales</h2>
<table cellspacing="0" cellpadding="2">
<tr><td>Subtotal</td><td>{{.Totals.Subtotal}} {{.Totals.Currency}}</td></tr>
<tr><td>Impuestos</td><td>{{.Totals.Tax}} {{.Totals.Currency}}</td></tr>
<tr><td>Env&iacute;o</td><td>{{.Totals.Shipping}} {{.Totals.Currency}}</td></tr>
{{if .Totals.HasDiscount}}<tr><td>Descuento</td><td>-{{.Totals.Discount}} {{.Totals.Currency}}</td></tr>
{{end}}<tr><td><strong>Total</strong></td><td><strong>{{.Totals.Total}} {{.Totals.Currency}}</strong></td></tr>
</table>

<h2>Entrega</h2>
<p>{{.Address}}<br>{{.PostalCode}} {{.City}}<br>{{.Country}}{{if .Notes}}<br>{{.Notes}}{{end}}</p>

<h2>Pago</h2>
<p>{{.PayMethod}}{{if .PayReference}} ({{.PayReference}}){{end}}</p>
</body>
</html>
`))
