package invoice

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mvaldes-dev/tienda-checkout/internal/checkout"
)

func doc(t *testing.T, items, summary string) *checkout.OrderDocument {
	t.Helper()
	d := &checkout.OrderDocument{
		ID:        "42",
		Status:    "confirmed",
		CreatedAt: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
	}
	if items != "" {
		d.Items = json.RawMessage(items)
	}
	if summary != "" {
		d.Summary = json.RawMessage(summary)
	}
	return d
}

func TestRenderSummaryProductsWins(t *testing.T) {
	// Both the summary snapshot and the items field are present; the
	// snapshot takes priority.
	d := doc(t,
		`[{"productId":"aaaaaaaaaaaaaaaaaaaaaaaa","quantity":1,"name":"from items","unitPrice":"1.00"}]`,
		`{"invoiceNumber":"INV-1-001",
		  "cliente":{"nombre":"Ana","email":"ana@example.com"},
		  "productos":[{"nombre":"Micro USB","cantidad":3,"precioUnitario":"9.00","importe":"27.00"}],
		  "totales":{"subtotal":"27.00","impuestos":"4.05","envio":"4.50","descuento":"0","total":"35.55","moneda":"EUR"},
		  "entrega":{"direccion":"Calle Mayor 1","ciudad":"Madrid","cp":"28001","pais":"ES"},
		  "pago":{"metodo":"tarjeta","referencia":"ref-77"}}`)

	out, err := Render(d)
	if err != nil {
		t.Fatal(err)
	}
	html := string(out)

	for _, want := range []string{
		"Factura INV-1-001",
		"Pedido 42",
		"15/03/2024",
		"Micro USB",
		"<td>3</td>",
		"9.00",
		"27.00 EUR",
		"35.55 EUR",
		"Ana",
		"28001 Madrid",
		"tarjeta",
		"ref-77",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered invoice missing %q", want)
		}
	}
	if strings.Contains(html, "from items") {
		t.Error("items field used even though the summary snapshot exists")
	}
}

func TestRenderCanonicalItems(t *testing.T) {
	d := doc(t,
		`[{"productId":"aaaaaaaaaaaaaaaaaaaaaaaa","quantity":2,"unitPrice":"4.99","lineTotal":"9.98"}]`,
		`{"invoiceNumber":"INV-2-002"}`)

	out, err := Render(d)
	if err != nil {
		t.Fatal(err)
	}
	html := string(out)
	// no name stored: the product id stands in
	if !strings.Contains(html, "aaaaaaaaaaaaaaaaaaaaaaaa") {
		t.Error("missing product id fallback name")
	}
	// totals derived from the lines when no snapshot exists
	if !strings.Contains(html, "<td>Subtotal</td><td>9.98 </td>") {
		t.Errorf("derived subtotal missing:\n%s", html)
	}
}

func TestRenderLegacyItems(t *testing.T) {
	d := doc(t,
		`[{"nombre":"Cable XLR","cantidad":2,"precio":"4.99"}]`,
		"")

	out, err := Render(d)
	if err != nil {
		t.Fatal(err)
	}
	html := string(out)
	if !strings.Contains(html, "Cable XLR") {
		t.Error("legacy line name missing")
	}
	// lineTotal computed from precio * cantidad
	if !strings.Contains(html, "<td>9.98</td>") {
		t.Errorf("computed line total missing:\n%s", html)
	}
}

func TestRenderEscapesClientName(t *testing.T) {
	d := doc(t, "",
		`{"cliente":{"nombre":"<script>alert(1)</script>","email":"x@example.com"}}`)

	out, err := Render(d)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(out, []byte("<script>")) {
		t.Fatal("client name rendered unescaped")
	}
	if !bytes.Contains(out, []byte("&lt;script&gt;")) {
		t.Error("expected escaped client name in output")
	}
}

func TestRenderStableOutput(t *testing.T) {
	d := doc(t, "",
		`{"invoiceNumber":"INV-3-003",
		  "productos":[{"nombre":"Micro USB","cantidad":1,"precioUnitario":"10.00","importe":"10.00"}],
		  "totales":{"subtotal":"10.00","impuestos":"1.50","envio":"3.50","descuento":"0","total":"15.00","moneda":"EUR"}}`)

	a, err := Render(d)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Render(d)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("rendering the same order twice produced different bytes")
	}
}

func TestRenderDiscountRow(t *testing.T) {
	withDiscount := doc(t, "",
		`{"totales":{"subtotal":"10.00","impuestos":"1.50","envio":"3.50","descuento":"2.00","total":"13.00","moneda":"EUR"}}`)
	out, err := Render(withDiscount)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "-2.00 EUR") {
		t.Error("discount row missing")
	}

	without := doc(t, "",
		`{"totales":{"subtotal":"10.00","impuestos":"1.50","envio":"3.50","descuento":"0","total":"15.00","moneda":"EUR"}}`)
	out, err = Render(without)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "Descuento") {
		t.Error("discount row rendered for a zero discount")
	}
}
