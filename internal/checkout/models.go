package checkout

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	DiscountPct decimal.Decimal `json:"discountPct"`
	Stock       int             `json:"stock"`
}

type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderRef is the entry appended to a user's order history at checkout.
type OrderRef struct {
	OrderID       string    `json:"orderId"`
	InvoiceNumber string    `json:"invoiceNumber"`
	Date          time.Time `json:"fecha"`
}

type User struct {
	ID     string     `json:"id"`
	Name   string     `json:"nombre"`
	Email  string     `json:"email"`
	Cart   []CartItem `json:"cart"`
	Orders []OrderRef `json:"orders"`
}

type LineItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"` // after discount
	LineTotal decimal.Decimal `json:"lineTotal"`
	Currency  string          `json:"currency"`
}

type ClientInfo struct {
	Name  string `json:"nombre"`
	Email string `json:"email"`
}

type SummaryLine struct {
	Name      string          `json:"nombre"`
	Quantity  int             `json:"cantidad"`
	UnitPrice decimal.Decimal `json:"precioUnitario"`
	LineTotal decimal.Decimal `json:"importe"`
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"impuestos"`
	Shipping decimal.Decimal `json:"envio"`
	Discount decimal.Decimal `json:"descuento"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"moneda"`
}

type Delivery struct {
	Address    string `json:"direccion"`
	City       string `json:"ciudad"`
	PostalCode string `json:"cp"`
	Country    string `json:"pais"`
	Notes      string `json:"notas,omitempty"`
}

type Payment struct {
	Method    string `json:"metodo"`
	Reference string `json:"referencia,omitempty"`
}

// Summary is the denormalized snapshot captured at commit time. Later edits
// to products or users never change a persisted invoice.
type Summary struct {
	Client        ClientInfo    `json:"cliente"`
	Products      []SummaryLine `json:"productos"`
	Totals        Totals        `json:"totales"`
	Delivery      Delivery      `json:"entrega"`
	Payment       Payment       `json:"pago"`
	InvoiceNumber string        `json:"invoiceNumber"`
}

type Order struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId,omitempty"`
	Items     []LineItem `json:"items"`
	Summary   Summary    `json:"resumen"`
	Status    Status     `json:"estado"`
	CreatedAt time.Time  `json:"fecha"`
}

// OrderDocument is the raw persisted form of an order. The renderer works on
// this shape so that legacy documents with older line-item layouts can still
// be projected.
type OrderDocument struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId,omitempty"`
	Items     json.RawMessage `json:"items"`
	Summary   json.RawMessage `json:"resumen"`
	Status    string          `json:"estado"`
	CreatedAt time.Time       `json:"fecha"`
}
