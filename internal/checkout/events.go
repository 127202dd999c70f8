package checkout

import (
	"encoding/json"
	"time"
)

const (
	EventInvoiceIssued = "InvoiceIssued"

	TopicInvoiceIssued = "invoice.issued"
)

// Envelope wraps every event on the wire.
type Envelope struct {
	EventID       string          `json:"event_id"` // uuid
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "checkout-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

// InvoiceIssuedPayload carries what the notifier needs to mail the customer
// without re-reading the order.
type InvoiceIssuedPayload struct {
	OrderID       string `json:"order_id"`
	InvoiceNumber string `json:"invoice_number"`
	BuyerName     string `json:"buyer_name"`
	BuyerEmail    string `json:"buyer_email"`
	Total         string `json:"total"`
	Currency      string `json:"currency"`
}

// PartitionKey keeps all events of one order in order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
