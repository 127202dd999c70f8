package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/mvaldes-dev/tienda-checkout/internal/checkout"
	kafkax "github.com/mvaldes-dev/tienda-checkout/internal/kafka"
	"github.com/mvaldes-dev/tienda-checkout/internal/mail"
)

type fakeMailer struct {
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, m mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

func issuedEvent(t *testing.T, p checkout.InvoiceIssuedPayload) kafkago.Message {
	t.Helper()
	env := checkout.Envelope{
		EventID:      "11111111-1111-1111-1111-111111111111",
		EventType:    checkout.EventInvoiceIssued,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "tienda-api-test",
		Payload:      kafkax.MustMarshal(p),
	}
	return kafkago.Message{Key: checkout.PartitionKey(p.OrderID), Value: kafkax.MustMarshal(env)}
}

func TestHandleInvoiceIssued(t *testing.T) {
	m := &fakeMailer{}
	svc := &Service{Mailer: m, Log: zerolog.Nop(), Service: "notifier-test"}

	msg := issuedEvent(t, checkout.InvoiceIssuedPayload{
		OrderID:       "30",
		InvoiceNumber: "INV-1-001",
		BuyerName:     "Ana",
		BuyerEmail:    "ana@example.com",
		Total:         "41.79",
		Currency:      "EUR",
	})
	if err := svc.HandleInvoiceIssued(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	if len(m.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(m.sent))
	}
	got := m.sent[0]
	if got.To != "ana@example.com" {
		t.Errorf("to = %s", got.To)
	}
	if !strings.Contains(got.Subject, "INV-1-001") {
		t.Errorf("subject = %q", got.Subject)
	}
	for _, want := range []string{"Ana", "30", "41.79 EUR"} {
		if !strings.Contains(got.HTMLBody, want) {
			t.Errorf("body missing %q:\n%s", want, got.HTMLBody)
		}
	}
}

func TestHandleInvoiceIssuedMailFailure(t *testing.T) {
	m := &fakeMailer{err: errors.New("relay down")}
	svc := &Service{Mailer: m, Log: zerolog.Nop(), Service: "notifier-test"}

	msg := issuedEvent(t, checkout.InvoiceIssuedPayload{
		OrderID: "30", BuyerEmail: "ana@example.com",
	})
	// delivery failures must not bounce the message back to the consumer
	if err := svc.HandleInvoiceIssued(context.Background(), msg); err != nil {
		t.Fatalf("handler surfaced a delivery failure: %v", err)
	}
}

func TestHandleInvoiceIssuedIgnoresOtherTypes(t *testing.T) {
	m := &fakeMailer{}
	svc := &Service{Mailer: m, Log: zerolog.Nop(), Service: "notifier-test"}

	env := checkout.Envelope{
		EventID:   "22222222-2222-2222-2222-222222222222",
		EventType: "OrderCancelled",
		Payload:   kafkax.MustMarshal(map[string]string{"order_id": "30"}),
	}
	err := svc.HandleInvoiceIssued(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(env)})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.sent) != 0 {
		t.Error("mailed for a foreign event type")
	}
}

func TestHandleInvoiceIssuedBadEnvelope(t *testing.T) {
	svc := &Service{Mailer: &fakeMailer{}, Log: zerolog.Nop(), Service: "notifier-test"}
	err := svc.HandleInvoiceIssued(context.Background(), kafkago.Message{Value: []byte("{broken")})
	if err == nil {
		t.Fatal("undecodeable envelope should surface to the consumer")
	}
}

func TestMailBodyEscapesName(t *testing.T) {
	body := mailBody(checkout.InvoiceIssuedPayload{BuyerName: "<b>Ana</b>"})
	if strings.Contains(body, "<b>") {
		t.Fatal("buyer name interpolated unescaped")
	}
	if !strings.Contains(body, "&lt;b&gt;") {
		t.Error("expected escaped buyer name")
	}
}
