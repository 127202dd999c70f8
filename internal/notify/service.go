// Package notify turns committed orders into customer mail. It runs detached
// from the request path: delivery failures are logged and counted, never
// retried synchronously, and never reach the buyer's HTTP response.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"html"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/mvaldes-dev/tienda-checkout/internal/checkout"
	"github.com/mvaldes-dev/tienda-checkout/internal/mail"
	"github.com/mvaldes-dev/tienda-checkout/internal/metrics"
	"github.com/mvaldes-dev/tienda-checkout/internal/redisx"
)

type Service struct {
	Mailer  mail.Mailer
	Redis   *redis.Client
	Log     zerolog.Logger
	Metrics *metrics.Notifier
	Service string
}

// HandleInvoiceIssued is the consumer handler. It always returns nil after a
// decodeable event: the notification is best-effort and must not be redelivered
// just because the relay was down.
func (s *Service) HandleInvoiceIssued(ctx context.Context, m kafkago.Message) error {
	var env checkout.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != checkout.EventInvoiceIssued {
		return nil
	}

	if s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, s.Service, env.EventID)
		if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
			return nil
		}
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	var p checkout.InvoiceIssuedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return err
	}

	msg := mail.Message{
		To:       p.BuyerEmail,
		Subject:  fmt.Sprintf("Tu factura %s", p.InvoiceNumber),
		HTMLBody: mailBody(p),
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		s.Log.Error().Err(err).
			Str("order_id", p.OrderID).
			Str("invoice", p.InvoiceNumber).
			Msg("notification failed")
		if s.Metrics != nil {
			s.Metrics.Notifications.WithLabelValues("failed").Inc()
		}
		return nil
	}
	s.Log.Info().Str("order_id", p.OrderID).Str("to", p.BuyerEmail).Msg("notification sent")
	if s.Metrics != nil {
		s.Metrics.Notifications.WithLabelValues("sent").Inc()
	}
	return nil
}

func mailBody(p checkout.InvoiceIssuedPayload) string {
	return fmt.Sprintf(
		"<p>Hola %s,</p><p>Gracias por tu compra. Tu pedido %s ha sido confirmado.</p>"+
			"<p>Factura %s &mdash; total %s %s.</p>",
		html.EscapeString(p.BuyerName), p.OrderID, p.InvoiceNumber, p.Total, p.Currency)
}
