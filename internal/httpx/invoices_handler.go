package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/mvaldes-dev/tienda-checkout/internal/checkout"
	"github.com/mvaldes-dev/tienda-checkout/internal/invoice"
	kafkax "github.com/mvaldes-dev/tienda-checkout/internal/kafka"
	"github.com/mvaldes-dev/tienda-checkout/internal/metrics"
	"github.com/mvaldes-dev/tienda-checkout/internal/redisx"
)

// publisher is what the handler needs from the kafka producer.
type publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type InvoicesHandler struct {
	Coordinator *checkout.Coordinator
	Store       checkout.Store
	Publisher   publisher
	Redis       *redis.Client
	Service     string
	AuthToken   string
	Log         zerolog.Logger
	Metrics     *metrics.Checkout
}

func (h *InvoicesHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(RequireToken(h.AuthToken))
		r.Post("/invoices", h.createInvoice)
	})
	r.Get("/invoices/{id}", h.renderInvoice)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type shippingInput struct {
	checkout.Delivery
	Cost *float64 `json:"cost"`
}

type createInvoiceReq struct {
	Products []map[string]any      `json:"products"`
	UserID   string                `json:"userId"`
	User     *checkout.InlineBuyer `json:"user"`
	Shipping *shippingInput        `json:"shipping"`
	Payment  *checkout.Payment     `json:"payment"`
	Discount *float64              `json:"discount"`
	TaxRate  *float64              `json:"taxRate"`
	Currency string                `json:"currency"`
}

func (h *InvoicesHandler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var body createInvoiceReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	req := checkout.CheckoutRequest{
		UserID:   body.UserID,
		Buyer:    body.User,
		RawItems: body.Products,
		Currency: body.Currency,
	}
	if body.Shipping != nil {
		req.Delivery = body.Shipping.Delivery
		if body.Shipping.Cost != nil {
			c := decimal.NewFromFloat(*body.Shipping.Cost)
			req.ShippingCost = &c
		}
	}
	if body.Payment != nil {
		req.Payment = *body.Payment
	}
	if body.Discount != nil {
		req.Discount = decimal.NewFromFloat(*body.Discount)
	}
	if body.TaxRate != nil {
		rate := decimal.NewFromFloat(*body.TaxRate)
		req.TaxRate = &rate
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	start := time.Now()
	order, err := h.Coordinator.Checkout(ctx, req)
	if err != nil {
		outcome, status := classify(err)
		h.countCheckout(outcome)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	h.countCheckout("confirmed")
	if h.Metrics != nil {
		h.Metrics.LatencyMS.WithLabelValues("create_invoice").
			Observe(float64(time.Since(start).Milliseconds()))
	}

	// Detached notification: Publish only enqueues, the producer goroutine
	// owns delivery. The response never waits on it.
	if h.Publisher != nil {
		ev := checkout.Envelope{
			EventID:       uuid.NewString(),
			EventType:     checkout.EventInvoiceIssued,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      h.Service,
			TraceID:       r.Header.Get("X-Request-Id"),
			CorrelationID: order.ID,
		}
		ev.Payload = kafkax.MustMarshal(checkout.InvoiceIssuedPayload{
			OrderID:       order.ID,
			InvoiceNumber: order.Summary.InvoiceNumber,
			BuyerName:     order.Summary.Client.Name,
			BuyerEmail:    order.Summary.Client.Email,
			Total:         order.Summary.Totals.Total.StringFixed(2),
			Currency:      order.Summary.Totals.Currency,
		})
		h.Publisher.Publish(checkout.PartitionKey(order.ID), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(checkout.EventInvoiceIssued)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"order":   order,
		"invoice": order.Summary.InvoiceNumber,
	})
}

func (h *InvoicesHandler) renderInvoice(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyInvoiceHTML, orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeHTML(w, []byte(s))
			return
		}
	}

	doc, err := h.Store.GetOrderDocument(ctx, orderID)
	if err != nil {
		_, status := classify(err)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	html, err := invoice.Render(doc)
	if err != nil {
		h.Log.Error().Err(err).Str("order_id", orderID).Msg("render failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "render failed"})
		return
	}
	if h.Metrics != nil {
		h.Metrics.Rendered.Inc()
	}
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, key, html, redisx.TTLInvoiceCache).Err()
	}
	writeHTML(w, html)
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *InvoicesHandler) countCheckout(outcome string) {
	if h.Metrics != nil {
		h.Metrics.Checkouts.WithLabelValues(outcome).Inc()
	}
}

func classify(err error) (outcome string, status int) {
	switch checkout.Classify(err) {
	case checkout.KindInvalidInput:
		return "invalid_input", http.StatusBadRequest
	case checkout.KindNotFound:
		return "not_found", http.StatusNotFound
	case checkout.KindInsufficientStock:
		return "insufficient_stock", http.StatusBadRequest
	default:
		return "storage_error", http.StatusInternalServerError
	}
}
