package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Checkout counts checkout outcomes and latency on the API service.
type Checkout struct {
	Checkouts *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
	Rendered  prometheus.Counter
}

func NewCheckout(reg prometheus.Registerer) *Checkout {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tienda",
		Subsystem: "checkout",
		Name:      "requests_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tienda",
		Subsystem: "checkout",
		Name:      "duration_ms",
		Help:      "Checkout latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	rendered := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tienda",
		Subsystem: "invoice",
		Name:      "rendered_total",
		Help:      "Invoices rendered.",
	})
	reg.MustRegister(checkouts, latency, rendered)
	return &Checkout{Checkouts: checkouts, LatencyMS: latency, Rendered: rendered}
}

// Notifier counts mail deliveries on the notification worker.
type Notifier struct {
	Notifications *prometheus.CounterVec
}

func NewNotifier(reg prometheus.Registerer) *Notifier {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tienda",
		Subsystem: "notifier",
		Name:      "mails_total",
		Help:      "Customer notifications by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(notifications)
	return &Notifier{Notifications: notifications}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
