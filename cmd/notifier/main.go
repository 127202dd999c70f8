package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/mvaldes-dev/tienda-checkout/internal/checkout"
	"github.com/mvaldes-dev/tienda-checkout/internal/config"
	kafkax "github.com/mvaldes-dev/tienda-checkout/internal/kafka"
	"github.com/mvaldes-dev/tienda-checkout/internal/mail"
	"github.com/mvaldes-dev/tienda-checkout/internal/metrics"
	"github.com/mvaldes-dev/tienda-checkout/internal/notify"
	"github.com/mvaldes-dev/tienda-checkout/internal/redisx"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	name := cfg.ServiceName + "-notifier"
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", name).Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis (event dedup)
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Mail transport: SMTP when configured, log-only otherwise.
	var mailer mail.Mailer
	if cfg.SMTPAddr != "" {
		mailer = &mail.SMTPMailer{Addr: cfg.SMTPAddr, From: cfg.SMTPFrom}
	} else {
		mailer = &mail.LogMailer{Log: log}
	}

	svc := &notify.Service{
		Mailer:  mailer,
		Redis:   rdb,
		Log:     log,
		Metrics: metrics.NewNotifier(nil),
		Service: name,
	}

	// Metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		addr := getenv("NOTIFIER_METRICS_ADDR", ":9091")
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error().Err(err).Msg("metrics listener")
		}
	}()

	group := getenv("NOTIFIER_GROUP", "invoice-notifier")
	workers := mustAtoi(os.Getenv("NOTIFIER_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, checkout.TopicInvoiceIssued, workers, log)

	go func() {
		log.Info().Str("group", group).Str("topic", checkout.TopicInvoiceIssued).
			Int("workers", workers).Msg("notifier consumer started")
		if err := cons.Start(ctx, svc.HandleInvoiceIssued); err != nil {
			log.Error().Err(err).Msg("consumer exit")
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
