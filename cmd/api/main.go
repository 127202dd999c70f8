package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mvaldes-dev/tienda-checkout/internal/checkout"
	"github.com/mvaldes-dev/tienda-checkout/internal/config"
	"github.com/mvaldes-dev/tienda-checkout/internal/httpx"
	kafkax "github.com/mvaldes-dev/tienda-checkout/internal/kafka"
	"github.com/mvaldes-dev/tienda-checkout/internal/metrics"
	"github.com/mvaldes-dev/tienda-checkout/internal/postgres"
	"github.com/mvaldes-dev/tienda-checkout/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.ServiceName).Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer (invoice.issued)
	prod := kafkax.NewProducer(cfg.KafkaBrokers, checkout.TopicInvoiceIssued, 1024, log)
	prod.Start(ctx)

	// Core wiring
	repo := &checkout.Repo{DB: db}
	coord := &checkout.Coordinator{
		Store: repo,
		Pricing: checkout.PriceConfig{
			ShippingBase:    decimal.NewFromFloat(cfg.ShippingBase),
			ShippingPerItem: decimal.NewFromFloat(cfg.ShippingPerItem),
			ShippingMax:     decimal.NewFromFloat(cfg.ShippingMax),
			TaxRate:         decimal.NewFromFloat(cfg.TaxRate),
			Currency:        cfg.Currency,
		},
	}

	router := httpx.NewRouter()
	router.Handle("/metrics", metrics.Handler())
	h := &httpx.InvoicesHandler{
		Coordinator: coord,
		Store:       repo,
		Publisher:   prod,
		Redis:       rdb,
		Service:     cfg.ServiceName,
		AuthToken:   cfg.AuthToken,
		Log:         log,
		Metrics:     metrics.NewCheckout(nil),
	}
	h.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // stop intake -> flush & close writer
	cancel()          // stop producer loop
	prod.WaitClosed() // drain
}
