package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Sifael/15-Minute-Time-Keeper-App/internal/api"
	"github.com/Sifael/15-Minute-Time-Keeper-App/internal/config"
	"github.com/Sifael/15-Minute-Time-Keeper-App/internal/domain"
	"github.com/Sifael/15-Minute-Time-Keeper-App/internal/outbox"
	"github.com/Sifael/15-Minute-Time-Keeper-App/internal/persistence/memory"
	"github.com/Sifael/15-Minute-Time-Keeper-App/internal/persistence/postgres"
	"github.com/Sifael/15-Minute-Time-Keeper-App/internal/persistence/sqlite"
	httptransport "github.com/Sifael/15-Minute-Time-Keeper-App/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		repo       domain.LogRepository
		closers    []io.Closer
		dispatcher *outbox.Dispatcher
	)

	switch cfg.StoreDriver {
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open sqlite store at %s: %v", cfg.SQLitePath, err)
		}
		closers = append(closers, store)
		repo = store

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()

		var opts []postgres.Option
		if cfg.OutboxEnabled() {
			opts = append(opts, postgres.WithOutbox())
		}
		store := postgres.NewRepository(pool, opts...)
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatalf("failed to bootstrap postgres schema: %v", err)
		}
		repo = store

		if cfg.OutboxEnabled() {
			producer := outbox.NewKafkaProducer(outbox.ProducerConfigFrom(cfg))
			closers = append(closers, producer)

			topics := make(map[string]string, len(postgres.EventCatalog))
			for eventType, meta := range postgres.EventCatalog {
				topics[eventType] = meta.Topic
			}
			dispatcher = outbox.NewDispatcher(pool, producer, topics, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
			go dispatcher.Start(ctx)
		}

	case config.DriverMemory:
		log.Printf("using in-memory store; entries are lost on exit")
		repo = memory.NewRepository()
	}

	service := domain.NewService(repo)

	handler := api.NewHandler(service)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, httptransport.Chain(mux,
		httptransport.RequestID(),
		httptransport.Logging(log.New(log.Writer(), "[http] ", log.LstdFlags)),
		httptransport.CORS(cfg.CORSAllowedOrigin),
	))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("journal listening on %s (store=%s, outbox=%t)", cfg.HTTPAddress, cfg.StoreDriver, cfg.OutboxEnabled())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	if dispatcher != nil {
		dispatcher.Wait()
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			log.Printf("close error: %v", err)
		}
	}
}
