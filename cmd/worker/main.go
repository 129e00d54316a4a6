// Background worker for the sourcing-intelligence platform.  It keeps the
// supplier search index in sync with the directory: incremental updates from
// supplier.upserted events plus a periodic full resync.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trellisource/sourcing-intelligence/internal/config"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/database/postgres"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/messaging/kafka"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/search/opensearch"
)

const (
	healthPort   = 8081
	resyncPeriod = time.Hour
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(log)

	concurrency := cfg.Worker.Concurrency
	if concurrency < 1 {
		concurrency = 2
	}
	log.Info("starting worker", logging.Int("concurrency", concurrency))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", logging.Err(err))
	}
	defer pool.Close()
	supplierRepo := repositories.NewSupplierRepo(pool.Pool(), log)

	osClient, err := opensearch.NewClient(cfg.OpenSearch, log)
	if err != nil {
		log.Fatal("failed to connect to opensearch", logging.Err(err))
	}
	defer osClient.Close()
	indexer := opensearch.NewIndexer(osClient, log)

	if err := indexer.EnsureIndex(ctx); err != nil {
		log.Fatal("failed to ensure supplier index", logging.Err(err))
	}

	deadLetter, err := kafka.NewProducer(cfg.Kafka, log)
	if err != nil {
		log.Fatal("failed to create dead-letter producer", logging.Err(err))
	}
	defer deadLetter.Close()

	syncer := newSupplierSync(supplierRepo, indexer, log)

	g, gctx := errgroup.WithContext(ctx)

	// Consumers share the configured group ID so partitions balance across
	// instances.
	consumers := make([]*kafka.Consumer, 0, concurrency)
	for i := 0; i < concurrency; i++ {
		consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.ConsumerOptions{
			Topic:      kafka.TopicSupplierUpserted,
			Handler:    syncer.handle,
			DeadLetter: deadLetter,
			MaxRetries: cfg.Worker.MaxRetries,
			Backoff:    cfg.Worker.RetryBackoff,
		}, log)
		if err != nil {
			log.Fatal("failed to create consumer", logging.Err(err))
		}
		consumers = append(consumers, consumer)
		g.Go(func() error { return consumer.Run(gctx) })
	}

	g.Go(func() error { return syncer.resyncLoop(gctx, resyncPeriod) })

	healthSrv := startHealthServer(osClient, log)

	<-ctx.Done()
	log.Info("shutdown signal received")

	for _, c := range consumers {
		if err := c.Close(); err != nil {
			log.Error("failed to close consumer", logging.Err(err))
		}
	}
	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error("worker group exited with error", logging.Err(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("health server shutdown failed", logging.Err(err))
	}

	log.Info("worker stopped")
}

// startHealthServer exposes liveness and readiness probes for the scheduler.
func startHealthServer(osClient *opensearch.Client, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !osClient.IsHealthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", healthPort), Handler: mux}
	go func() {
		log.Info("health server listening", logging.Int("port", healthPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health server failed", logging.Err(err))
		}
	}()
	return srv
}
