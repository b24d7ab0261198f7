package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store/backend"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting indexer service",
		"backend", cfg.Index.Backend,
		"path", cfg.Index.Path,
		"topic", cfg.Kafka.DocumentTopic,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("indexer service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("indexer service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	dir, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	analyzer := tokenizer.NewAnalyzer(tokenizer.NewRegistry(), cfg.Analysis)
	w := indexer.NewWriter(index.New(), dir, analyzer,
		indexer.WithMetrics(m),
		indexer.WithFlushEvery(cfg.Index.FlushEvery),
	)
	defer w.Close()
	if err := w.Open(ctx); err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port, registry)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	indexConsumer := consumer.New(kafka.NewConsumer(cfg.Kafka, consumer.HandleMessage(w, m), kafka.WithDeferredCommit()))
	defer indexConsumer.Close()
	// Offsets advance only once the events they cover are on disk.
	w.AfterFlush(indexConsumer.CommitHandled)

	slog.Info("indexer service ready, consuming from kafka",
		"topic", cfg.Kafka.DocumentTopic,
		"group", cfg.Kafka.ConsumerGroup,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return indexConsumer.Start(gctx)
	})
	g.Go(func() error {
		return w.RunFlushLoop(gctx, cfg.Index.FlushInterval)
	})
	return g.Wait()
}
