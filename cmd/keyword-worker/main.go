// Command keyword-worker consumes extraction jobs from Kafka, runs the
// keyword pipeline on each, stores the result in PostgreSQL and publishes it
// to the results topic in batches.
//
// Usage:
//
//	go run ./cmd/keyword-worker [-config configs/development.yaml]
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

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/analytics/collector"
	jobstore "github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/jobs/store"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/jobs/worker"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/keywords"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/resource"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/segmenter"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/postgres"
)

const (
	resultBatchSize     = 100
	resultFlushInterval = 2 * time.Second
	eventBufferSize     = 10000
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting keyword worker", "group", cfg.Kafka.ConsumerGroup)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, metrics.Handler(nil))
		defer shutdownMetrics(context.Background())
	}

	seg, err := segmenter.New(cfg.Segmenter)
	if err != nil {
		slog.Error("failed to create segmenter", "error", err)
		os.Exit(1)
	}
	store, err := resource.New(ctx, cfg.Lexicon)
	if err != nil {
		slog.Error("failed to open lexicon source", "error", err)
		os.Exit(1)
	}
	analyzer := keywords.New(seg, keywords.StoreLoader(store, cfg.Lexicon.StopWordsName, cfg.Lexicon.IDFName))
	if err := analyzer.Warm(ctx); err != nil && analyzer.Lexicon() == nil {
		slog.Error("failed to load lexicon", "source", fmt.Sprint(store), "error", err)
		os.Exit(1)
	}
	lexStats := analyzer.Lexicon().Stats()
	m.SetLexicon(lexStats.StopWords, lexStats.Terms, lexStats.SkippedLines)

	db, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx, jobstore.Schema, jobstore.IndexSchema); err != nil {
		slog.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	resultsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ExtractionResults)
	defer resultsProducer.Close()
	results := collector.NewBatchCollector(resultsProducer, resultBatchSize, resultFlushInterval)

	eventsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
	defer eventsProducer.Close()
	events := analytics.NewCollector(eventsProducer, eventBufferSize)
	events.Start(ctx)
	defer events.Close()

	handler := worker.HandleMessage(analyzer, jobstore.New(db), results,
		worker.WithEvents(events),
		worker.WithMetrics(m),
	)
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.ExtractionJobs, handler)

	slog.Info("keyword worker ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.ExtractionJobs,
		"results_topic", cfg.Kafka.Topics.ExtractionResults,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return consumer.Start(gctx) })
	g.Go(func() error { return results.Run(gctx) })
	if err := g.Wait(); err != nil {
		slog.Error("worker error", "error", err)
	}

	slog.Info("keyword worker stopped")
}
