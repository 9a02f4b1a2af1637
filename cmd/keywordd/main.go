// Command keywordd serves the keyword extraction HTTP API.
//
// It loads the lexicon once at startup, answers extraction requests from a
// two-tier cache, queues batch jobs on Kafka and aggregates analytics events.
// Redis, PostgreSQL and Kafka are optional; the service degrades when they
// are unreachable.
//
// Usage:
//
//	go run ./cmd/keywordd [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/api"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/cache"
	jobstore "github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/jobs/store"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/jobs/publisher"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/keywords"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/resource"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/segmenter"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/redis"
)

const (
	eventBufferSize  = 10000
	snapshotInterval = time.Minute
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
	slog.Info("starting keyword service",
		"port", cfg.Server.Port,
		"segmenter", cfg.Segmenter.Mode,
		"lexicon_source", cfg.Lexicon.Source,
	)

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
	if err := analyzer.Warm(ctx); err != nil {
		if analyzer.Lexicon() == nil {
			slog.Error("failed to load lexicon", "source", fmt.Sprint(store), "error", err)
			os.Exit(1)
		}
		slog.Warn("lexicon partially loaded", "source", fmt.Sprint(store), "error", err)
	}
	lexStats := analyzer.Lexicon().Stats()
	m.SetLexicon(lexStats.StopWords, lexStats.Terms, lexStats.SkippedLines)
	slog.Info("lexicon loaded",
		"source", fmt.Sprint(store),
		"stop_words", lexStats.StopWords,
		"terms", lexStats.Terms,
		"idf_median", lexStats.Median,
	)

	checker := health.NewChecker()
	checker.Register("lexicon", func(ctx context.Context) health.ComponentHealth {
		if lex := analyzer.Lexicon(); lex != nil {
			return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d terms", lex.Stats().Terms)}
		}
		return health.ComponentHealth{Status: health.StatusDown, Message: "not loaded"}
	})

	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, using in-process cache only", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			checker.Register("redis", health.PingCheck(redisClient.Ping, true))
			slog.Info("redis connected", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	opts := []api.Option{api.WithMetrics(m)}
	if cfg.Cache.Enabled {
		var remote cache.Backend
		if redisClient != nil {
			remote = redisClient
		}
		resultCache, err := cache.New(cfg.Cache, remote, cfg.Redis.CacheTTL, cache.WithMetrics(m))
		if err != nil {
			slog.Error("failed to create cache", "error", err)
			os.Exit(1)
		}
		opts = append(opts, api.WithCache(resultCache))
		slog.Info("extraction cache enabled", "lru_size", cfg.Cache.LRUSize, "redis", remote != nil)
	}

	kafkaEnabled := len(cfg.Kafka.Brokers) > 0
	var (
		agg     *analytics.Aggregator
		tracker analytics.Tracker
	)
	if kafkaEnabled {
		eventsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer eventsProducer.Close()
		collector := analytics.NewCollector(eventsProducer, eventBufferSize)
		collector.Start(ctx)
		defer collector.Close()
		tracker = collector
		agg = analytics.NewKafkaAggregator(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.AnalyticsEvents)
	} else {
		agg = analytics.NewAggregator(nil)
		tracker = agg
		slog.Warn("no kafka brokers configured, aggregating analytics in process and disabling jobs")
	}
	opts = append(opts, api.WithEvents(tracker))
	go func() {
		if err := agg.Start(ctx); err != nil {
			slog.Error("analytics aggregator error", "error", err)
		}
	}()

	var snapshots analytics.SnapshotLister
	db, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, jobs and snapshots disabled", "error", err)
	} else {
		defer db.Close()
		if err := db.EnsureSchema(ctx, jobstore.Schema, jobstore.IndexSchema, aggregator.Schema); err != nil {
			slog.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
		checker.Register("postgres", health.PingCheck(db.Ping, true))

		if kafkaEnabled {
			jobs := jobstore.New(db)
			jobsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ExtractionJobs)
			defer jobsProducer.Close()
			opts = append(opts, api.WithJobs(publisher.New(jobs, jobsProducer, cfg.Analyzer), jobs))
			slog.Info("job queue enabled", "topic", cfg.Kafka.Topics.ExtractionJobs)
		}

		snapshotStore := aggregator.NewStore(db.DB)
		snapshots = snapshotStore
		go func() {
			if err := snapshotStore.RunPeriodicSave(ctx, agg, snapshotInterval); err != nil {
				slog.Error("snapshot loop error", "error", err)
			}
		}()
	}

	h := api.New(analyzer, cfg.Analyzer, opts...)
	analyticsH := analytics.NewHandler(agg, snapshots)

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /api/v1/analytics", analyticsH.Stats)
	mux.HandleFunc("GET /api/v1/analytics/snapshots", analyticsH.Snapshots)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	mws := []func(http.Handler) http.Handler{middleware.RequestID, middleware.Metrics(m)}
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.New(cfg.RateLimit.Window)
		go limiter.Run(ctx, cfg.RateLimit.Window)
		mws = append(mws, ratelimit.Middleware(limiter, cfg.RateLimit.RequestsPerWindow, m))
		slog.Info("rate limiting enabled",
			"requests", cfg.RateLimit.RequestsPerWindow,
			"window", cfg.RateLimit.Window,
		)
	}
	mws = append(mws, middleware.Timeout(cfg.Server.WriteTimeout))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.Chain(mux, mws...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout + time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("keyword service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("keyword service stopped")
}
