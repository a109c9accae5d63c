package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/davidleathers/laborboard/internal/api/rest"
	"github.com/davidleathers/laborboard/internal/infrastructure/cache"
	"github.com/davidleathers/laborboard/internal/infrastructure/config"
	"github.com/davidleathers/laborboard/internal/infrastructure/database"
	"github.com/davidleathers/laborboard/internal/infrastructure/events"
	"github.com/davidleathers/laborboard/internal/infrastructure/telegram"
	"github.com/davidleathers/laborboard/internal/infrastructure/telemetry"
	"github.com/davidleathers/laborboard/internal/metrics"
	"github.com/davidleathers/laborboard/internal/service"
	moderationsvc "github.com/davidleathers/laborboard/internal/service/moderation"
	"github.com/davidleathers/laborboard/internal/service/notification"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("moderator exited with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("moderator stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	tracing, err := telemetry.InitTracing(ctx, "laborboard-moderator", cfg)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to flush traces", zap.Error(err))
		}
	}()

	pool, err := database.NewPool(ctx, &cfg.Database, logger.Named("database"))
	if err != nil {
		return err
	}
	defer pool.Close()

	redisCache, err := cache.NewRedisCache(&cfg.Redis, logger.Named("redis"))
	if err != nil {
		return err
	}
	defer func() { _ = redisCache.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		database.NewPoolCollector(pool),
	)
	m := metrics.NewRegistry(reg)

	var publisher moderationsvc.EventPublisher = events.NoopPublisher{}
	if cfg.Kafka.Enabled() {
		kp := events.NewKafkaPublisher(cfg.Kafka, logger.Named("kafka"))
		defer func() { _ = kp.Close() }()
		publisher = kp
	} else {
		logger.Warn("no kafka brokers configured, evaluations are not consumed or published")
	}

	var (
		bot    *telegram.Client
		sender notification.Sender
	)
	if cfg.Telegram.Token != "" {
		bot, err = telegram.NewClient(cfg.Telegram, logger.Named("telegram"))
		if err != nil {
			return err
		}
		sender = bot
	} else {
		logger.Warn("no telegram token configured, alerts are not delivered")
	}

	services, err := service.NewServices(cfg, pool, service.Options{
		Sender:    sender,
		Publisher: publisher,
		Cache:     redisCache,
		Metrics:   m,
	}, logger)
	if err != nil {
		return err
	}

	health := rest.NewHealthService(rest.HealthConfig{
		CacheDuration:  5 * time.Second,
		Timeout:        2 * time.Second,
		ServiceName:    "laborboard-moderator",
		ServiceVersion: cfg.Version,
	},
		rest.NewPingChecker("database", func(ctx context.Context) error { return database.Ping(ctx, pool) }),
		rest.NewPingChecker("redis", redisCache.Ping),
	)
	handler := rest.NewRouter(health, rest.NewHandlers(services.Moderation, logger.Named("http")), reg, m, logger.Named("http"))
	server := rest.NewServer(cfg.Server, handler, logger.Named("http"))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return server.Run(ctx) })

	if cfg.Kafka.Enabled() {
		consumer := events.NewOrderConsumer(cfg.Kafka, func(ctx context.Context, orderID int64) error {
			_, err := services.Moderation.EvaluateOrder(ctx, orderID)
			return err
		}, cfg.Moderation.EvalTimeout, logger.Named("consumer"))
		g.Go(func() error {
			defer func() { _ = consumer.Close() }()
			return consumer.Run(ctx)
		})
	}

	if bot != nil {
		router := telegram.NewRouter(bot, services.Moderation, cfg.Telegram.PollTimeout, logger.Named("telegram"))
		g.Go(func() error { return router.Run(ctx) })
	}

	logger.Info("moderator started",
		zap.String("environment", cfg.Environment),
		zap.Bool("kafka", cfg.Kafka.Enabled()),
		zap.Bool("telegram", bot != nil))

	return g.Wait()
}
