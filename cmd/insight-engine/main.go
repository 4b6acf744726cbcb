package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oraclewatch/oem-insight/internal/api"
	"github.com/oraclewatch/oem-insight/internal/config"
	"github.com/oraclewatch/oem-insight/internal/corroborate"
	"github.com/oraclewatch/oem-insight/internal/metrics"
	"github.com/oraclewatch/oem-insight/internal/normalize"
	"github.com/oraclewatch/oem-insight/internal/reasoning"
	"github.com/oraclewatch/oem-insight/internal/repo"
	"github.com/oraclewatch/oem-insight/internal/services"
	"github.com/oraclewatch/oem-insight/internal/session"
	"github.com/oraclewatch/oem-insight/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting oem-insight", slog.String("address", cfg.Server.HTTPAddress))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 10*time.Second)
	var snapshotter session.Snapshotter
	if cfg.Session.Backend == "redis" && cfg.Session.Redis.Addr != "" {
		redisSnap, err := session.NewRedisSnapshotter(bootCtx, session.RedisConfig{
			Addr:     cfg.Session.Redis.Addr,
			Username: cfg.Session.Redis.Username,
			Password: cfg.Session.Redis.Password,
			DB:       cfg.Session.Redis.DB,
			TTL:      cfg.Session.TTL,
		})
		if err != nil {
			logger.Warn("redis session backend unavailable, using memory", slog.Any("error", err))
		} else {
			snapshotter = redisSnap
			defer redisSnap.Close()
		}
	}
	cancelBoot()

	norm := normalize.New(cfg.Analysis.TargetAliases)
	sessions := session.NewStore(snapshotter, utils.ComponentLogger(logger, "session"))

	coreClient := repo.NewCoreClient(
		cfg.Clients.Core.BaseURL,
		cfg.Clients.Core.Timeout,
		cfg.Clients.Core.Attempts,
		norm,
		utils.ComponentLogger(logger, "repo"),
	)
	classifierClient := repo.NewClassifierClient(cfg.Clients.Classifier.BaseURL, cfg.Clients.Classifier.Timeout)
	sinkClient := repo.NewSinkClient(cfg.Clients.Sink.BaseURL, cfg.Clients.Sink.Timeout)

	indexes, err := corroborate.NewCachedBuilder(
		cfg.Analysis.IndexCacheSize,
		cfg.Analysis.IndexCacheTTL,
		corroborate.Thresholds{
			CPU:     cfg.Analysis.CPUThreshold,
			Memory:  cfg.Analysis.MemoryThreshold,
			Storage: cfg.Analysis.StorageThreshold,
		},
	)
	if err != nil {
		logger.Error("failed to create corroboration cache", slog.Any("error", err))
		os.Exit(1)
	}

	pipeline := reasoning.NewPipeline(
		utils.ComponentLogger(logger, "reasoning"),
		coreClient,
		classifierClient,
		sinkClient,
		sessions,
		norm,
		indexes,
		cfg.Analysis.Lookback,
		cfg.Analysis.IncidentGap,
	)

	questionService := services.NewQuestionService(utils.ComponentLogger(logger, "service"), pipeline, sessions)

	grpcServer, err := api.NewGRPCServer(cfg.Server)
	if err != nil {
		logger.Error("failed to create gRPC server", slog.Any("error", err))
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.HTTPAddress,
		Handler:      api.NewRouter(utils.ComponentLogger(logger, "api"), questionService),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		logger.Info("http server listening", slog.String("address", cfg.Server.HTTPAddress))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server exited", slog.Any("error", err))
			stop()
		}
	}()

	go func() {
		if serveErr := grpcServer.Start(); serveErr != nil {
			logger.Error("gRPC server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")
	grpcServer.SetServing(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("http server shutdown", slog.Any("error", err))
	}
	grpcServer.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("oem-insight stopped")
}
