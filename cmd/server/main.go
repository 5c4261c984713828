package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/vidanagua/marine-indicators-service/internal/adapter/http"
	kafkaadapter "github.com/vidanagua/marine-indicators-service/internal/adapter/kafka"
	"github.com/vidanagua/marine-indicators-service/internal/adapter/owid"
	"github.com/vidanagua/marine-indicators-service/internal/catalog"
	"github.com/vidanagua/marine-indicators-service/internal/config"
	"github.com/vidanagua/marine-indicators-service/internal/dataset"
	"github.com/vidanagua/marine-indicators-service/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := owid.NewClient(cfg.DataBaseURL, cfg.FetchTimeout, logger)
	metadataFetcher := owid.NewCachedMetadataFetcher(client, cfg.MetadataCacheSize)

	// Record publishing is feature-flagged via KAFKA_ENABLED.
	var publisher dataset.RecordPublisher
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		kafkaWriter = kafkaadapter.NewWriter(cfg, logger)
		publisher = kafkaWriter
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	store := dataset.NewStore(catalog.Configs())
	loader := dataset.NewLoader(store, client, metadataFetcher, publisher, logger, metrics)

	api := httpadapter.NewHandler(store, loader, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, api, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Warm every dataset at startup. Loads are not cancellable once started,
	// so they run detached from the signal context.
	if cfg.LoadOnStartup {
		go loader.LoadAll(context.Background())
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
