// Package main is the entry point for the finsight financial analysis
// server. It ingests raw market data, news and filings into a
// temporal-filtered vector index and serves risk metrics, trend
// analysis and retrieval-augmented investment insights over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/finsight/internal/config"
	"github.com/aristath/finsight/internal/database"
	"github.com/aristath/finsight/internal/modules/chunker"
	"github.com/aristath/finsight/internal/modules/embedding"
	"github.com/aristath/finsight/internal/modules/ingest"
	ingesthandlers "github.com/aristath/finsight/internal/modules/ingest/handlers"
	"github.com/aristath/finsight/internal/modules/insights"
	insightshandlers "github.com/aristath/finsight/internal/modules/insights/handlers"
	"github.com/aristath/finsight/internal/modules/marketdata"
	"github.com/aristath/finsight/internal/modules/risk"
	riskhandlers "github.com/aristath/finsight/internal/modules/risk/handlers"
	"github.com/aristath/finsight/internal/modules/vectorindex"
	"github.com/aristath/finsight/internal/scheduler"
	"github.com/aristath/finsight/internal/server"
	"github.com/aristath/finsight/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Strs("symbols", cfg.Symbols).
		Msg("Starting finsight")

	// The index store is rebuildable from the raw data files, so it
	// runs on the cache profile.
	indexDB, err := database.New(database.Config{
		Path:    cfg.IndexPath,
		Profile: database.ProfileCache,
		Name:    "index",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open index database")
	}
	defer indexDB.Close()

	embedder, err := embedding.New(cfg.Embedding, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize embedding provider")
	}

	vectorStore, err := vectorindex.NewStore(indexDB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize vector store")
	}

	index, err := vectorindex.New(embedder, vectorStore, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load vector index")
	}
	log.Info().Interface("collections", index.Stats()).Msg("Vector index ready")

	dataStore := marketdata.NewStore(cfg.DataDir, log)
	riskEngine := risk.NewEngine(dataStore, cfg, log)
	insightService := insights.NewService(riskEngine, index, log)
	ingestService := ingest.NewService(dataStore, chunker.New(log), index, cfg, log)

	srv := server.New(server.Config{
		Log:              log,
		Config:           cfg,
		IndexDB:          indexDB,
		RiskHandlers:     riskhandlers.NewHandler(riskEngine, log),
		InsightsHandlers: insightshandlers.NewHandler(insightService, log),
		IngestHandlers:   ingesthandlers.NewHandler(ingestService, cfg, log),
	})

	sched := scheduler.New(log)
	refreshJob := scheduler.NewRefreshJob(ingestService, cfg.Symbols, log)
	if cfg.RefreshSchedule != "" {
		if err := sched.AddJob(cfg.RefreshSchedule, refreshJob); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.RefreshSchedule).Msg("Invalid refresh schedule")
		}
		sched.Start()
	}

	// Populate the index from the data directory before the first
	// scheduled refresh; requests served meanwhile see a partial index.
	go func() {
		if err := sched.RunNow(refreshJob); err != nil {
			log.Error().Err(err).Msg("Initial ingestion failed")
		}
	}()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}
