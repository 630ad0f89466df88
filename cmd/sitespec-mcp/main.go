// Package main provides the entry point for the sitespec MCP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sitespec/sitespec/internal/aggregate"
	"github.com/sitespec/sitespec/internal/config"
	"github.com/sitespec/sitespec/internal/db"
	"github.com/sitespec/sitespec/internal/document"
	"github.com/sitespec/sitespec/internal/firecrawl"
	"github.com/sitespec/sitespec/internal/gumloop"
	"github.com/sitespec/sitespec/internal/llm"
	"github.com/sitespec/sitespec/internal/metrics"
	"github.com/sitespec/sitespec/internal/places"
	"github.com/sitespec/sitespec/internal/relevance"
	"github.com/sitespec/sitespec/internal/server"
	"github.com/sitespec/sitespec/internal/service"
	"github.com/sitespec/sitespec/internal/tools"
)

const version = "0.1.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger (dual output: stderr text + file JSON)
	logger, logflush := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = logflush() }()

	// Log startup info
	logger.Info("sitespec-mcp starting",
		"version", version,
		"surrealdb_url", cfg.SurrealDBURL,
		"llm_provider", cfg.LLMProvider,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	dbCfg := db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}

	dbClient, err := db.NewClient(ctx, dbCfg, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		logger.Info("closing database connection")
		_ = dbClient.Close(ctx)
	}()

	// Initialize database schema
	if err := dbClient.InitSchema(ctx); err != nil {
		logger.Error("failed to initialize database schema", "error", err)
		os.Exit(1)
	}

	// Generation model is optional: without one the pipeline degrades to
	// deterministic URL selection and template assembly.
	var gen *llm.Model
	if m, err := llm.NewModel(cfg); err != nil {
		logger.Warn("generation model unavailable, using deterministic paths", "error", err)
	} else {
		gen = m
		logger.Info("generation model initialized", "provider", cfg.LLMProvider, "model", cfg.LLMModel)
	}

	// Build the aggregation pipeline
	collector := metrics.NewCollector()
	placesClient := places.NewClient(cfg, logger)
	scraper := firecrawl.NewClient(cfg, logger)
	seo := gumloop.NewClient(cfg, logger)

	var selectorGen relevance.Generator
	var assemblerGen document.Generator
	if gen != nil {
		selectorGen = gen
		assemblerGen = gen
	}
	selector := relevance.NewSelector(selectorGen, cfg.MaxPages, logger)
	aggregator := aggregate.New(placesClient, scraper, seo, selector, collector, logger)

	// Build the generation service
	assembler := document.NewAssembler(assemblerGen, collector, logger)
	store := service.NewStore(dbClient)
	svc := service.NewGenerationService(store, aggregator, assembler, collector, logger, cfg.Owner)

	// Create and setup server
	srv := server.New(version, logger)
	srv.Setup()

	// Register tools
	deps := &tools.Dependencies{
		Places:  placesClient,
		Service: svc,
		Logger:  logger,
	}
	tools.RegisterAll(srv.MCPServer(), deps)
	logger.Info("tools registered", "count", 7)

	// Log ready state
	logger.Info("server ready, awaiting connections")

	// Run server (blocks until disconnect or context cancelled)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
