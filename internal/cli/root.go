// Package cli provides the command-line interface for sitespec.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

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
	"github.com/sitespec/sitespec/internal/service"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config, logger and db client
	cfg       config.Config
	logger    *slog.Logger
	logflush  func() error
	dbClient  *db.Client
	collector = metrics.NewCollector()

	// Lazy-initialized generation model
	model *llm.Model
)

// storeless lists commands that talk only to external services and never
// need the database.
var storeless = map[string]bool{
	"version": true,
	"help":    true,
	"lookup":  true,
	"reviews": true,
	"scrape":  true,
	"seo":     true,
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sitespec",
	Short: "Business website specification generator",
	Long: `Sitespec generates website specification documents for small businesses.

It aggregates customer reviews, the current website's content and an SEO
content analysis in parallel, then assembles a markdown specification —
either through a text-generation model or a deterministic template.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, logflush = config.SetupLogger(cfg.LogFile, level)

		if storeless[cmd.Name()] {
			return nil
		}

		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		var err error
		dbClient, err = db.NewClient(ctx, dbCfg, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := dbClient.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if logflush != nil {
			_ = logflush()
		}
	},
}

// getModel lazily initializes the generation model. Commands degrade to
// deterministic behavior when no model is configured.
func getModel() *llm.Model {
	if model != nil {
		return model
	}
	m, err := llm.NewModel(cfg)
	if err != nil {
		logger.Warn("generation model unavailable, using deterministic paths", "error", err)
		return nil
	}
	model = m
	return model
}

// getAggregator builds the parallel source aggregator from config.
func getAggregator() *aggregate.Aggregator {
	placesClient := places.NewClient(cfg, logger)
	scraper := firecrawl.NewClient(cfg, logger)
	seo := gumloop.NewClient(cfg, logger)

	var gen relevance.Generator
	if m := getModel(); m != nil {
		gen = m
	}
	selector := relevance.NewSelector(gen, cfg.MaxPages, logger)

	return aggregate.New(placesClient, scraper, seo, selector, collector, logger)
}

// getGenerationService wires the full generation pipeline against the
// connected database. The aggregator is returned as well so callers can
// attach a progress hook.
func getGenerationService() (*service.GenerationService, *aggregate.Aggregator) {
	var gen document.Generator
	if m := getModel(); m != nil {
		gen = m
	}
	assembler := document.NewAssembler(gen, collector, logger)
	store := service.NewStore(dbClient)
	agg := getAggregator()
	return service.NewGenerationService(store, agg, assembler, collector, logger, cfg.Owner), agg
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(reviewsCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(seoCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(conversationsCmd)
}
