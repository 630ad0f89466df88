// Package aggregate fans out to the external data sources in parallel and
// merges their outcomes into a single context for document generation.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sitespec/sitespec/internal/metrics"
	"github.com/sitespec/sitespec/internal/models"
)

// ReviewsFetcher fetches reviews and rating metadata for a business name.
type ReviewsFetcher interface {
	FetchReviews(ctx context.Context, name string) models.ReviewsResult
}

// SiteScraper maps a site and scrapes individual pages.
type SiteScraper interface {
	MapSite(ctx context.Context, siteURL string) models.SiteMapResult
	ScrapeBatch(ctx context.Context, urls []string) []models.ScrapedPage
}

// SEOAnalyzer runs the asynchronous SEO pipeline to completion.
type SEOAnalyzer interface {
	Analyze(ctx context.Context, siteURL string) models.SEOAnalysisResult
}

// URLSelector picks the page URLs worth scraping.
type URLSelector interface {
	Select(ctx context.Context, candidates []models.PageCandidate, businessContext string) []string
}

// Request describes one aggregation request. Sources whose prerequisite
// field is empty are skipped, not failed.
type Request struct {
	BusinessName string
	WebsiteURL   string
	// Context is the user's free-text description, used for relevance
	// ranking.
	Context string
}

// Aggregator orchestrates the parallel source fetches.
type Aggregator struct {
	reviews  ReviewsFetcher
	scraper  SiteScraper
	seo      SEOAnalyzer
	selector URLSelector
	stats    *metrics.Collector
	logger   *slog.Logger

	// Hook, when set, is called with a stage name each time a source
	// settles. Set before Fetch; called from the fetch goroutines.
	Hook func(stage string)
}

// New creates an aggregator. stats may be nil.
func New(reviews ReviewsFetcher, scraper SiteScraper, seo SEOAnalyzer, selector URLSelector, stats *metrics.Collector, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		reviews:  reviews,
		scraper:  scraper,
		seo:      seo,
		selector: selector,
		stats:    stats,
		logger:   logger,
	}
}

// Stage names reported through the settle Hook.
const (
	StageReviews = "reviews"
	StageWebsite = "website"
	StageSEO     = "seo"
)

// Fetch runs all applicable source fetches concurrently and waits for every
// one of them to settle. A failure in one source never prevents or delays
// the others; its failure is recorded in the corresponding result field.
// Generation must not start until Fetch returns.
func (a *Aggregator) Fetch(ctx context.Context, req Request) models.AggregatedContext {
	var agg models.AggregatedContext
	var wg sync.WaitGroup

	if req.BusinessName != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := a.guardReviews(ctx, req.BusinessName)
			agg.Reviews = &result
			a.settled(StageReviews)
		}()
	}

	if req.WebsiteURL != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := a.guardWebsite(ctx, req.WebsiteURL, req.Context)
			agg.Website = &result
			a.settled(StageWebsite)
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			result := a.guardSEO(ctx, req.WebsiteURL)
			agg.SEO = &result
			a.settled(StageSEO)
		}()
	}

	wg.Wait()

	a.logger.Info("aggregation settled",
		"reviews", agg.HasReviews(),
		"website", agg.HasWebsite(),
		"seo", agg.HasSEO(),
	)
	return agg
}

func (a *Aggregator) guardReviews(ctx context.Context, name string) (result models.ReviewsResult) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("reviews fetch panicked", "panic", r)
			result = models.ReviewsResult{Kind: models.FailureTransport, Err: fmt.Sprintf("reviews fetch panic: %v", r)}
		}
	}()

	start := time.Now()
	result = a.reviews.FetchReviews(ctx, name)
	a.record(metrics.OpReviews, start)
	return result
}

func (a *Aggregator) guardSEO(ctx context.Context, siteURL string) (result models.SEOAnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("seo analysis panicked", "panic", r)
			result = models.SEOAnalysisResult{URL: siteURL, Kind: models.FailureTransport, Err: fmt.Sprintf("seo analysis panic: %v", r)}
		}
	}()

	start := time.Now()
	result = a.seo.Analyze(ctx, siteURL)
	a.record(metrics.OpSEO, start)
	return result
}

func (a *Aggregator) guardWebsite(ctx context.Context, siteURL, businessContext string) (result models.WebsiteContentResult) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("website fetch panicked", "panic", r)
			result = models.WebsiteContentResult{BaseURL: siteURL, Kind: models.FailureTransport, Err: fmt.Sprintf("website fetch panic: %v", r)}
		}
	}()

	start := time.Now()
	result = a.fetchWebsite(ctx, siteURL, businessContext)
	a.record(metrics.OpWebsite, start)
	return result
}

// fetchWebsite runs the site-map -> relevance-filter -> batch-scrape
// sub-pipeline as one unit inside the fan-out.
func (a *Aggregator) fetchWebsite(ctx context.Context, siteURL, businessContext string) models.WebsiteContentResult {
	siteMap := a.scraper.MapSite(ctx, siteURL)
	if !siteMap.Success {
		return models.WebsiteContentResult{
			BaseURL: siteURL,
			Kind:    siteMap.Kind,
			Err:     siteMap.Err,
		}
	}
	if len(siteMap.Links) == 0 {
		return models.WebsiteContentResult{
			Success: true,
			BaseURL: siteURL,
		}
	}

	urls := a.selector.Select(ctx, siteMap.Links, businessContext)

	pages := a.scraper.ScrapeBatch(ctx, urls)
	successful := make([]models.ScrapedPage, 0, len(pages))
	for _, p := range pages {
		if p.OK() {
			successful = append(successful, p)
		} else if p.Err != "" {
			a.logger.Debug("page skipped", "url", p.URL, "error", p.Err)
		}
	}

	return models.WebsiteContentResult{
		Success:     true,
		BaseURL:     siteURL,
		TotalURLs:   len(siteMap.Links),
		ScrapedURLs: len(successful),
		Pages:       successful,
	}
}

func (a *Aggregator) settled(stage string) {
	if a.Hook != nil {
		a.Hook(stage)
	}
}

func (a *Aggregator) record(op string, start time.Time) {
	if a.stats != nil {
		a.stats.Record(op, time.Since(start))
	}
}
