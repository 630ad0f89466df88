// Package firecrawl wraps the Firecrawl API for site mapping and
// main-content markdown scraping.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/sitespec/sitespec/internal/config"
	"github.com/sitespec/sitespec/internal/markdown"
	"github.com/sitespec/sitespec/internal/models"
)

// Client talks to the Firecrawl API.
type Client struct {
	cfg     config.Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a Firecrawl client from configuration. Scrape requests
// share a rate limiter so batch windows cannot hammer the upstream.
func NewClient(cfg config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	per := cfg.ScrapeRatePerSec
	if per <= 0 {
		per = 2
	}
	return &Client{
		cfg: cfg,
		// Per-request deadlines come from the caller's context.
		http:    &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(per), cfg.ScrapeConcurrency+1),
		logger:  logger,
	}
}

type mapRequest struct {
	URL               string `json:"url"`
	IncludeSubdomains bool   `json:"includeSubdomains"`
}

type mapResponse struct {
	Success bool `json:"success"`
	Links   []struct {
		URL         string `json:"url"`
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"links"`
	Error string `json:"error"`
}

type scrapeRequest struct {
	URL             string   `json:"url"`
	OnlyMainContent bool     `json:"onlyMainContent"`
	Formats         []string `json:"formats"`
}

type scrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string `json:"markdown"`
		Metadata struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"metadata"`
	} `json:"data"`
	Error string `json:"error"`
}

// MapSite discovers the full set of page URLs under a domain (no
// subdomains), each annotated with title/description when the upstream
// provides them without an extra fetch.
func (c *Client) MapSite(ctx context.Context, siteURL string) models.SiteMapResult {
	if c.cfg.FirecrawlAPIKey == "" {
		return models.SiteMapResult{
			BaseURL: siteURL,
			Kind:    models.FailureConfigMissing,
			Err:     "FIRECRAWL_API_KEY is not set",
		}
	}

	var resp mapResponse
	if kind, errMsg := c.post(ctx, "/v2/map", mapRequest{URL: siteURL, IncludeSubdomains: false}, &resp); kind != "" {
		c.logger.Warn("site map failed", "url", siteURL, "error", errMsg)
		return models.SiteMapResult{BaseURL: siteURL, Kind: kind, Err: errMsg}
	}

	if !resp.Success {
		return models.SiteMapResult{
			BaseURL: siteURL,
			Kind:    models.FailureTransport,
			Err:     fmt.Sprintf("map rejected: %s", resp.Error),
		}
	}

	links := make([]models.PageCandidate, 0, len(resp.Links))
	for _, l := range resp.Links {
		links = append(links, models.PageCandidate{URL: l.URL, Title: l.Title, Description: l.Description})
	}

	c.logger.Info("site mapped", "url", siteURL, "urls", len(links))
	return models.SiteMapResult{Success: true, BaseURL: siteURL, Links: links}
}

// ScrapePage scrapes a single URL to main-content markdown within the
// configured per-request time budget. Timeouts and non-2xx responses become
// page-level errors; there is no retry.
func (c *Client) ScrapePage(ctx context.Context, pageURL string) models.ScrapedPage {
	if c.cfg.FirecrawlAPIKey == "" {
		return models.ScrapedPage{URL: pageURL, Err: "FIRECRAWL_API_KEY is not set"}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return models.ScrapedPage{URL: pageURL, Err: fmt.Sprintf("rate limit wait: %v", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ScrapeTimeout)
	defer cancel()

	req := scrapeRequest{
		URL:             pageURL,
		OnlyMainContent: true,
		Formats:         []string{"markdown"},
	}

	var resp scrapeResponse
	if kind, errMsg := c.post(ctx, "/v2/scrape", req, &resp); kind != "" {
		c.logger.Debug("page scrape failed", "url", pageURL, "error", errMsg)
		return models.ScrapedPage{URL: pageURL, Err: errMsg}
	}

	if !resp.Success {
		return models.ScrapedPage{URL: pageURL, Err: fmt.Sprintf("scrape rejected: %s", resp.Error)}
	}

	title := resp.Data.Metadata.Title
	if title == "" {
		title = markdown.Title(resp.Data.Markdown)
	}

	return models.ScrapedPage{
		URL:      pageURL,
		Title:    title,
		Markdown: resp.Data.Markdown,
	}
}

func (c *Client) post(ctx context.Context, path string, body, out any) (models.FailureKind, string) {
	payload, err := json.Marshal(body)
	if err != nil {
		return models.FailureParse, fmt.Sprintf("marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.FirecrawlBaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return models.FailureTransport, fmt.Sprintf("create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.FirecrawlAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.FailureTransport, fmt.Sprintf("scrape timed out after %s", c.cfg.ScrapeTimeout)
		}
		return models.FailureTransport, fmt.Sprintf("firecrawl request: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.FailureTransport, fmt.Sprintf("read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return models.FailureTransport, fmt.Sprintf("firecrawl API returned %s", resp.Status)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return models.FailureParse, fmt.Sprintf("decode response: %v", err)
	}
	return "", ""
}
