// Package models defines data structures shared across the sitespec pipeline.
package models

// FailureKind classifies why an external-source fetch failed.
// Empty means no failure.
type FailureKind string

const (
	// FailureConfigMissing means a required API credential was absent.
	// Detected before any network call is made.
	FailureConfigMissing FailureKind = "config_missing"
	// FailureNotFound means the upstream service reported no match.
	FailureNotFound FailureKind = "not_found"
	// FailureTransport covers network errors, timeouts and non-2xx responses.
	FailureTransport FailureKind = "transport"
	// FailureParse means the upstream payload could not be decoded.
	FailureParse FailureKind = "parse"
	// FailurePipelineTimeout means a polled pipeline did not reach a
	// terminal state before the wall-clock ceiling.
	FailurePipelineTimeout FailureKind = "pipeline_timeout"
	// FailureGenerative means a text-generation call errored or returned
	// empty output.
	FailureGenerative FailureKind = "generative"
)

// BusinessLookupResult is the outcome of resolving a free-text business name
// against the business directory.
type BusinessLookupResult struct {
	Found      bool
	Name       string
	Address    string
	WebsiteURL string
	PlaceID    string
	Kind       FailureKind
	Err        string
}

// Review is a single customer review.
type Review struct {
	Author      string
	Rating      float64
	Text        string
	PublishedAt string
}

// ReviewsResult is the outcome of fetching reviews and rating metadata for a
// business. An empty Reviews slice with Success=true is a valid state: the
// business exists but has no reviews yet.
type ReviewsResult struct {
	Success      bool
	BusinessName string
	Address      string
	MapLink      string
	Rating       float64
	RatingCount  int
	Reviews      []Review
	Kind         FailureKind
	Err          string
}

// PageCandidate is a discovered page URL with optional metadata from the
// site map, used as input to relevance filtering.
type PageCandidate struct {
	URL         string
	Title       string
	Description string
}

// SiteMapResult is the outcome of discovering all page URLs under a domain.
type SiteMapResult struct {
	Success bool
	BaseURL string
	Links   []PageCandidate
	Kind    FailureKind
	Err     string
}

// ScrapedPage is the outcome of scraping a single URL to markdown.
type ScrapedPage struct {
	URL      string
	Title    string
	Markdown string
	Err      string
}

// OK reports whether the page was scraped successfully with content.
func (p ScrapedPage) OK() bool {
	return p.Err == "" && p.Markdown != ""
}

// WebsiteContentResult is the merged outcome of the site-map, relevance
// filter and batch-scrape sub-pipeline. Pages holds successful pages only.
type WebsiteContentResult struct {
	Success     bool
	BaseURL     string
	TotalURLs   int
	ScrapedURLs int
	Pages       []ScrapedPage
	Kind        FailureKind
	Err         string
}

// SEOAnalysisResult is the outcome of the asynchronous SEO analysis pipeline.
type SEOAnalysisResult struct {
	Success  bool
	URL      string
	Markdown string
	RunID    string
	Kind     FailureKind
	Err      string
}

// AggregatedContext merges the three source results for one generation
// request. A nil field means the source's prerequisite context was absent
// and the fetch was never attempted. Never persisted.
type AggregatedContext struct {
	Reviews *ReviewsResult
	Website *WebsiteContentResult
	SEO     *SEOAnalysisResult
}

// HasReviews reports whether usable review data is present.
func (a AggregatedContext) HasReviews() bool {
	return a.Reviews != nil && a.Reviews.Success
}

// HasWebsite reports whether at least one page was scraped successfully.
func (a AggregatedContext) HasWebsite() bool {
	return a.Website != nil && a.Website.Success && len(a.Website.Pages) > 0
}

// HasSEO reports whether an SEO report is present.
func (a AggregatedContext) HasSEO() bool {
	return a.SEO != nil && a.SEO.Success && a.SEO.Markdown != ""
}
