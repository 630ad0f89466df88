package aggregate

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitespec/sitespec/internal/models"
)

type fakeReviews struct {
	result models.ReviewsResult
	delay  time.Duration
	calls  atomic.Int32
	panics bool
}

func (f *fakeReviews) FetchReviews(ctx context.Context, name string) models.ReviewsResult {
	f.calls.Add(1)
	if f.panics {
		panic("places client blew up")
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.result
}

type fakeScraper struct {
	siteMap  models.SiteMapResult
	pages    []models.ScrapedPage
	mapCalls atomic.Int32
}

func (f *fakeScraper) MapSite(ctx context.Context, siteURL string) models.SiteMapResult {
	f.mapCalls.Add(1)
	return f.siteMap
}

func (f *fakeScraper) ScrapeBatch(ctx context.Context, urls []string) []models.ScrapedPage {
	return f.pages
}

type fakeSEO struct {
	result models.SEOAnalysisResult
	delay  time.Duration
	calls  atomic.Int32
}

func (f *fakeSEO) Analyze(ctx context.Context, siteURL string) models.SEOAnalysisResult {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.result
}

type passthroughSelector struct{}

func (passthroughSelector) Select(ctx context.Context, candidates []models.PageCandidate, businessContext string) []string {
	urls := make([]string, len(candidates))
	for i, c := range candidates {
		urls[i] = c.URL
	}
	return urls
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchAllSources(t *testing.T) {
	reviews := &fakeReviews{result: models.ReviewsResult{
		Success:      true,
		BusinessName: "Joe's Plumbing",
		Rating:       4.8,
		Reviews:      []models.Review{{Author: "Sam", Rating: 5, Text: "great"}},
	}}
	scraper := &fakeScraper{
		siteMap: models.SiteMapResult{
			Success: true,
			BaseURL: "https://joesplumbing.example",
			Links: []models.PageCandidate{
				{URL: "https://joesplumbing.example/"},
				{URL: "https://joesplumbing.example/services"},
			},
		},
		pages: []models.ScrapedPage{
			{URL: "https://joesplumbing.example/", Markdown: "# Home"},
			{URL: "https://joesplumbing.example/services", Markdown: "# Services"},
		},
	}
	seo := &fakeSEO{result: models.SEOAnalysisResult{Success: true, Markdown: "## SEO report"}}

	agg := New(reviews, scraper, seo, passthroughSelector{}, nil, testLogger())
	got := agg.Fetch(context.Background(), Request{
		BusinessName: "Joe's Plumbing",
		WebsiteURL:   "https://joesplumbing.example",
	})

	require.True(t, got.HasReviews())
	require.True(t, got.HasWebsite())
	require.True(t, got.HasSEO())
	assert.Equal(t, 2, got.Website.TotalURLs)
	assert.Equal(t, 2, got.Website.ScrapedURLs)
}

func TestFetchSkipsSourcesWithoutPrerequisites(t *testing.T) {
	reviews := &fakeReviews{result: models.ReviewsResult{Success: true}}
	scraper := &fakeScraper{siteMap: models.SiteMapResult{Success: true}}
	seo := &fakeSEO{result: models.SEOAnalysisResult{Success: true}}
	agg := New(reviews, scraper, seo, passthroughSelector{}, nil, testLogger())

	got := agg.Fetch(context.Background(), Request{BusinessName: "Joe's Plumbing"})

	require.NotNil(t, got.Reviews)
	assert.Nil(t, got.Website, "website fetch must not run without a URL")
	assert.Nil(t, got.SEO, "seo analysis must not run without a URL")
	assert.Equal(t, int32(0), scraper.mapCalls.Load())
	assert.Equal(t, int32(0), seo.calls.Load())

	got = agg.Fetch(context.Background(), Request{WebsiteURL: "https://joesplumbing.example"})
	assert.Nil(t, got.Reviews, "reviews fetch must not run without a business name")
	assert.NotNil(t, got.Website)
	assert.NotNil(t, got.SEO)
}

func TestFetchOneFailureDoesNotAffectOthers(t *testing.T) {
	reviews := &fakeReviews{result: models.ReviewsResult{
		Kind: models.FailureNotFound,
		Err:  "no business matched",
	}}
	scraper := &fakeScraper{
		siteMap: models.SiteMapResult{Success: true, Links: []models.PageCandidate{{URL: "https://a.example/"}}},
		pages:   []models.ScrapedPage{{URL: "https://a.example/", Markdown: "# A"}},
	}
	seo := &fakeSEO{result: models.SEOAnalysisResult{Success: true, Markdown: "report"}}

	agg := New(reviews, scraper, seo, passthroughSelector{}, nil, testLogger())
	got := agg.Fetch(context.Background(), Request{
		BusinessName: "Missing Biz",
		WebsiteURL:   "https://a.example",
	})

	require.NotNil(t, got.Reviews)
	assert.False(t, got.HasReviews())
	assert.Equal(t, models.FailureNotFound, got.Reviews.Kind)
	assert.True(t, got.HasWebsite())
	assert.True(t, got.HasSEO())
}

func TestFetchRecoversFromPanic(t *testing.T) {
	reviews := &fakeReviews{panics: true}
	scraper := &fakeScraper{
		siteMap: models.SiteMapResult{Success: true, Links: []models.PageCandidate{{URL: "https://a.example/"}}},
		pages:   []models.ScrapedPage{{URL: "https://a.example/", Markdown: "# A"}},
	}
	seo := &fakeSEO{result: models.SEOAnalysisResult{Success: true, Markdown: "report"}}

	agg := New(reviews, scraper, seo, passthroughSelector{}, nil, testLogger())
	got := agg.Fetch(context.Background(), Request{
		BusinessName: "Panicky Biz",
		WebsiteURL:   "https://a.example",
	})

	require.NotNil(t, got.Reviews)
	assert.Equal(t, models.FailureTransport, got.Reviews.Kind)
	assert.Contains(t, got.Reviews.Err, "panic")
	assert.True(t, got.HasWebsite())
	assert.True(t, got.HasSEO())
}

func TestFetchRunsSourcesConcurrently(t *testing.T) {
	delay := 50 * time.Millisecond
	reviews := &fakeReviews{result: models.ReviewsResult{Success: true}, delay: delay}
	scraper := &fakeScraper{siteMap: models.SiteMapResult{Success: true}}
	seo := &fakeSEO{result: models.SEOAnalysisResult{Success: true, Markdown: "r"}, delay: delay}

	agg := New(reviews, scraper, seo, passthroughSelector{}, nil, testLogger())
	start := time.Now()
	agg.Fetch(context.Background(), Request{
		BusinessName: "Joe's Plumbing",
		WebsiteURL:   "https://joesplumbing.example",
	})
	elapsed := time.Since(start)

	// Serial execution would take at least 2x the delay.
	assert.Less(t, elapsed, 2*delay, "sources should run in parallel")
}

func TestFetchWebsiteMapFailurePropagates(t *testing.T) {
	scraper := &fakeScraper{siteMap: models.SiteMapResult{
		Kind: models.FailureTransport,
		Err:  "dial tcp: connection refused",
	}}
	agg := New(&fakeReviews{}, scraper, &fakeSEO{}, passthroughSelector{}, nil, testLogger())

	got := agg.Fetch(context.Background(), Request{WebsiteURL: "https://down.example"})

	require.NotNil(t, got.Website)
	assert.False(t, got.HasWebsite())
	assert.Equal(t, models.FailureTransport, got.Website.Kind)
}

func TestFetchWebsiteEmptyMapIsSuccess(t *testing.T) {
	scraper := &fakeScraper{siteMap: models.SiteMapResult{Success: true, BaseURL: "https://tiny.example"}}
	agg := New(&fakeReviews{}, scraper, &fakeSEO{}, passthroughSelector{}, nil, testLogger())

	got := agg.Fetch(context.Background(), Request{WebsiteURL: "https://tiny.example"})

	require.NotNil(t, got.Website)
	assert.True(t, got.Website.Success)
	assert.Zero(t, got.Website.TotalURLs)
	assert.False(t, got.HasWebsite(), "no pages means no usable website content")
}

func TestFetchWebsiteDropsFailedPages(t *testing.T) {
	scraper := &fakeScraper{
		siteMap: models.SiteMapResult{Success: true, Links: []models.PageCandidate{
			{URL: "https://a.example/"},
			{URL: "https://a.example/broken"},
			{URL: "https://a.example/about"},
		}},
		pages: []models.ScrapedPage{
			{URL: "https://a.example/", Markdown: "# Home"},
			{URL: "https://a.example/broken", Err: "status 500"},
			{URL: "https://a.example/about", Markdown: "# About"},
		},
	}
	agg := New(&fakeReviews{}, scraper, &fakeSEO{}, passthroughSelector{}, nil, testLogger())

	got := agg.Fetch(context.Background(), Request{WebsiteURL: "https://a.example"})

	require.NotNil(t, got.Website)
	assert.Equal(t, 3, got.Website.TotalURLs)
	assert.Equal(t, 2, got.Website.ScrapedURLs)
	require.Len(t, got.Website.Pages, 2)
	for _, p := range got.Website.Pages {
		assert.True(t, p.OK())
	}
}
