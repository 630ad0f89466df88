package document

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitespec/sitespec/internal/models"
)

type fakeGenerator struct {
	response string
	err      error
	lastSys  string
	lastUser string
}

func (f *fakeGenerator) GenerateWithSystem(ctx context.Context, system, prompt string) (string, error) {
	f.lastSys = system
	f.lastUser = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFormatReviews(t *testing.T) {
	got := FormatReviews(&models.ReviewsResult{
		Success:      true,
		BusinessName: "Joe's Coffee Shop",
		Address:      "12 Bean St, Melbourne VIC",
		Rating:       4.6,
		RatingCount:  124,
		MapLink:      "https://maps.example/joes",
		Reviews: []models.Review{
			{Author: "Alice", Rating: 5, Text: "Best flat white in town.\nStaff are lovely.", PublishedAt: "2026-01-10"},
			{Author: "Bob", Rating: 4, Text: "Great beans."},
		},
	})

	assert.Contains(t, got, "**Joe's Coffee Shop** — 12 Bean St, Melbourne VIC")
	assert.Contains(t, got, "Overall rating: 4.6/5 (124 ratings)")
	assert.Contains(t, got, "> Best flat white in town.\n> Staff are lovely.")
	assert.Contains(t, got, "— Alice (5/5, 2026-01-10)")
	assert.Contains(t, got, "— Bob (4/5)")
}

func TestFormatReviewsNoData(t *testing.T) {
	assert.Equal(t, NoReviewsAvailable, FormatReviews(nil))
	assert.Equal(t, NoReviewsAvailable, FormatReviews(&models.ReviewsResult{Kind: models.FailureTransport}))
}

func TestFormatReviewsNoWrittenReviews(t *testing.T) {
	got := FormatReviews(&models.ReviewsResult{Success: true, BusinessName: "New Biz", RatingCount: 0})
	assert.Contains(t, got, "No written reviews yet.")
}

func TestFormatWebsiteContent(t *testing.T) {
	got := FormatWebsiteContent(&models.WebsiteContentResult{
		Success:     true,
		BaseURL:     "https://joes.example",
		TotalURLs:   8,
		ScrapedURLs: 2,
		Pages: []models.ScrapedPage{
			{URL: "https://joes.example/", Title: "Home", Markdown: "# Welcome"},
			{URL: "https://joes.example/menu", Markdown: "# Menu"},
		},
	})

	assert.Contains(t, got, "Scraped 2 of 8 discovered pages")
	assert.Contains(t, got, "### Home")
	// Untitled pages fall back to the URL as heading.
	assert.Contains(t, got, "### https://joes.example/menu")
}

func TestFormatWebsiteContentNoData(t *testing.T) {
	assert.Equal(t, NoWebsiteAvailable, FormatWebsiteContent(nil))
	assert.Equal(t, NoWebsiteAvailable, FormatWebsiteContent(&models.WebsiteContentResult{Success: true}))
}

func TestFormatSEONoData(t *testing.T) {
	assert.Equal(t, NoSEOAvailable, FormatSEO(nil))
	assert.Equal(t, NoSEOAvailable, FormatSEO(&models.SEOAnalysisResult{Success: true}))
}

func TestRenderEmptyContextKeepsPlaceholdersVerbatim(t *testing.T) {
	got := Render("Joe's Coffee Shop", models.AggregatedContext{})

	assert.Contains(t, got, "# Website Specification: Joe's Coffee Shop")
	assert.Contains(t, got, NoReviewsAvailable)
	assert.Contains(t, got, NoWebsiteAvailable)
	assert.Contains(t, got, NoSEOAvailable)
	assert.NotContains(t, got, TokenReviews)
	assert.NotContains(t, got, TokenWebsite)
	assert.NotContains(t, got, TokenSEO)
}

func TestRenderSubstitutesEachSectionOnce(t *testing.T) {
	agg := models.AggregatedContext{
		Reviews: &models.ReviewsResult{Success: true, BusinessName: "Joe's", Rating: 4.5, RatingCount: 10},
		SEO:     &models.SEOAnalysisResult{Success: true, Markdown: "Improve the meta description."},
	}
	got := Render("Joe's", agg)

	assert.Equal(t, 1, strings.Count(got, "Overall rating: 4.5/5"))
	assert.Equal(t, 1, strings.Count(got, "Improve the meta description."))
	assert.Contains(t, got, NoWebsiteAvailable)
}

func TestAssemblerCreateGenerative(t *testing.T) {
	gen := &fakeGenerator{response: "# Spec from the model"}
	a := NewAssembler(gen, nil, testLogger())

	content, generative := a.Create(context.Background(), "Joe's", "make it modern", models.AggregatedContext{
		Reviews: &models.ReviewsResult{Success: true, BusinessName: "Joe's", Rating: 5, RatingCount: 3},
	})

	assert.True(t, generative)
	assert.Equal(t, "# Spec from the model", content)
	assert.Contains(t, gen.lastUser, "make it modern")
	assert.Contains(t, gen.lastUser, "Overall rating: 5.0/5")
	assert.Contains(t, gen.lastUser, NoWebsiteAvailable)
}

func TestAssemblerCreateFallsBackToTemplate(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	a := NewAssembler(gen, nil, testLogger())

	content, generative := a.Create(context.Background(), "Joe's", "", models.AggregatedContext{})

	assert.False(t, generative)
	assert.Contains(t, content, "# Website Specification: Joe's")
	assert.Contains(t, content, NoReviewsAvailable)
}

func TestAssemblerCreateWithoutGenerator(t *testing.T) {
	a := NewAssembler(nil, nil, testLogger())
	content, generative := a.Create(context.Background(), "Joe's", "", models.AggregatedContext{})
	assert.False(t, generative)
	assert.Contains(t, content, "# Website Specification: Joe's")
}

func TestAssemblerUpdateGenerative(t *testing.T) {
	gen := &fakeGenerator{response: "# Revised spec"}
	a := NewAssembler(gen, nil, testLogger())

	content, generative := a.Update(context.Background(), "# Old spec\n\n## Services\n", "add a pricing section", models.AggregatedContext{})

	assert.True(t, generative)
	assert.Equal(t, "# Revised spec", content)
	assert.Contains(t, gen.lastUser, "add a pricing section")
	assert.Contains(t, gen.lastUser, "# Old spec")
}

func TestAssemblerUpdateFallbackPreservesPriorContent(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	a := NewAssembler(gen, nil, testLogger())
	a.now = func() time.Time { return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC) }

	existing := "# Old spec\n\n## Services\n\nPlumbing and gas fitting.\n"
	content, generative := a.Update(context.Background(), existing, "add a pricing section", models.AggregatedContext{})

	assert.False(t, generative)
	// The fallback is a strict superset of the prior content.
	require.True(t, strings.HasPrefix(content, strings.TrimRight(existing, "\n")))
	assert.Contains(t, content, "## Update requested (2026-08-29)")
	assert.Contains(t, content, "add a pricing section")
}
