// Package document turns aggregated source data into website specification
// documents, either through a text-generation call or a deterministic
// template.
package document

import (
	"fmt"
	"strings"

	"github.com/sitespec/sitespec/internal/markdown"
	"github.com/sitespec/sitespec/internal/models"
)

// maxPageChars bounds how much of a single scraped page ends up in the
// document context. Pages beyond this are cut at sentence boundaries.
const maxPageChars = 4000

// Placeholder strings used when a source yielded no usable data.
const (
	NoReviewsAvailable = "_No customer review data available._"
	NoWebsiteAvailable = "_No website content available._"
	NoSEOAvailable     = "_No SEO analysis available._"
)

// FormatReviews renders the reviews result as a markdown section.
func FormatReviews(r *models.ReviewsResult) string {
	if r == nil || !r.Success {
		return NoReviewsAvailable
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**", r.BusinessName)
	if r.Address != "" {
		fmt.Fprintf(&b, " — %s", r.Address)
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Overall rating: %.1f/5 (%d ratings)\n", r.Rating, r.RatingCount)
	if r.MapLink != "" {
		fmt.Fprintf(&b, "Map: %s\n", r.MapLink)
	}

	if len(r.Reviews) == 0 {
		b.WriteString("\nNo written reviews yet.\n")
		return b.String()
	}

	for _, rev := range r.Reviews {
		fmt.Fprintf(&b, "\n> %s\n", strings.ReplaceAll(strings.TrimSpace(rev.Text), "\n", "\n> "))
		fmt.Fprintf(&b, "> — %s (%.0f/5", rev.Author, rev.Rating)
		if rev.PublishedAt != "" {
			fmt.Fprintf(&b, ", %s", rev.PublishedAt)
		}
		b.WriteString(")\n")
	}
	return b.String()
}

// FormatWebsiteContent renders the scraped pages as a markdown section, one
// subsection per page.
func FormatWebsiteContent(w *models.WebsiteContentResult) string {
	if w == nil || !w.Success || len(w.Pages) == 0 {
		return NoWebsiteAvailable
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Scraped %d of %d discovered pages from %s.\n", w.ScrapedURLs, w.TotalURLs, w.BaseURL)
	for _, p := range w.Pages {
		title := p.Title
		if title == "" {
			title = p.URL
		}
		fmt.Fprintf(&b, "\n### %s\n\nSource: %s\n\n%s\n", title, p.URL, markdown.Excerpt(p.Markdown, maxPageChars))
	}
	return b.String()
}

// FormatSEO renders the SEO analysis as a markdown section.
func FormatSEO(s *models.SEOAnalysisResult) string {
	if s == nil || !s.Success || s.Markdown == "" {
		return NoSEOAvailable
	}
	return strings.TrimSpace(s.Markdown)
}
